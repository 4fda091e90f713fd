package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magnet_dispatch_submissions_received_total",
		Help: "Total number of raw submissions received",
	})

	SubmissionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magnet_dispatch_submissions_accepted_total",
		Help: "Total number of submissions that passed validation and dispatch",
	})

	SubmissionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magnet_dispatch_submissions_rejected_total",
		Help: "Total number of submissions rejected by validation",
	})

	TorrentsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magnet_dispatch_torrents_queued_total",
		Help: "Total number of magnets enqueued with the control plane",
	})

	TorrentDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magnet_dispatch_torrent_duplicates_total",
		Help: "Total number of magnets the control plane already had",
	})

	DispatchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magnet_dispatch_retries_total",
		Help: "Total number of retried control-plane dispatch attempts",
	})

	DispatchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "magnet_dispatch_failures_total",
		Help: "Total number of dispatch failures by error kind",
	}, []string{"kind"})

	VideosQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magnet_dispatch_videos_queued_total",
		Help: "Total number of videos downloaded successfully",
	})

	DispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "magnet_dispatch_duration_seconds",
		Help:    "End-to-end dispatch duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
