// Package service implements the submission pipeline: classify and
// validate an incoming identifier, dispatch it to the matching external
// agent, and record the outcome durably.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/veranemoloko/magnet-dispatch/internal/config"
	"github.com/veranemoloko/magnet-dispatch/internal/domain"
	"github.com/veranemoloko/magnet-dispatch/internal/errs"
	"github.com/veranemoloko/magnet-dispatch/internal/metrics"
	"github.com/veranemoloko/magnet-dispatch/internal/resolve"
	"github.com/veranemoloko/magnet-dispatch/internal/retry"
	"github.com/veranemoloko/magnet-dispatch/internal/storage"
	"github.com/veranemoloko/magnet-dispatch/internal/validation"
	"github.com/veranemoloko/magnet-dispatch/internal/ytdlp"
)

// TorrentClient is the control-plane surface the pipeline dispatches
// magnets through.
type TorrentClient interface {
	AddMagnet(ctx context.Context, magnet, category string) error
	Version(ctx context.Context) (string, error)
}

// VideoDownloader runs the external downloader for a validated video id.
type VideoDownloader interface {
	Download(ctx context.Context, videoID string) (*ytdlp.Result, error)
}

// PageResolver extracts a magnet link from a submitted web page.
type PageResolver interface {
	Resolve(ctx context.Context, pageURL string) (string, validation.MagnetResult, error)
}

// TrackerProber supplies advisory tracker reachability metadata.
type TrackerProber interface {
	Probe(ctx context.Context, trackers []string) domain.ProbeOutcome
}

// ClientMeta identifies the submitting client for the submission log.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// Outcome is the discriminated result of ValidateAndDispatch. Exactly one
// of the three shapes holds: accepted (Job set, Err nil), rejected
// (Rejected non-empty), or dispatch failed (Err set; Job may carry a
// failed record for definitive downloader failures).
type Outcome struct {
	Job      *domain.JobRecord
	Rejected []validation.Reason
	Err      error
}

// Accepted reports whether the submission produced a queued job.
func (o Outcome) Accepted() bool {
	return o.Err == nil && len(o.Rejected) == 0 && o.Job != nil
}

// Pipeline wires the validators, dispatch clients and stores together.
// Torrents and downloader may be nil when the matching integration is
// disabled by configuration.
type Pipeline struct {
	cfg         *config.Config
	torrents    TorrentClient
	downloader  VideoDownloader
	resolver    PageResolver
	prober      TrackerProber
	jobs        *storage.JobStore
	submissions *storage.SubmissionLog
	logger      *slog.Logger
}

// New assembles a Pipeline.
func New(
	cfg *config.Config,
	torrents TorrentClient,
	downloader VideoDownloader,
	resolver PageResolver,
	prober TrackerProber,
	jobs *storage.JobStore,
	submissions *storage.SubmissionLog,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		torrents:    torrents,
		downloader:  downloader,
		resolver:    resolver,
		prober:      prober,
		jobs:        jobs,
		submissions: submissions,
		logger:      logger,
	}
}

// ValidateAndDispatch is the single entry point the boundary layer calls.
// A client disconnect does not abort an in-flight dispatch: the recorded
// outcome must match what was actually sent to the external system, so the
// pipeline runs on a cancellation-free context bounded only by its own
// timeouts and attempt ceilings.
func (p *Pipeline) ValidateAndDispatch(ctx context.Context, raw string, meta ClientMeta) Outcome {
	ctx = context.WithoutCancel(ctx)

	metrics.SubmissionsReceived.Inc()
	start := time.Now()
	defer func() {
		metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	}()

	entry := &domain.SubmissionEntry{
		ReceivedAt: domain.Now(),
		ClientIP:   meta.IP,
		UserAgent:  meta.UserAgent,
		Input:      raw,
	}

	switch kind := validation.Classify(raw); kind {
	case validation.KindMagnet:
		entry.Kind = string(kind)
		result := validation.ValidateMagnet(raw)
		if !result.IsValid {
			return p.reject(entry, result.Errors)
		}
		return p.dispatchMagnet(ctx, result, entry)

	case validation.KindYouTube:
		entry.Kind = string(kind)
		result := validation.ValidateYouTubeURL(raw)
		if !result.IsValid {
			return p.reject(entry, result.Errors)
		}
		return p.dispatchVideo(ctx, result, entry)

	case validation.KindPageURL:
		entry.Kind = string(kind)
		if reasons := validation.ValidatePageURL(raw); len(reasons) > 0 {
			return p.reject(entry, reasons)
		}
		resolveCtx, cancel := context.WithTimeout(ctx, p.cfg.ResolveTimeout)
		defer cancel()
		_, result, err := p.resolver.Resolve(resolveCtx, raw)
		if err != nil {
			p.logger.Info("page resolution found no magnet", "page", raw, "error", err)
			return p.reject(entry, []validation.Reason{validation.ReasonNoMagnetFound})
		}
		return p.dispatchMagnet(ctx, result, entry)

	default:
		return p.reject(entry, []validation.Reason{validation.ReasonUnrecognized})
	}
}

// LookupJob returns the latest record for jobID.
func (p *Pipeline) LookupJob(jobID string) (*domain.JobRecord, error) {
	return p.jobs.Get(jobID)
}

func (p *Pipeline) dispatchMagnet(ctx context.Context, result validation.MagnetResult, entry *domain.SubmissionEntry) Outcome {
	entry.SourceID = result.InfoHash
	probe := p.prober.Probe(ctx, result.Trackers)
	entry.Probe = &probe

	if p.torrents == nil {
		return p.fail(entry, errs.New(errs.KindUnavailable, "torrent dispatch is disabled"))
	}

	magnet := validation.MagnetURI(result)

	attempt := 0
	err := retry.Do(ctx, p.retryConfig(), func() error {
		attempt++
		if attempt > 1 {
			metrics.DispatchRetries.Inc()
		}
		return p.torrents.AddMagnet(ctx, magnet, p.cfg.QBCategory)
	})

	duplicate := false
	if errs.IsKind(err, errs.KindDuplicate) {
		// The content is already being fetched; from the caller's
		// perspective that is a queued job.
		duplicate = true
		err = nil
		metrics.TorrentDuplicates.Inc()
		p.logger.Info("duplicate torrent treated as queued", "info_hash", result.InfoHash)
	}
	if err != nil {
		if errs.IsKind(err, errs.KindTransient) {
			err = errs.Wrap(errs.KindUnavailable, "control plane unavailable after retries", err)
		}
		return p.fail(entry, err)
	}

	version := ""
	if v, vErr := p.torrents.Version(ctx); vErr == nil {
		version = v
	} else {
		p.logger.Warn("control plane version query failed", "error", vErr)
	}

	rec := &domain.JobRecord{
		JobID:               domain.NewJobID(),
		Type:                domain.JobTypeTorrent,
		Status:              domain.JobStatusQueued,
		CreatedAt:           domain.Now(),
		SourceID:            result.InfoHash,
		DisplayName:         result.DisplayName,
		Duplicate:           duplicate,
		ControlPlaneVersion: version,
	}
	metrics.TorrentsQueued.Inc()
	return p.accept(entry, rec)
}

func (p *Pipeline) dispatchVideo(ctx context.Context, result validation.YouTubeResult, entry *domain.SubmissionEntry) Outcome {
	entry.SourceID = result.VideoID

	if p.downloader == nil {
		return p.fail(entry, errs.New(errs.KindUnavailable, "video dispatch is disabled"))
	}

	dl, err := p.downloader.Download(ctx, result.VideoID)
	if err != nil {
		kind := errs.KindOf(err)
		// Definitive downloader failures get a durable failed record;
		// a timeout leaves no record.
		if kind == errs.KindContentUnavailable || kind == errs.KindDownloader {
			rec := &domain.JobRecord{
				JobID:       domain.NewJobID(),
				Type:        domain.JobTypeYouTube,
				Status:      domain.JobStatusFailed,
				CreatedAt:   domain.Now(),
				SourceID:    result.VideoID,
				ErrorDetail: errs.MessageOf(err),
			}
			if storeErr := p.jobs.Append(rec); storeErr != nil {
				p.logger.Error("failed to record failed job", "job_id", rec.JobID, "error", storeErr)
			} else {
				entry.JobID = rec.JobID
			}
			outcome := p.fail(entry, err)
			outcome.Job = rec
			return outcome
		}
		return p.fail(entry, err)
	}

	rec := &domain.JobRecord{
		JobID:           domain.NewJobID(),
		Type:            domain.JobTypeYouTube,
		Status:          domain.JobStatusQueued,
		CreatedAt:       domain.Now(),
		SourceID:        result.VideoID,
		Title:           dl.Title,
		DurationSeconds: dl.Duration,
		OutputPath:      dl.OutputPath,
	}
	metrics.VideosQueued.Inc()
	return p.accept(entry, rec)
}

// accept appends the job record and the submission entry. A store failure
// after a successful external dispatch is logged distinctly and surfaced
// as a store error; the dispatch itself is not undone.
func (p *Pipeline) accept(entry *domain.SubmissionEntry, rec *domain.JobRecord) Outcome {
	if err := p.jobs.Append(rec); err != nil {
		p.logger.Error("dispatch succeeded but job record append failed",
			"job_id", rec.JobID, "source_id", rec.SourceID, "error", err)
		storeErr := errs.Wrap(errs.KindStore, "job was dispatched but could not be recorded", err)
		outcome := p.fail(entry, storeErr)
		outcome.Job = rec
		return outcome
	}

	entry.Status = domain.SubmissionAccepted
	entry.JobID = rec.JobID
	p.logSubmission(entry)

	metrics.SubmissionsAccepted.Inc()
	p.logger.Info("submission accepted", "job_id", rec.JobID, "type", rec.Type, "source_id", rec.SourceID)
	return Outcome{Job: rec}
}

func (p *Pipeline) reject(entry *domain.SubmissionEntry, reasons []validation.Reason) Outcome {
	entry.Status = domain.SubmissionRejected
	entry.Errors = validation.Strings(reasons)
	p.logSubmission(entry)

	metrics.SubmissionsRejected.Inc()
	p.logger.Info("submission rejected", "input_kind", entry.Kind, "reasons", entry.Errors)
	return Outcome{Rejected: reasons}
}

func (p *Pipeline) fail(entry *domain.SubmissionEntry, err error) Outcome {
	entry.Status = domain.SubmissionDispatchFailed
	entry.Errors = []string{errs.MessageOf(err)}
	p.logSubmission(entry)

	metrics.DispatchFailures.WithLabelValues(string(errs.KindOf(err))).Inc()
	p.logger.Error("dispatch failed", "kind", string(errs.KindOf(err)), "error", err)
	return Outcome{Err: err}
}

func (p *Pipeline) logSubmission(entry *domain.SubmissionEntry) {
	if err := p.submissions.Append(entry); err != nil {
		p.logger.Error("failed to record submission", "error", err)
	}
}

func (p *Pipeline) retryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  p.cfg.RetryAttempts,
		InitialDelay: p.cfg.RetryInitialDelay,
		MaxDelay:     p.cfg.RetryMaxDelay,
		Multiplier:   p.cfg.RetryMultiplier,
		IsRetryable: func(err error) bool {
			return errs.IsKind(err, errs.KindTransient)
		},
	}
}

var _ PageResolver = (*resolve.Resolver)(nil)
