// Package probe performs a best-effort reachability check against the
// first HTTP(S) tracker of a validated magnet. The result is advisory
// metadata for the submission log; it never affects the accept/reject
// decision.
package probe

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/veranemoloko/magnet-dispatch/internal/domain"
)

// Prober issues header-only tracker checks with its own short timeout,
// independent of the dispatch path.
type Prober struct {
	enabled bool
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
}

// New creates a Prober. When enabled is false, Probe returns an unknown
// outcome without touching the network.
func New(enabled bool, timeout time.Duration, logger *slog.Logger) *Prober {
	return &Prober{
		enabled: enabled,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Probe checks the first HTTP(S) tracker in the list. Timeouts and network
// errors are recorded as unknown or unreachable, never propagated.
func (p *Prober) Probe(ctx context.Context, trackers []string) domain.ProbeOutcome {
	if !p.enabled {
		return domain.ProbeOutcome{Enabled: false, Reason: "probe disabled via configuration"}
	}

	tracker := firstHTTPTracker(trackers)
	if tracker == "" {
		return domain.ProbeOutcome{Enabled: true, Reason: "no HTTP(S) trackers available"}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, tracker, nil)
	if err != nil {
		return domain.ProbeOutcome{Enabled: true, TrackerURL: tracker, Reason: "invalid tracker URL"}
	}

	resp, err := p.client.Do(req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		p.logger.Debug("tracker probe failed", "tracker", tracker, "error", err)
		reachable := false
		return domain.ProbeOutcome{
			Enabled:    true,
			Reachable:  &reachable,
			TrackerURL: tracker,
			Reason:     "tracker request failed",
			ElapsedMS:  elapsed,
		}
	}
	defer resp.Body.Close()

	reachable := resp.StatusCode >= 200 && resp.StatusCode < 400
	return domain.ProbeOutcome{
		Enabled:    true,
		Reachable:  &reachable,
		TrackerURL: tracker,
		Reason:     "tracker responded with status " + resp.Status,
		ElapsedMS:  elapsed,
	}
}

func firstHTTPTracker(trackers []string) string {
	for _, tr := range trackers {
		lower := strings.ToLower(tr)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			return tr
		}
	}
	return ""
}
