// Package ytdlp invokes the external yt-dlp downloader as a bounded
// subprocess and turns its exit state into structured results.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/veranemoloko/magnet-dispatch/internal/errs"
)

const watchURLTemplate = "https://www.youtube.com/watch?v=%s"

// Result describes a completed video download.
type Result struct {
	VideoID    string
	URL        string
	Title      string
	Duration   float64
	OutputPath string
	FileSize   int64
}

// Runner wraps the downloader binary. A missing binary is a startup-time
// configuration error, not a per-request failure.
type Runner struct {
	command   string
	outputDir string
	format    string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewRunner verifies the downloader binary is installed and prepares the
// output directory.
func NewRunner(command, outputDir, format string, timeout time.Duration, logger *slog.Logger) (*Runner, error) {
	if _, err := exec.LookPath(command); err != nil {
		return nil, fmt.Errorf("downloader %q is not installed or not in PATH: %w", command, err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Runner{
		command:   command,
		outputDir: outputDir,
		format:    format,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// Download fetches one video. The whole operation (metadata pass plus
// download pass) shares a single deadline; the subprocess is killed when
// it is exceeded and the failure surfaces as errs.KindTimeout. Downloader
// failures are never retried.
func (r *Runner) Download(ctx context.Context, videoID string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	videoURL := fmt.Sprintf(watchURLTemplate, videoID)

	meta, err := r.fetchMetadata(ctx, videoURL)
	if err != nil {
		return nil, err
	}

	outputTemplate := filepath.Join(r.outputDir, "%(title)s-%(id)s.%(ext)s")
	stdout, stderr, err := r.run(ctx,
		"--format", r.format,
		"--output", outputTemplate,
		"--no-playlist",
		"--no-warnings",
		videoURL,
	)
	if err != nil {
		return nil, classify(ctx, stdout, stderr, err)
	}

	result := &Result{
		VideoID:  videoID,
		URL:      videoURL,
		Title:    meta.Title,
		Duration: meta.Duration,
	}

	if path := r.findOutput(videoID); path != "" {
		result.OutputPath = path
		if info, err := os.Stat(path); err == nil {
			result.FileSize = info.Size()
		}
	}

	r.logger.Info("video downloaded", "video_id", videoID, "title", meta.Title, "output_path", result.OutputPath)
	return result, nil
}

type metadata struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

func (r *Runner) fetchMetadata(ctx context.Context, videoURL string) (*metadata, error) {
	stdout, stderr, err := r.run(ctx, "--dump-json", "--no-playlist", "--no-warnings", videoURL)
	if err != nil {
		return nil, classify(ctx, stdout, stderr, err)
	}

	var meta metadata
	if err := json.Unmarshal([]byte(stdout), &meta); err != nil {
		return nil, errs.Wrap(errs.KindDownloader, "failed to parse video metadata", err)
	}
	return &meta, nil
}

func (r *Runner) run(ctx context.Context, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, r.command, args...)
	// Orphaned children must not hold the output pipes open past the kill.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// findOutput locates the downloaded file by its embedded video id, falling
// back to the most recently modified file in the output directory.
func (r *Runner) findOutput(videoID string) string {
	entries, err := os.ReadDir(r.outputDir)
	if err != nil {
		return ""
	}

	var newest string
	var newestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(r.outputDir, entry.Name())
		if strings.Contains(entry.Name(), videoID) {
			return path
		}
		if info, err := entry.Info(); err == nil && info.ModTime().After(newestMod) {
			newest = path
			newestMod = info.ModTime()
		}
	}
	return newest
}

var unavailableSignatures = []string{
	"video unavailable",
	"private video",
	"this video is not available",
	"sign in to confirm your age",
}

func classify(ctx context.Context, stdout, stderr string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errs.New(errs.KindTimeout, "downloader timed out")
	}

	diagnostic := strings.TrimSpace(stderr)
	if diagnostic == "" {
		diagnostic = strings.TrimSpace(stdout)
	}
	lower := strings.ToLower(diagnostic)
	for _, sig := range unavailableSignatures {
		if strings.Contains(lower, sig) {
			return errs.New(errs.KindContentUnavailable, "video is unavailable or restricted")
		}
	}

	return errs.Wrap(errs.KindDownloader, "downloader failed", fmt.Errorf("%w: %s", err, truncate(diagnostic, 2048)))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
