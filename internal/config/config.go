package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration settings.
type Config struct {
	Environment string `envconfig:"MD_ENV" default:"development"`

	HTTPPort    int           `envconfig:"MD_HTTP_PORT" default:"8080"`
	HTTPTimeout time.Duration `envconfig:"MD_HTTP_TIMEOUT" default:"15s"`

	// qBittorrent WebUI control plane.
	QBEnabled  bool          `envconfig:"MD_QB_ENABLED" default:"false"`
	QBURL      string        `envconfig:"MD_QB_URL" default:""`
	QBUser     string        `envconfig:"MD_QB_USER" default:""`
	QBPass     string        `envconfig:"MD_QB_PASS" default:""`
	QBCategory string        `envconfig:"MD_QB_CATEGORY" default:"MagnetDrop"`
	QBTimeout  time.Duration `envconfig:"MD_QB_TIMEOUT" default:"10s"`

	// Retry policy for control-plane dispatch.
	RetryAttempts     int           `envconfig:"MD_RETRY_ATTEMPTS" default:"3"`
	RetryInitialDelay time.Duration `envconfig:"MD_RETRY_INITIAL_DELAY" default:"250ms"`
	RetryMaxDelay     time.Duration `envconfig:"MD_RETRY_MAX_DELAY" default:"5s"`
	RetryMultiplier   float64       `envconfig:"MD_RETRY_MULTIPLIER" default:"2.0"`

	// Tracker reachability probe. Advisory only.
	ProbeEnabled bool          `envconfig:"MD_PROBE_ENABLED" default:"false"`
	ProbeTimeout time.Duration `envconfig:"MD_PROBE_TIMEOUT" default:"2s"`

	// External video downloader.
	DownloaderEnabled bool          `envconfig:"MD_DOWNLOADER_ENABLED" default:"false"`
	DownloaderCommand string        `envconfig:"MD_DOWNLOADER_COMMAND" default:"yt-dlp"`
	DownloadFormat    string        `envconfig:"MD_DOWNLOAD_FORMAT" default:"bestvideo"`
	DownloadDir       string        `envconfig:"MD_DOWNLOAD_DIR" default:"./downloads"`
	DownloadTimeout   time.Duration `envconfig:"MD_DOWNLOAD_TIMEOUT" default:"5m"`

	// Resolution of submitted web pages into magnet links.
	ResolveTimeout  time.Duration `envconfig:"MD_RESOLVE_TIMEOUT" default:"5s"`
	ResolveMaxBytes int64         `envconfig:"MD_RESOLVE_MAX_BYTES" default:"2000000"`

	JobLogPath        string `envconfig:"MD_JOB_LOG_PATH" default:"./logs/jobs.jsonl"`
	SubmissionLogPath string `envconfig:"MD_SUBMISSION_LOG_PATH" default:"./logs/submissions.jsonl"`

	ShutdownTimeout time.Duration `envconfig:"MD_SHUTDOWN_TIMEOUT" default:"30s"`

	LogLevel  string `envconfig:"MD_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"MD_LOG_FORMAT" default:"json"`
}

// Validate checks the configuration for invalid or missing values.
// Returns an error describing the first invalid setting found.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	if c.QBEnabled {
		if c.QBURL == "" || c.QBUser == "" || c.QBPass == "" {
			return fmt.Errorf("qBittorrent enabled but MD_QB_URL, MD_QB_USER and MD_QB_PASS must all be set")
		}
		if c.QBTimeout <= 0 {
			return fmt.Errorf("qBittorrent timeout must be positive: %s", c.QBTimeout)
		}
	}

	if c.RetryAttempts <= 0 {
		return fmt.Errorf("retry attempts must be positive: %d", c.RetryAttempts)
	}
	if c.RetryInitialDelay < 0 {
		return fmt.Errorf("retry initial delay cannot be negative: %s", c.RetryInitialDelay)
	}
	if c.RetryMultiplier < 1.0 {
		return fmt.Errorf("retry multiplier must be at least 1.0: %f", c.RetryMultiplier)
	}

	if c.ProbeEnabled && c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive: %s", c.ProbeTimeout)
	}

	if c.DownloaderEnabled {
		if c.DownloaderCommand == "" {
			return fmt.Errorf("downloader command cannot be empty")
		}
		if c.DownloadDir == "" {
			return fmt.Errorf("download directory cannot be empty")
		}
		if c.DownloadTimeout <= 0 {
			return fmt.Errorf("download timeout must be positive: %s", c.DownloadTimeout)
		}
	}

	if c.ResolveMaxBytes <= 0 {
		return fmt.Errorf("resolve max bytes must be positive: %d", c.ResolveMaxBytes)
	}

	if c.JobLogPath == "" {
		return fmt.Errorf("job log path cannot be empty")
	}
	if c.SubmissionLogPath == "" {
		return fmt.Errorf("submission log path cannot be empty")
	}

	return nil
}
