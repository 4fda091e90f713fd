package ytdlp

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/veranemoloko/magnet-dispatch/internal/errs"
)

const testVideoID = "dQw4w9WgXcQ"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
}

// writeStub installs a shell script standing in for the downloader binary.
func writeStub(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yt-dlp-stub")
	assert.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func newStubRunner(t *testing.T, script string, timeout time.Duration) (*Runner, string) {
	t.Helper()
	outputDir := t.TempDir()
	runner, err := NewRunner(writeStub(t, script), outputDir, "best", timeout, testLogger())
	assert.NoError(t, err)
	return runner, outputDir
}

func TestNewRunnerMissingBinary(t *testing.T) {
	_, err := NewRunner("definitely-not-installed-downloader", t.TempDir(), "best", time.Second, testLogger())
	assert.Error(t, err)
}

func TestDownloadSuccess(t *testing.T) {
	runner, _ := newStubRunner(t, `
outdir=""
while [ $# -gt 0 ]; do
  case "$1" in
    --dump-json) echo '{"title":"Demo Video","duration":212.5}'; exit 0;;
    --output) outdir=$(dirname "$2"); shift;;
  esac
  shift
done
printf 'stub media bytes' > "$outdir/Demo Video-`+testVideoID+`.mp4"
exit 0
`, 5*time.Second)

	result, err := runner.Download(context.Background(), testVideoID)
	assert.NoError(t, err)
	assert.Equal(t, testVideoID, result.VideoID)
	assert.Equal(t, "https://www.youtube.com/watch?v="+testVideoID, result.URL)
	assert.Equal(t, "Demo Video", result.Title)
	assert.Equal(t, 212.5, result.Duration)
	assert.Contains(t, result.OutputPath, testVideoID)
	assert.Greater(t, result.FileSize, int64(0))
}

func TestDownloadContentUnavailable(t *testing.T) {
	runner, _ := newStubRunner(t, `
echo "ERROR: [youtube] `+testVideoID+`: Video unavailable" >&2
exit 1
`, 5*time.Second)

	_, err := runner.Download(context.Background(), testVideoID)
	assert.True(t, errs.IsKind(err, errs.KindContentUnavailable))
}

func TestDownloadPrivateVideo(t *testing.T) {
	runner, _ := newStubRunner(t, `
echo "ERROR: [youtube] `+testVideoID+`: Private video. Sign in if you've been granted access" >&2
exit 1
`, 5*time.Second)

	_, err := runner.Download(context.Background(), testVideoID)
	assert.True(t, errs.IsKind(err, errs.KindContentUnavailable))
}

func TestDownloadDownloaderError(t *testing.T) {
	runner, _ := newStubRunner(t, `
echo "ERROR: unable to download webpage: connection reset" >&2
exit 1
`, 5*time.Second)

	_, err := runner.Download(context.Background(), testVideoID)
	assert.True(t, errs.IsKind(err, errs.KindDownloader))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestDownloadTimeout(t *testing.T) {
	runner, _ := newStubRunner(t, `
exec sleep 5
`, 100*time.Millisecond)

	start := time.Now()
	_, err := runner.Download(context.Background(), testVideoID)
	assert.True(t, errs.IsKind(err, errs.KindTimeout))
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestDownloadMalformedMetadata(t *testing.T) {
	runner, _ := newStubRunner(t, `
echo 'not json at all'
exit 0
`, 5*time.Second)

	_, err := runner.Download(context.Background(), testVideoID)
	assert.True(t, errs.IsKind(err, errs.KindDownloader))
}
