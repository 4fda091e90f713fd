package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veranemoloko/magnet-dispatch/internal/domain"
)

func TestSubmissionLogAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "submissions.jsonl")
	log, err := NewSubmissionLog(path)
	assert.NoError(t, err)
	defer log.Close()

	reachable := true
	entries := []*domain.SubmissionEntry{
		{
			ReceivedAt: domain.Now(),
			ClientIP:   "10.0.0.7",
			UserAgent:  "curl/8.5.0",
			Input:      "magnet:?xt=urn:btih:c12fe1c06bba254a9dc9f519b335aa7c1367a88a",
			Status:     domain.SubmissionAccepted,
			Kind:       "magnet",
			SourceID:   "c12fe1c06bba254a9dc9f519b335aa7c1367a88a",
			JobID:      domain.NewJobID(),
			Probe:      &domain.ProbeOutcome{Enabled: true, Reachable: &reachable},
		},
		{
			ReceivedAt: domain.Now(),
			ClientIP:   "10.0.0.8",
			Input:      "not a magnet",
			Status:     domain.SubmissionRejected,
			Errors:     []string{"unrecognized_input"},
		},
	}
	for _, entry := range entries {
		assert.NoError(t, log.Append(entry))
	}

	f, err := os.Open(path)
	assert.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var got []domain.SubmissionEntry
	for scanner.Scan() {
		var entry domain.SubmissionEntry
		assert.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		got = append(got, entry)
	}
	assert.NoError(t, scanner.Err())

	if assert.Len(t, got, 2) {
		assert.Equal(t, domain.SubmissionAccepted, got[0].Status)
		assert.Equal(t, entries[0].JobID, got[0].JobID)
		if assert.NotNil(t, got[0].Probe) && assert.NotNil(t, got[0].Probe.Reachable) {
			assert.True(t, *got[0].Probe.Reachable)
		}
		assert.Equal(t, domain.SubmissionRejected, got[1].Status)
		assert.Equal(t, []string{"unrecognized_input"}, got[1].Errors)
	}
}
