package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets_MatchRouteBudgets(t *testing.T) {
	assert.Equal(t, 15*time.Minute, AuthPolicy.Window)
	assert.Equal(t, 20, AuthPolicy.Max)
	assert.Equal(t, time.Minute, InterviewPolicy.Window)
	assert.Equal(t, 30, InterviewPolicy.Max)
	assert.Equal(t, time.Minute, FeedbackPolicy.Window)
	assert.Equal(t, 25, FeedbackPolicy.Max)
	assert.Equal(t, 5*time.Minute, ResumePolicy.Window)
	assert.Equal(t, 10, ResumePolicy.Max)
}

func TestPresets_AreValidWithDistinctBuckets(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range Presets() {
		require.NoError(t, p.Validate())
		assert.NotEmpty(t, p.Message)
		assert.False(t, seen[p.Bucket], "duplicate bucket %s", p.Bucket)
		seen[p.Bucket] = true
	}
	assert.Len(t, seen, 4)
}
