package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, DebugConfig().Validate())

	bad := DefaultConfig()
	bad.Level = "loud"
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.Format = "yaml"
	assert.Error(t, bad.Validate())
}

func TestNewLoggerAndChaining(t *testing.T) {
	log, err := NewLogger(DefaultConfig())
	require.NoError(t, err)

	// Chained derivation must never return nil.
	derived := log.WithComponent("test").
		WithField("k", "v").
		WithFields(Fields{"a": 1}).
		WithError(nil)
	assert.NotNil(t, derived)
}

func TestNewLoggerInvalidConfig(t *testing.T) {
	bad := DefaultConfig()
	bad.Level = "loud"
	_, err := NewLogger(bad)
	assert.Error(t, err)
}

func TestGlobalLogger(t *testing.T) {
	original := GetGlobalLogger()
	require.NotNil(t, original)
	defer SetGlobalLogger(original)

	replacement, err := NewLogger(DebugConfig())
	require.NoError(t, err)
	SetGlobalLogger(replacement)
	assert.Equal(t, replacement, GetGlobalLogger())
}

func TestProgressTrackerPercent(t *testing.T) {
	tracker := NewProgressTracker(ProgressConfig{Operation: "test", Total: 4})

	assert.Equal(t, float64(0), tracker.Percent())
	tracker.Increment()
	tracker.Increment()
	assert.Equal(t, float64(50), tracker.Percent())
	tracker.Increment()
	tracker.Increment()
	assert.Equal(t, float64(100), tracker.Percent())
	tracker.Complete()
}

func TestProgressTrackerZeroTotal(t *testing.T) {
	tracker := NewProgressTracker(ProgressConfig{Operation: "empty"})
	assert.Equal(t, float64(100), tracker.Percent())
}
