package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_RedactsSensitiveKeys(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewWithCore(core)

	log.Info("configured", "api_key", "abc123", "GEMINI_API_KEY", "xyz", "port", 8080)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, redacted, fields["api_key"])
	assert.Equal(t, redacted, fields["GEMINI_API_KEY"])
	assert.EqualValues(t, 8080, fields["port"])
}

func TestLogger_WithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewWithCore(core).With("conversation_id", "c-1")

	log.Warn("conflict", "version", int64(2))
	log.Debug("detail")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "c-1", entries[0].ContextMap()["conversation_id"])
	assert.Equal(t, "c-1", entries[1].ContextMap()["conversation_id"])
}

func TestSanitizeKVs_OddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"password", "hunter2", "dangling"})
	assert.Equal(t, []interface{}{"password", redacted, "dangling"}, out)
}

func TestNew(t *testing.T) {
	tests := []string{"development", "production", "prod", ""}
	for _, mode := range tests {
		t.Run(mode, func(t *testing.T) {
			log, err := New(mode)
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
	assert.NotPanics(t, func() { NewNop().Error("ignored", "k", "v") })
}
