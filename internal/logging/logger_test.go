package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, Output: &buf, JSON: true})

	l.WithComponent("session").WithUser(7).Info("woke", "virtual", "06:45")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "woke", entry["msg"])
	assert.Equal(t, "session", entry["component"])
	assert.Equal(t, float64(7), entry["user_id"])
	assert.Equal(t, "06:45", entry["virtual"])
}

func TestSetLevelSharedWithChildren(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Output: &buf})
	child := l.WithComponent("server")

	child.Debug("hidden")
	assert.Zero(t, buf.Len())

	l.SetLevel(LevelDebug)
	child.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Equal(t, LevelDebug, child.GetLevel())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		err  bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
