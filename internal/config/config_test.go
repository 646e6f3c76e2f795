package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/timesetor/internal/timeengine"
)

// ============================================================
// Load
// ============================================================

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMissingWritesSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Time, cfg.Time)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "target_wake_time")

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Time, again.Time)
	assert.Equal(t, cfg.Android, again.Android)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 8080
time:
  target_wake_time: "07:15"
  time_approach_rate: 0.5
  study_curve_type: ease_out
android:
  study_apps: [org.khanacademy.android]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "07:15", cfg.Time.TargetWakeTime)
	assert.Equal(t, 0.5, cfg.Time.ApproachRate)
	assert.Equal(t, timeengine.CurveEaseOut, cfg.Time.StudyCurve)
	// untouched fields keep their defaults
	assert.Equal(t, "23:00", cfg.Time.TargetSleepTime)
	assert.Equal(t, 1.2, cfg.Time.RestSpeed)
	assert.Equal(t, []string{"org.khanacademy.android"}, cfg.Android.StudyApps)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("time:\n  target_sleep_time: \"9pm\"\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target_sleep_time")
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("TIMESETOR_PORT", "9090")
	t.Setenv("TIMESETOR_DB_PATH", "/tmp/x.db")
	t.Setenv("TIMESETOR_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)

	t.Setenv("TIMESETOR_PORT", "high")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestHolderReloadKeepsOldOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)
	h := NewHolder(path, cfg)

	require.NoError(t, os.WriteFile(path, []byte("time:\n  target_wake_time: \"05:00\"\n"), 0o600))
	next, err := h.Reload()
	require.NoError(t, err)
	assert.Equal(t, "05:00", h.Get().Time.TargetWakeTime)
	assert.Equal(t, "06:30", cfg.Time.TargetWakeTime)

	require.NoError(t, os.WriteFile(path, []byte("time: [broken"), 0o600))
	_, err = h.Reload()
	assert.Error(t, err)
	assert.Same(t, next, h.Get())
}

// ============================================================
// Per-user settings
// ============================================================

func TestWithOverrides(t *testing.T) {
	base := timeengine.DefaultConfig()

	cfg, err := WithOverrides(base, map[string]string{
		"target_wake_time":           "05:45",
		"target_entertainment_hours": "1.5",
	})
	require.NoError(t, err)
	assert.Equal(t, "05:45", cfg.TargetWakeTime)
	assert.Equal(t, 1.5, cfg.TargetEntertainmentHours)
	assert.Equal(t, "06:30", base.TargetWakeTime)
}

func TestWithOverridesErrors(t *testing.T) {
	base := timeengine.DefaultConfig()
	for name, settings := range map[string]map[string]string{
		"unknown key": {"theme": "dark"},
		"not a float": {"time_approach_rate": "fast"},
		"invalid":     {"target_wake_time": "24:00"},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := WithOverrides(base, settings)
			assert.Error(t, err)
			assert.Equal(t, base, got)
		})
	}
}

func TestUserDefaultsRoundTrip(t *testing.T) {
	base := timeengine.DefaultConfig()
	cfg, err := WithOverrides(base, UserDefaults(base))
	require.NoError(t, err)
	assert.Equal(t, base, cfg)
	assert.Len(t, UserDefaults(base), len(UserSettingKeys))
}

func TestClassify(t *testing.T) {
	a := AndroidConfig{
		EntertainmentApps: []string{"com.video"},
		StudyApps:         []string{"com.flashcards"},
	}
	assert.Equal(t, timeengine.ActivityStudy, a.Classify("com.flashcards", timeengine.ActivityRest))
	assert.Equal(t, timeengine.ActivityEntertainment, a.Classify("com.video", timeengine.ActivityRest))
	assert.Equal(t, timeengine.ActivityBreak, a.Classify("com.other", timeengine.ActivityBreak))
	assert.Equal(t, timeengine.ActivityRest, a.Classify("", timeengine.ActivityRest))
}
