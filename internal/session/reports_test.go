package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/timesetor/internal/store"
	"github.com/sadopc/timesetor/internal/timeengine"
)

func TestDailyAndWeekly(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Wake(f.userID, at(10, 7, 0))
	require.NoError(t, err)

	f.clock.Set(at(10, 7, 30))
	_, err = f.svc.UpdateActivity(f.userID, timeengine.ActivityEntertainment, "")
	require.NoError(t, err)
	f.clock.Set(at(10, 8, 0))
	_, err = f.svc.UpdateActivity(f.userID, timeengine.ActivityRest, "")
	require.NoError(t, err)

	live, err := f.svc.Daily(f.userID, "")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", live.Record.Date)
	assert.Len(t, live.Logs, 2)
	assert.Zero(t, live.RealAwakeHours)

	f.clock.Set(at(10, 10, 0))
	_, err = f.svc.Sleep(f.userID, at(10, 10, 0))
	require.NoError(t, err)

	day, err := f.svc.Daily(f.userID, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, day.Record.Status)
	assert.Len(t, day.Logs, 3)
	assert.Empty(t, day.Pomodoros)
	assert.InDelta(t, 30, day.Stats.Entertainment.RealMinutes, 1e-9)
	assert.InDelta(t, 210, day.Stats.Entertainment.VirtualMinutes, 1e-9)
	assert.InDelta(t, 3, day.RealAwakeHours, 1e-9)

	_, err = f.svc.Daily(f.userID, "2025-03-09")
	assert.ErrorIs(t, err, ErrNoRecord)
	_, err = f.svc.Daily(f.userID, "10/03/2025")
	assert.Error(t, err)

	week, err := f.svc.Weekly(f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, week.Days)
	assert.InDelta(t, 210, week.Totals.Entertainment.VirtualMinutes, 1e-9)
	assert.Equal(t, day.Stats, RecordStats(&week.Records[0]))
}

func TestWeeklyEmpty(t *testing.T) {
	f := newFixture(t)
	week, err := f.svc.Weekly(f.userID)
	require.NoError(t, err)
	assert.Zero(t, week.Days)
	assert.NotNil(t, week.Records)
}

func TestTodayFollowsRunningDay(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Today(f.userID)
	assert.ErrorIs(t, err, ErrNoRecord)

	f.clock.Set(at(10, 22, 0))
	_, err = f.svc.Wake(f.userID, at(10, 22, 0))
	require.NoError(t, err)

	// Past midnight the running day is still today.
	f.clock.Set(at(11, 1, 0))
	rep, err := f.svc.Today(f.userID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", rep.Record.Date)

	_, err = f.svc.Daily(f.userID, "")
	assert.ErrorIs(t, err, ErrNoRecord)
}
