package store

import "time"

// DateLayout is the format of DailyRecord.Date.
const DateLayout = "2006-01-02"

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Token is an issued bearer token.
type Token struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Day record statuses.
const (
	StatusPending   = "pending"
	StatusAwake     = "awake"
	StatusCompleted = "completed"
	StatusAbandoned = "abandoned"
)

// DailyRecord is one user-day.
type DailyRecord struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Date   string `json:"date"`

	RealWake            *time.Time `json:"real_wake_time,omitempty"`
	RealSleep           *time.Time `json:"real_sleep_time,omitempty"`
	VirtualWake         *time.Time `json:"virtual_wake_time,omitempty"`
	VirtualSleep        *time.Time `json:"virtual_sleep_time,omitempty"`
	VirtualWakeDisplay  string     `json:"virtual_wake_time_display"`
	VirtualSleepDisplay string     `json:"virtual_sleep_time_display"`
	ExpectedSleep       *time.Time `json:"expected_sleep_time,omitempty"`

	TargetEntertainmentHours float64 `json:"target_entertainment_hours"`
	TargetStudyHours         float64 `json:"target_study_hours"`

	ActualEntertainmentMinutes  float64 `json:"actual_entertainment_minutes"`
	ActualStudyMinutes          float64 `json:"actual_study_minutes"`
	ActualRestMinutes           float64 `json:"actual_rest_minutes"`
	VirtualEntertainmentMinutes float64 `json:"virtual_entertainment_minutes"`
	VirtualStudyMinutes         float64 `json:"virtual_study_minutes"`
	VirtualRestMinutes          float64 `json:"virtual_rest_minutes"`

	EntertainmentMultiplier float64   `json:"entertainment_speed_multiplier"`
	EngineConfig            string    `json:"-"`
	Status                  string    `json:"status"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// Awake reports whether the day has a wake and no sleep yet.
func (r *DailyRecord) Awake() bool {
	return r.RealWake != nil && r.RealSleep == nil
}

// TimeLog is a closed activity interval. RealTimestamp is where the
// interval ended; the interval ran at Speed for Duration seconds.
type TimeLog struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	DailyRecordID      int64     `json:"daily_record_id"`
	RealTimestamp      time.Time `json:"real_timestamp"`
	VirtualTimestamp   time.Time `json:"virtual_timestamp"`
	VirtualTimeDisplay string    `json:"virtual_time_display"`
	Activity           string    `json:"activity_type"`
	NextActivity       string    `json:"next_activity"`
	Speed              float64   `json:"speed_multiplier"`
	DurationSeconds    int64     `json:"duration_seconds"`
	AppName            string    `json:"app_name,omitempty"`
	Notes              string    `json:"notes,omitempty"`
}

// Pomodoro session types and statuses.
const (
	PomodoroWork       = "work"
	PomodoroShortBreak = "short_break"
	PomodoroLongBreak  = "long_break"

	PomodoroRunning   = "running"
	PomodoroCompleted = "completed"
	PomodoroCancelled = "cancelled"
)

type PomodoroSession struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	DailyRecordID  int64      `json:"daily_record_id"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	PlannedMinutes int        `json:"planned_duration_minutes"`
	ActualMinutes  int        `json:"actual_duration_minutes"`
	SessionType    string     `json:"session_type"`
	VirtualStart   *time.Time `json:"virtual_start_time,omitempty"`
	VirtualEnd     *time.Time `json:"virtual_end_time,omitempty"`
	Status         string     `json:"status"`
	Notes          string     `json:"notes,omitempty"`
}

// Summary is a stored AI summary.
type Summary struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Type        string    `json:"summary_type"`
	PeriodStart string    `json:"period_start"`
	PeriodEnd   string    `json:"period_end"`
	Text        string    `json:"summary_text"`
	SourceData  string    `json:"source_data,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Device struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	DeviceID   string    `json:"device_id"`
	Name       string    `json:"device_name"`
	Type       string    `json:"device_type"`
	LastActive time.Time `json:"last_active"`
}

// AppUsage is one foreground app interval reported by a device.
type AppUsage struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	DeviceID        string     `json:"device_id"`
	AppPackage      string     `json:"app_package"`
	AppName         string     `json:"app_name,omitempty"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds int64      `json:"duration_seconds"`
	Activity        string     `json:"activity_type"`
}

type Setting struct {
	Key   string
	Value string
}
