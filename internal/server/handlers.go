package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sadopc/timesetor/internal/auth"
	"github.com/sadopc/timesetor/internal/config"
	"github.com/sadopc/timesetor/internal/store"
	"github.com/sadopc/timesetor/internal/summary"
	"github.com/sadopc/timesetor/internal/timeengine"
)

// localLayout is accepted for client timestamps without a zone.
const localLayout = "2006-01-02T15:04:05"

// parseClientTime parses an optional RFC 3339 or zone-less timestamp.
// Empty means now.
func (s *Server) parseClientTime(v string) (time.Time, error) {
	if v == "" {
		return s.sessions.Clock().Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(localLayout, v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", v)
	}
	return t, nil
}

func userID(r *http.Request) int64 {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

// ============================================================
// Auth
// ============================================================

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Success   bool              `json:"success"`
	UserID    int64             `json:"user_id"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	Settings  map[string]string `json:"settings,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if _, err := s.auth.Register(req.Username, req.Password); err != nil {
		s.fail(w, r, err)
		return
	}
	sess, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("user registered", "user_id", sess.UserID, "username", sess.Username)
	writeJSON(w, http.StatusCreated, tokenResponse{Success: true, UserID: sess.UserID, Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, auth.ErrWeakInput.Error())
		return
	}
	sess, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	settings, err := s.store.SettingsMap(sess.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		Success:   true,
		UserID:    sess.UserID,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		Settings:  settings,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(auth.TokenFromRequest(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ============================================================
// Settings
// ============================================================

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.SettingsMap(userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// handlePutSettings merges the given settings into the stored ones. The
// merged set must validate; it applies from the user's next wake.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Settings map[string]any `json:"settings"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id := userID(r)
	current, err := s.store.SettingsMap(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	updates := make(map[string]string, len(req.Settings))
	merged := make(map[string]string, len(config.UserSettingKeys))
	for _, k := range config.UserSettingKeys {
		if v, ok := current[k]; ok {
			merged[k] = v
		}
	}
	for k, v := range req.Settings {
		var str string
		switch v := v.(type) {
		case string:
			str = v
		case float64:
			str = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			writeError(w, http.StatusBadRequest, fmt.Sprintf("setting %s: unsupported value", k))
			return
		}
		updates[k] = str
		merged[k] = str
	}
	if _, err := config.WithOverrides(s.cfg.Get().Time, merged); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SetSettings(id, updates); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "settings": merged})
}

// ============================================================
// Time
// ============================================================

func (s *Server) handleWake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WakeTime string `json:"wake_time"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	at, err := s.parseClientTime(req.WakeTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.sessions.Wake(userID(r), at)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSleep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SleepTime string `json:"sleep_time"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	at, err := s.parseClientTime(req.SleepTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.sessions.Sleep(userID(r), at)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMultiplier(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Multiplier *float64 `json:"entertainment_multiplier"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Multiplier == nil {
		writeError(w, http.StatusBadRequest, "entertainment_multiplier is required")
		return
	}
	res, err := s.sessions.SetEntertainmentMultiplier(userID(r), *req.Multiplier)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "activity": res})
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Current(userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ============================================================
// Activity & pomodoro
// ============================================================

type activityRequest struct {
	Activity   string `json:"activity_type"`
	AppName    string `json:"app_name"`
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
	DeviceType string `json:"device_type"`
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	a := timeengine.Activity(req.Activity)
	if a == "" {
		a = timeengine.ActivityRest
	}
	if a == timeengine.ActivitySleep {
		writeError(w, http.StatusBadRequest, "use /api/time/sleep to end the day")
		return
	}

	id := userID(r)
	res, err := s.sessions.UpdateActivity(id, a, req.AppName)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if req.DeviceID != "" {
		now := s.sessions.Clock().Now()
		kind := req.DeviceType
		if kind == "" {
			kind = "android"
		}
		if err := s.store.RegisterDevice(id, req.DeviceID, req.DeviceName, kind, now); err != nil {
			s.log.Warn("register device", "user_id", id, "device_id", req.DeviceID, "error", err)
		} else if req.AppName != "" {
			_, err := s.store.AddAppUsage(store.AppUsage{
				UserID:     id,
				DeviceID:   req.DeviceID,
				AppPackage: req.AppName,
				StartTime:  now,
				Activity:   string(res.Activity),
			})
			if err != nil {
				s.log.Warn("record app usage", "user_id", id, "app", req.AppName, "error", err)
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "activity": res})
}

func (s *Server) handlePomodoroStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Minutes int    `json:"duration_minutes"`
		Type    string `json:"session_type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	switch req.Type {
	case "", store.PomodoroWork, store.PomodoroShortBreak, store.PomodoroLongBreak:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown session type %q", req.Type))
		return
	}
	p, err := s.sessions.StartPomodoro(userID(r), req.Minutes, req.Type)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "session_id": p.ID, "session": p})
}

func (s *Server) handlePomodoroEnd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID int64  `json:"session_id"`
		Minutes   int    `json:"actual_duration_minutes"`
		Status    string `json:"status"`
		Notes     string `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	switch req.Status {
	case "", store.PomodoroCompleted, store.PomodoroCancelled:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", req.Status))
		return
	}
	p, err := s.sessions.EndPomodoro(userID(r), req.SessionID, req.Minutes, req.Status, req.Notes)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "session": p})
}

// ============================================================
// Data & summaries
// ============================================================

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := time.Parse(store.DateLayout, date); err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}
	rep, err := s.sessions.Daily(userID(r), date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	rep, err := s.sessions.Weekly(userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 10
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, 100)
	}
	sums, err := s.store.ListSummaries(userID(r), q.Get("type"), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if sums == nil {
		sums = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": sums})
}

func (s *Server) handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Type == "" {
		req.Type = summary.Daily
	}
	if s.summaries == nil {
		s.fail(w, r, summary.ErrDisabled)
		return
	}
	sum, err := s.summaries.Generate(r.Context(), userID(r), req.Type)
	if errors.Is(err, summary.ErrEmpty) {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "summary": sum})
}

// ============================================================
// Config & health
// ============================================================

// handleConfig returns the client-relevant configuration with the user's
// settings applied. Secrets never leave the server.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.cfg.Get()
	writeJSON(w, http.StatusOK, map[string]any{
		"time":     s.sessions.UserConfig(userID(r)),
		"pomodoro": cfg.Pomodoro,
		"android": map[string][]string{
			"entertainment_apps": cfg.Android.EntertainmentApps,
			"study_apps":         cfg.Android.StudyApps,
		},
		"ai_enabled": s.summaries != nil && s.summaries.Enabled(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := s.sessions.Clock().Now()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"timestamp":      now,
		"uptime":         now.Sub(s.started).Round(time.Second).String(),
		"active_engines": s.sessions.ActiveEngines(),
	})
}
