package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sadopc/timesetor/internal/clock"
	"github.com/sadopc/timesetor/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store, *clock.MockClock) {
	t.Helper()
	st, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clk := clock.NewMockClock(time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC))
	svc := NewService(st, clk, Options{
		BcryptCost:  bcrypt.MinCost,
		TokenExpiry: time.Hour,
		Defaults:    func() map[string]string { return map[string]string{"entertainment_multiplier": "7.0"} },
	})
	return svc, st, clk
}

func TestRegisterHashesAndSeedsSettings(t *testing.T) {
	svc, st, _ := newTestService(t)

	u, err := svc.Register("  ada ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)
	assert.NotEqual(t, "hunter22", u.PasswordHash)

	v, err := st.GetSetting(u.ID, "entertainment_multiplier")
	require.NoError(t, err)
	assert.Equal(t, "7.0", v)

	_, err = svc.Register("ada", "other")
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = svc.Register("", "x")
	assert.ErrorIs(t, err, ErrWeakInput)
}

func TestLoginAndVerify(t *testing.T) {
	svc, _, clk := newTestService(t)
	u, err := svc.Register("ada", "hunter22")
	require.NoError(t, err)

	_, err = svc.Login("ada", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login("nobody", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err := svc.Login("ada", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.UserID)
	assert.Equal(t, clk.Now().Add(time.Hour), sess.ExpiresAt)

	id, err := svc.Verify(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, err = svc.Verify("bogus")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	clk.Advance(2 * time.Hour)
	_, err = svc.Verify(sess.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	n, err := svc.Prune()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLogout(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Register("ada", "hunter22")
	require.NoError(t, err)
	sess, err := svc.Login("ada", "hunter22")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(sess.Token))
	_, err = svc.Verify(sess.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireAuth(t *testing.T) {
	svc, _, _ := newTestService(t)
	u, err := svc.Register("ada", "hunter22")
	require.NoError(t, err)
	sess, err := svc.Login("ada", "hunter22")
	require.NoError(t, err)

	var seen int64
	h := NewMiddleware(svc).RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/time/current", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/time/current", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, u.ID, seen)

	seen = 0
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/time/stream?token="+sess.Token, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, u.ID, seen)
}
