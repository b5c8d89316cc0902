package session

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderlust-stays/wanderlust/internal/models"
	"github.com/wanderlust-stays/wanderlust/internal/store"
)

type memSessions struct {
	mu      sync.Mutex
	records map[string]models.Session
	writes  int
}

func newMemSessions() *memSessions {
	return &memSessions{records: map[string]models.Session{}}
}

func (m *memSessions) SessionByID(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &rec, nil
}

func (m *memSessions) SaveSession(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[s.ID] = *s
	m.writes++
	return nil
}

func (m *memSessions) TouchSession(_ context.Context, id string, expiresAt, touchedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return store.ErrNotFound
	}
	rec.ExpiresAt, rec.TouchedAt = expiresAt, touchedAt
	m.records[id] = rec
	m.writes++
	return nil
}

func (m *memSessions) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *memSessions) DeleteExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rec := range m.records {
		if !rec.ExpiresAt.After(before) {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func quietLog() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func failTest(t *testing.T) func(http.ResponseWriter, *http.Request, error) {
	return func(_ http.ResponseWriter, _ *http.Request, err error) {
		t.Fatalf("unexpected session failure: %v", err)
	}
}

func newTestManager(mem *memSessions, c *clock) *Manager {
	return NewManager(mem, "test-secret", quietLog(), WithClock(c.now))
}

func TestLoadMissingAndExpired(t *testing.T) {
	mem := newMemSessions()
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newTestManager(mem, c)
	ctx := context.Background()

	rec, err := m.Load(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, m.Save(ctx, &models.Session{ID: "s1", UserID: "u1"}))
	rec, err = m.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, c.t.Add(DefaultTTL), rec.ExpiresAt)

	c.advance(DefaultTTL)
	rec, err = m.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, rec, "session at its expiry instant is gone")
	_, ok := mem.records["s1"]
	assert.False(t, ok, "expired record is deleted lazily")
}

func TestTouchWritesAtMostOncePerWindow(t *testing.T) {
	mem := newMemSessions()
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newTestManager(mem, c)
	ctx := context.Background()

	rec := &models.Session{ID: "s1"}
	require.NoError(t, m.Save(ctx, rec))
	writes := mem.writes

	c.advance(23 * time.Hour)
	touched, err := m.Touch(ctx, rec)
	require.NoError(t, err)
	assert.False(t, touched)
	assert.Equal(t, writes, mem.writes)

	c.advance(time.Hour)
	touched, err = m.Touch(ctx, rec)
	require.NoError(t, err)
	assert.True(t, touched)
	assert.Equal(t, writes+1, mem.writes)
	assert.Equal(t, c.t.Add(DefaultTTL), mem.records["s1"].ExpiresAt)
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	mem := newMemSessions()
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newTestManager(mem, c)
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, &models.Session{ID: "old"}))
	c.advance(3 * 24 * time.Hour)
	require.NoError(t, m.Save(ctx, &models.Session{ID: "fresh"}))
	c.advance(5 * 24 * time.Hour)

	n, err := m.Sweep(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, ok := mem.records["fresh"]
	assert.True(t, ok)
}

func TestSignedCookieRejectsTampering(t *testing.T) {
	m := newTestManager(newMemSessions(), &clock{t: time.Now()})

	v := m.sign("abc")
	id, ok := m.verify(v)
	require.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = m.verify("abd" + v[3:])
	assert.False(t, ok)
	_, ok = m.verify("abc")
	assert.False(t, ok)

	other := NewManager(newMemSessions(), "other-secret", quietLog())
	_, ok = other.verify(v)
	assert.False(t, ok)
}

func TestMiddlewareSkipsUnmodifiedAnonymousSession(t *testing.T) {
	mem := newMemSessions()
	m := newTestManager(mem, &clock{t: time.Now().UTC()})

	h := m.Middleware(failTest(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, StateFrom(r.Context()).UserID())
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Empty(t, rr.Result().Cookies())
	assert.Empty(t, mem.records)
}

func TestMiddlewareCommitsFlashBeforeResponse(t *testing.T) {
	mem := newMemSessions()
	m := newTestManager(mem, &clock{t: time.Now().UTC()})

	write := m.Middleware(failTest(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		StateFrom(r.Context()).Flash(FlashSuccess, "Listing Deleted!")
		http.Redirect(w, r, "/listings", http.StatusSeeOther)
	}))

	rr := httptest.NewRecorder()
	write.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/listings/1", nil))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, int(DefaultTTL.Seconds()), c.MaxAge)
	require.Len(t, mem.records, 1)

	var got []string
	read := m.Middleware(failTest(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = StateFrom(r.Context()).Flashes()
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/listings", nil)
		req.AddCookie(c)
		read.ServeHTTP(httptest.NewRecorder(), req)
		if i == 0 {
			assert.Equal(t, []string{"Listing Deleted!"}, got)
		} else {
			assert.Empty(t, got, "flash is shown exactly once")
		}
	}
}

func TestLoginRotatesSessionID(t *testing.T) {
	mem := newMemSessions()
	m := newTestManager(mem, &clock{t: time.Now().UTC()})
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, &models.Session{ID: "before", RedirectURL: "/listings/new"}))
	cookie := &http.Cookie{Name: CookieName, Value: m.sign("before")}

	var redirect string
	h := m.Middleware(failTest(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := StateFrom(r.Context())
		redirect = st.TakeRedirect()
		st.Login("user-1")
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "/listings/new", redirect)
	_, ok := mem.records["before"]
	assert.False(t, ok, "pre-login session is expired")
	require.Len(t, mem.records, 1)
	for id, rec := range mem.records {
		assert.NotEqual(t, "before", id)
		assert.Equal(t, "user-1", rec.UserID)
		assert.Empty(t, rec.RedirectURL)
	}

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, cookie.Value, cookies[0].Value)
}

func TestNilStateIsSafe(t *testing.T) {
	var st *State
	st.Flash(FlashError, "x")
	st.Login("u")
	s, e := st.Flashes()
	assert.Nil(t, s)
	assert.Nil(t, e)
	assert.Empty(t, st.UserID())
	assert.Empty(t, st.TakeRedirect())
}
