// Package session keeps browser sessions in the data store and binds them to
// a signed cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/wanderlust-stays/wanderlust/internal/metrics"
	"github.com/wanderlust-stays/wanderlust/internal/models"
	"github.com/wanderlust-stays/wanderlust/internal/store"
)

const (
	CookieName        = "session"
	DefaultTTL        = 7 * 24 * time.Hour
	DefaultTouchAfter = 24 * time.Hour
)

type Manager struct {
	store      store.Sessions
	secret     []byte
	ttl        time.Duration
	touchAfter time.Duration
	secure     bool
	now        func() time.Time
	log        *logrus.Logger
}

type Option func(*Manager)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithSecureCookie marks the cookie Secure. Used in production.
func WithSecureCookie(secure bool) Option {
	return func(m *Manager) { m.secure = secure }
}

func WithTTL(ttl, touchAfter time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
		m.touchAfter = touchAfter
	}
}

func NewManager(s store.Sessions, secret string, log *logrus.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:      s,
		secret:     []byte(secret),
		ttl:        DefaultTTL,
		touchAfter: DefaultTouchAfter,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Load returns the live session for id, or nil when it does not exist or has
// expired. Expired records are deleted on the way out.
func (m *Manager) Load(ctx context.Context, id string) (*models.Session, error) {
	rec, err := m.store.SessionByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	if !rec.ExpiresAt.After(m.now()) {
		if err := m.store.DeleteSession(ctx, id); err != nil {
			m.log.WithError(err).WithField("session_id", id).Warn("failed to delete expired session")
		}
		return nil, nil
	}
	return rec, nil
}

// Save writes the whole record and restarts its expiry window.
func (m *Manager) Save(ctx context.Context, rec *models.Session) error {
	now := m.now()
	rec.ExpiresAt = now.Add(m.ttl)
	rec.TouchedAt = now
	if err := m.store.SaveSession(ctx, rec); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Touch extends an unmodified session's expiry, but writes at most once per
// touchAfter window. It reports whether a write happened.
func (m *Manager) Touch(ctx context.Context, rec *models.Session) (bool, error) {
	now := m.now()
	if now.Sub(rec.TouchedAt) < m.touchAfter {
		return false, nil
	}
	expires := now.Add(m.ttl)
	if err := m.store.TouchSession(ctx, rec.ID, expires, now); err != nil {
		return false, fmt.Errorf("session: touch: %w", err)
	}
	rec.ExpiresAt = expires
	rec.TouchedAt = now
	return true, nil
}

func (m *Manager) Expire(ctx context.Context, id string) error {
	if err := m.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("session: expire: %w", err)
	}
	return nil
}

// Sweep deletes every session whose expiry has passed.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	n, err := m.store.DeleteExpiredSessions(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("session: sweep: %w", err)
	}
	metrics.SessionsSwept.Add(float64(n))
	return n, nil
}

// ScheduleSweep registers Sweep on c using a standard cron spec.
func (m *Manager) ScheduleSweep(c *cron.Cron, spec string) error {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		n, err := m.Sweep(ctx)
		if err != nil {
			m.log.WithError(err).Error("session sweep failed")
			return
		}
		if n > 0 {
			m.log.WithField("deleted", n).Info("swept expired sessions")
		}
	})
	return err
}
