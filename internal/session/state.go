package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/wanderlust-stays/wanderlust/internal/models"
)

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

type ctxKey struct{}

// State is the per-request view of a session. Mutations mark it dirty and
// are written back before the first byte of the response. All methods are
// safe on a nil *State, which behaves as an empty anonymous session.
type State struct {
	m         *Manager
	rec       *models.Session
	isNew     bool
	dirty     bool
	oldID     string
	committed bool
}

func WithState(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, ctxKey{}, st)
}

func StateFrom(ctx context.Context) *State {
	st, _ := ctx.Value(ctxKey{}).(*State)
	return st
}

func (s *State) ID() string {
	if s == nil {
		return ""
	}
	return s.rec.ID
}

func (s *State) UserID() string {
	if s == nil {
		return ""
	}
	return s.rec.UserID
}

// Login binds userID to the session under a fresh id. The old record is
// deleted at commit.
func (s *State) Login(userID string) {
	if s == nil {
		return
	}
	s.rotate()
	s.rec.UserID = userID
	s.dirty = true
}

func (s *State) Logout() {
	if s == nil {
		return
	}
	s.rotate()
	s.rec.UserID = ""
	s.rec.RedirectURL = ""
	s.dirty = true
}

func (s *State) rotate() {
	if !s.isNew && s.oldID == "" {
		s.oldID = s.rec.ID
	}
	s.rec.ID = uuid.NewString()
}

func (s *State) Flash(kind, msg string) {
	if s == nil {
		return
	}
	if s.rec.Flash == nil {
		s.rec.Flash = map[string][]string{}
	}
	s.rec.Flash[kind] = append(s.rec.Flash[kind], msg)
	s.dirty = true
}

// Flashes removes and returns the queued success and error messages.
func (s *State) Flashes() (success, errs []string) {
	if s == nil || len(s.rec.Flash) == 0 {
		return nil, nil
	}
	success, errs = s.rec.Flash[FlashSuccess], s.rec.Flash[FlashError]
	s.rec.Flash = nil
	s.dirty = true
	return success, errs
}

func (s *State) SetRedirect(url string) {
	if s == nil {
		return
	}
	s.rec.RedirectURL = url
	s.dirty = true
}

// TakeRedirect returns and clears the URL saved by SetRedirect.
func (s *State) TakeRedirect() string {
	if s == nil || s.rec.RedirectURL == "" {
		return ""
	}
	url := s.rec.RedirectURL
	s.rec.RedirectURL = ""
	s.dirty = true
	return url
}

// commit persists the session if it changed, otherwise rolls its expiry
// forward. It runs at most once per request.
func (s *State) commit(ctx context.Context, w http.ResponseWriter) error {
	if s.committed {
		return nil
	}
	s.committed = true

	if s.oldID != "" {
		if err := s.m.Expire(ctx, s.oldID); err != nil {
			s.m.log.WithError(err).Warn("failed to expire rotated session")
		}
	}

	if s.dirty {
		if err := s.m.Save(ctx, s.rec); err != nil {
			return err
		}
		s.m.setCookie(w, s.rec)
		return nil
	}

	if s.isNew {
		return nil
	}
	touched, err := s.m.Touch(ctx, s.rec)
	if err != nil {
		return err
	}
	if touched {
		s.m.setCookie(w, s.rec)
	}
	return nil
}
