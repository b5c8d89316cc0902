package utils

import (
	"context"

	"github.com/wanderlust-stays/wanderlust/internal/models"
)

type contextKey string

const (
	ContextUserIDKey contextKey = "userID"
	contextLocalsKey contextKey = "locals"
)

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID := ctx.Value(ContextUserIDKey)
	userIDStr, ok := userID.(string)
	return userIDStr, ok
}

// FlashSource hands over queued flash messages, removing them.
type FlashSource interface {
	Flashes() (success, errs []string)
}

// Locals is the request-scoped data every rendered view can see.
type Locals struct {
	CurrUser *models.User

	flash   FlashSource
	drained bool
	success []string
	errs    []string
}

func (l *Locals) SetFlashSource(src FlashSource) {
	l.flash = src
}

// Flashes drains the flash source on first call and returns the same
// messages on later calls within the request.
func (l *Locals) Flashes() (success, errs []string) {
	if l == nil {
		return nil, nil
	}
	if !l.drained && l.flash != nil {
		l.success, l.errs = l.flash.Flashes()
		l.drained = true
	}
	return l.success, l.errs
}

func WithLocals(ctx context.Context, l *Locals) context.Context {
	return context.WithValue(ctx, contextLocalsKey, l)
}

func LocalsFrom(ctx context.Context) *Locals {
	l, _ := ctx.Value(contextLocalsKey).(*Locals)
	return l
}

func CurrentUser(ctx context.Context) *models.User {
	if l := LocalsFrom(ctx); l != nil {
		return l.CurrUser
	}
	return nil
}
