package middleware

import (
	"errors"
	"fmt"
	"net/http"
)

// Stage is one named step of the request pipeline.
type Stage struct {
	Name string
	Wrap func(http.Handler) http.Handler
}

const (
	StageRecover        = "recover"
	StageRequestLog     = "requestlog"
	StageMetrics        = "metrics"
	StageURLEncoded     = "urlencoded"
	StageMethodOverride = "methodoverride"
	StageStatic         = "static"
	StageSession        = "session"
	StageFlash          = "flash"
	StageCurrentUser    = "currentuser"
)

// order lists the stages whose relative position matters. Each one reads
// state left on the request by the stages before it.
var order = []string{
	StageURLEncoded,
	StageMethodOverride,
	StageStatic,
	StageSession,
	StageFlash,
	StageCurrentUser,
}

var ErrStageOrder = errors.New("middleware: stage out of order")

// Chain composes stages so that stages[0] sees the request first. It refuses
// to build a pipeline that breaks the required order, repeats a stage, or
// runs flash or currentuser without a session before them.
func Chain(stages ...Stage) (func(http.Handler) http.Handler, error) {
	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[name] = i
	}

	seen := map[string]bool{}
	last := -1
	for _, s := range stages {
		if s.Wrap == nil {
			return nil, fmt.Errorf("middleware: stage %q has no handler", s.Name)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: %q appears twice", ErrStageOrder, s.Name)
		}
		seen[s.Name] = true

		r, ordered := rank[s.Name]
		if !ordered {
			continue
		}
		if r < last {
			return nil, fmt.Errorf("%w: %q must run before %q", ErrStageOrder, s.Name, order[last])
		}
		if (s.Name == StageFlash || s.Name == StageCurrentUser) && !seen[StageSession] {
			return nil, fmt.Errorf("%w: %q needs %q first", ErrStageOrder, s.Name, StageSession)
		}
		last = r
	}

	return func(next http.Handler) http.Handler {
		for i := len(stages) - 1; i >= 0; i-- {
			next = stages[i].Wrap(next)
		}
		return next
	}, nil
}
