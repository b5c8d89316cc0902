package middleware_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/sirupsen/logrus"

	"github.com/wanderlust-stays/wanderlust/internal/middleware"
	"github.com/wanderlust-stays/wanderlust/internal/models"
	"github.com/wanderlust-stays/wanderlust/internal/utils"
)

func noop(next http.Handler) http.Handler { return next }

func stage(name string) middleware.Stage {
	return middleware.Stage{Name: name, Wrap: noop}
}

// mockFetcher implements middleware.UserFetcher without any database dependency.
type mockFetcher struct {
	user *models.User
	err  error
}

func (m mockFetcher) Deserialize(context.Context, string) (*models.User, error) {
	return m.user, m.err
}

func recordFail(got *error) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		*got = err
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func TestChain_AcceptsCanonicalOrder(t *testing.T) {
	_, err := middleware.Chain(
		stage(middleware.StageRequestLog),
		stage(middleware.StageMetrics),
		stage(middleware.StageURLEncoded),
		stage(middleware.StageMethodOverride),
		stage(middleware.StageStatic),
		stage(middleware.StageSession),
		stage(middleware.StageFlash),
		stage(middleware.StageCurrentUser),
		stage(middleware.StageRecover),
	)
	if err != nil {
		t.Fatalf("expected canonical order to build, got %v", err)
	}
}

func TestChain_RejectsBadOrder(t *testing.T) {
	cases := map[string][]middleware.Stage{
		"override before parse": {
			stage(middleware.StageMethodOverride),
			stage(middleware.StageURLEncoded),
		},
		"currentuser before session": {
			stage(middleware.StageCurrentUser),
			stage(middleware.StageSession),
		},
		"flash without session": {
			stage(middleware.StageURLEncoded),
			stage(middleware.StageFlash),
		},
		"duplicate": {
			stage(middleware.StageSession),
			stage(middleware.StageSession),
		},
	}
	for name, stages := range cases {
		if _, err := middleware.Chain(stages...); !errors.Is(err, middleware.ErrStageOrder) {
			t.Errorf("%s: expected ErrStageOrder, got %v", name, err)
		}
	}
}

func TestChain_RunsStagesInOrder(t *testing.T) {
	var trace []string
	mark := func(name string) middleware.Stage {
		return middleware.Stage{Name: name, Wrap: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, name)
				next.ServeHTTP(w, r)
			})
		}}
	}

	mw, err := middleware.Chain(mark(middleware.StageURLEncoded), mark(middleware.StageMethodOverride), mark(middleware.StageSession))
	if err != nil {
		t.Fatal(err)
	}
	mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := "urlencoded,methodoverride,session"
	if got := strings.Join(trace, ","); got != want {
		t.Errorf("trace = %s, want %s", got, want)
	}
}

func TestMethodOverride(t *testing.T) {
	var fail error
	stack := middleware.URLEncoded(recordFail(&fail))

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   string
	}{
		{"form field", http.MethodPost, "/listings/1", "_method=DELETE", http.MethodDelete},
		{"query", http.MethodPost, "/listings/1?_method=put", "", http.MethodPut},
		{"patch", http.MethodPost, "/listings/1", "_method=patch", http.MethodPatch},
		{"unsupported", http.MethodPost, "/listings/1", "_method=TRACE", http.MethodPost},
		{"only from POST", http.MethodGet, "/listings/1?_method=DELETE", "", http.MethodGet},
	}
	for _, tt := range tests {
		var got string
		h := stack(middleware.MethodOverride(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Method
		})))
		req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		h.ServeHTTP(httptest.NewRecorder(), req)
		if got != tt.want {
			t.Errorf("%s: method = %s, want %s", tt.name, got, tt.want)
		}
	}
	if fail != nil {
		t.Errorf("unexpected form failure: %v", fail)
	}
}

func TestURLEncodedParsesBody(t *testing.T) {
	var fail error
	var title string
	h := middleware.URLEncoded(recordFail(&fail))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title = r.PostForm.Get("title")
	}))

	form := url.Values{"title": {"Cozy Cabin"}}
	req := httptest.NewRequest(http.MethodPost, "/listings", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if title != "Cozy Cabin" {
		t.Errorf("title = %q", title)
	}
}

func TestStaticServesOnlyPrefix(t *testing.T) {
	fsys := fstest.MapFS{"css/style.css": {Data: []byte("body{}")}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := middleware.Static("/static", fsys)(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/css/style.css", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "body{}" {
		t.Errorf("static: got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/listings", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("non-static path should pass through, got %d", rec.Code)
	}
}

func TestCurrentUser_NoSessionLeavesAnonymous(t *testing.T) {
	var fail error
	user := &models.User{}
	h := middleware.CurrentUser(mockFetcher{user: &models.User{ID: "u1"}}, recordFail(&fail))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user = utils.CurrentUser(r.Context())
		}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if user != nil {
		t.Errorf("expected anonymous request, got %+v", user)
	}
}

func TestRequireLogin_PassesLoggedInUser(t *testing.T) {
	h := middleware.RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/listings/new", nil)
	req = req.WithContext(utils.WithLocals(req.Context(), &utils.Locals{CurrUser: &models.User{ID: "u1"}}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireLogin_RedirectsAnonymous(t *testing.T) {
	h := middleware.RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/listings/new", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestRecover(t *testing.T) {
	var fail error
	h := middleware.Recover(recordFail(&fail))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if fail == nil || !strings.Contains(fail.Error(), "kaboom") {
		t.Errorf("expected panic value in error, got %v", fail)
	}
}

func TestRequestLogRecordsStatus(t *testing.T) {
	log := logrus.New()
	var buf strings.Builder
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	h := middleware.RequestLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "nope")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	out := buf.String()
	if !strings.Contains(out, `"status":404`) || !strings.Contains(out, `"path":"/missing"`) {
		t.Errorf("unexpected log line: %s", out)
	}
}
