// Package view renders the server-side HTML pages. Templates and static
// assets are embedded in the binary.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/wanderlust-stays/wanderlust/internal/models"
	"github.com/wanderlust-stays/wanderlust/internal/utils"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names accepted by Render.
const (
	PageHome         = "home"
	PageListingIndex = "listings/index"
	PageListingShow  = "listings/show"
	PageListingNew   = "listings/new"
	PageListingEdit  = "listings/edit"
	PageSignup       = "users/signup"
	PageLogin        = "users/login"
	PageError        = "error"
)

var pages = []string{
	PageHome, PageListingIndex, PageListingShow, PageListingNew,
	PageListingEdit, PageSignup, PageLogin, PageError,
}

// Static returns the asset tree served under /static.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

type Renderer struct {
	tmpl     map[string]*template.Template
	mapToken string
}

// data is what every template receives. Page holds the handler's own struct.
type data struct {
	Success  []string
	Error    []string
	CurrUser *models.User
	MapToken string
	Page     any
}

func New(mapToken string) (*Renderer, error) {
	r := &Renderer{tmpl: map[string]*template.Template{}, mapToken: mapToken}
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout/*.html",
			"templates/includes/*.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("view: parse %s: %w", name, err)
		}
		r.tmpl[name] = t
	}
	return r, nil
}

// Render executes page into a buffer and only then writes status and body,
// so a template failure leaves the response untouched for the caller to
// report. Flash messages are drained here.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, page any) error {
	t, ok := v.tmpl[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}

	locals := utils.LocalsFrom(r.Context())
	success, errs := locals.Flashes()
	d := data{
		Success:  success,
		Error:    errs,
		CurrUser: utils.CurrentUser(r.Context()),
		MapToken: v.mapToken,
		Page:     page,
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", d); err != nil {
		return fmt.Errorf("view: execute %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// ErrorPage is the payload of PageError.
type ErrorPage struct {
	StatusCode int
	Message    string
}

func isOwner(u *models.User, ownerID string) bool {
	return u != nil && u.ID == ownerID
}

func stars(n int) string {
	if n < 0 {
		n = 0
	}
	if n > models.MaxRating {
		n = models.MaxRating
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", models.MaxRating-n)
}
