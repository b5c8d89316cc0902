package view

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderlust-stays/wanderlust/internal/models"
	"github.com/wanderlust-stays/wanderlust/internal/utils"
)

type staticFlash struct{ success, errs []string }

func (s staticFlash) Flashes() ([]string, []string) { return s.success, s.errs }

func TestAllPagesParse(t *testing.T) {
	r, err := New("tok")
	require.NoError(t, err)
	assert.Len(t, r.tmpl, len(pages))
}

func TestRenderHomeFormatsPriceAndFlash(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)

	locals := &utils.Locals{CurrUser: &models.User{ID: "u1", Username: "ana"}}
	locals.SetFlashSource(staticFlash{success: []string{"Welcome back to Wanderlust!"}})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(utils.WithLocals(req.Context(), locals))

	rr := httptest.NewRecorder()
	page := HomePage{Listings: []models.Listing{
		{ID: "a", Title: "Cabin", Price: 1200, Image: models.Image{URL: "https://img.example/a.jpg"}},
		{ID: "b", Title: "Loft", Price: 80},
	}}
	require.NoError(t, r.Render(rr, req, http.StatusOK, PageHome, page))

	body := rr.Body.String()
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, strings.Count(body, "data-listing-id="))
	assert.Contains(t, body, "1,200")
	assert.Contains(t, body, "Welcome back to Wanderlust!")
	assert.Contains(t, body, `data-current-user="ana"`)
}

func TestRenderErrorPage(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	require.NoError(t, r.Render(rr, req, http.StatusNotFound, PageError, ErrorPage{StatusCode: 404, Message: "Page not found!"}))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Page not found!")
	assert.Contains(t, rr.Body.String(), "Log in")
}

func TestRenderUnknownPageWritesNothing(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = r.Render(rr, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "missing", nil)
	assert.Error(t, err)
	assert.Zero(t, rr.Body.Len())
}

func TestStaticAssetsEmbedded(t *testing.T) {
	f, err := Static().Open("css/style.css")
	require.NoError(t, err)
	defer f.Close()
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Contains(t, string(b), ".listing-card")
}

func TestStars(t *testing.T) {
	assert.Equal(t, "★★★☆☆", stars(3))
	assert.Equal(t, "★★★★★", stars(9))
}
