package listings

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wanderlust-stays/wanderlust/internal/apperr"
	"github.com/wanderlust-stays/wanderlust/internal/models"
	"github.com/wanderlust-stays/wanderlust/internal/session"
	"github.com/wanderlust-stays/wanderlust/internal/store"
	"github.com/wanderlust-stays/wanderlust/internal/utils"
	"github.com/wanderlust-stays/wanderlust/internal/view"
	"github.com/wanderlust-stays/wanderlust/internal/web"
)

// HomeLimit is how many listings the home page shows.
const HomeLimit = 8

const (
	MsgCreated  = "New Listing Created!"
	MsgUpdated  = "Listing Updated!"
	MsgDeleted  = "Listing Deleted!"
	MsgNotFound = "Listing you requested for does not exist!"
	MsgNotOwner = "You are not the owner of this listing"
	MsgBadID    = "Invalid listing id"
)

// Store is the slice of the data store the listing pages need.
type Store interface {
	store.Listings
	store.Reviews
	store.Users
}

type Handler struct {
	Store Store
	Views *view.Renderer
	Log   *logrus.Logger
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) error {
	ls, err := h.Store.RecentListings(r.Context(), HomeLimit)
	if err != nil {
		return apperr.Store(err)
	}
	return h.Views.Render(w, r, http.StatusOK, view.PageHome, view.HomePage{Listings: ls})
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) error {
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	var (
		ls  []models.Listing
		err error
	)
	if q != "" {
		ls, err = h.Store.SearchListings(r.Context(), q)
	} else {
		ls, err = h.Store.RecentListings(r.Context(), 0)
	}
	if err != nil {
		return apperr.Store(err)
	}
	return h.Views.Render(w, r, http.StatusOK, view.PageListingIndex, view.ListingIndexPage{Query: q, Listings: ls})
}

func (h *Handler) New(w http.ResponseWriter, r *http.Request) error {
	return h.Views.Render(w, r, http.StatusOK, view.PageListingNew, view.ListingFormPage{})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) error {
	l, err := listingFromForm(r)
	if err != nil {
		return err
	}
	l.OwnerID = utils.CurrentUser(r.Context()).ID

	if err := h.Store.CreateListing(r.Context(), &l); err != nil {
		return apperr.Store(err)
	}
	h.Log.WithFields(logrus.Fields{"listing_id": l.ID, "owner_id": l.OwnerID}).Info("listing created")

	session.StateFrom(r.Context()).Flash(session.FlashSuccess, MsgCreated)
	return web.Redirect(w, r, "/listings")
}

// Show redirects to the index with a flash when the listing is gone, rather
// than rendering a 404.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) error {
	id, err := listingID(r)
	if err != nil {
		return err
	}

	ctx := r.Context()
	l, err := h.Store.ListingByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		session.StateFrom(ctx).Flash(session.FlashError, MsgNotFound)
		return web.Redirect(w, r, "/listings")
	}
	if err != nil {
		return apperr.Store(err)
	}

	rvs, err := h.Store.ReviewsForListing(ctx, id)
	if err != nil {
		return apperr.Store(err)
	}

	ids := []string{l.OwnerID}
	for _, rv := range rvs {
		ids = append(ids, rv.AuthorID)
	}
	users, err := h.Store.UsersByIDs(ctx, ids)
	if err != nil {
		return apperr.Store(err)
	}

	page := view.ListingShowPage{Listing: l, Owner: users[l.OwnerID]}
	for _, rv := range rvs {
		page.Reviews = append(page.Reviews, view.ReviewView{Review: rv, Author: users[rv.AuthorID]})
	}
	return h.Views.Render(w, r, http.StatusOK, view.PageListingShow, page)
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) error {
	l, err := h.ownedListing(r)
	if err != nil {
		return err
	}
	return h.Views.Render(w, r, http.StatusOK, view.PageListingEdit, view.ListingFormPage{Listing: *l})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) error {
	l, err := h.ownedListing(r)
	if err != nil {
		return err
	}
	in, err := listingFromForm(r)
	if err != nil {
		return err
	}

	l.Title = in.Title
	l.Description = in.Description
	l.Price = in.Price
	l.Location = in.Location
	l.Country = in.Country
	// A blank image field keeps the current picture.
	if r.PostForm.Get("image_url") != "" {
		l.Image = in.Image
	}

	if err := h.Store.UpdateListing(r.Context(), l); err != nil {
		return storeErr(err)
	}
	session.StateFrom(r.Context()).Flash(session.FlashSuccess, MsgUpdated)
	return web.Redirect(w, r, "/listings/"+l.ID)
}

func (h *Handler) Destroy(w http.ResponseWriter, r *http.Request) error {
	l, err := h.ownedListing(r)
	if err != nil {
		return err
	}
	if err := h.Store.DeleteListing(r.Context(), l.ID); err != nil {
		return storeErr(err)
	}
	h.Log.WithField("listing_id", l.ID).Info("listing deleted")

	session.StateFrom(r.Context()).Flash(session.FlashSuccess, MsgDeleted)
	return web.Redirect(w, r, "/listings")
}

// ownedListing loads the listing named in the URL and checks that the
// current user owns it.
func (h *Handler) ownedListing(r *http.Request) (*models.Listing, error) {
	id, err := listingID(r)
	if err != nil {
		return nil, err
	}
	l, err := h.Store.ListingByID(r.Context(), id)
	if err != nil {
		return nil, storeErr(err)
	}
	if u := utils.CurrentUser(r.Context()); u == nil || u.ID != l.OwnerID {
		return nil, apperr.Forbidden(MsgNotOwner)
	}
	return l, nil
}

func storeErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(MsgNotFound)
	}
	return apperr.Store(err)
}

func listingID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperr.Validation(MsgBadID)
	}
	return id, nil
}

func listingFromForm(r *http.Request) (models.Listing, error) {
	f := r.PostForm
	l := models.Listing{
		Title:       f.Get("title"),
		Description: f.Get("description"),
		Image:       models.Image{URL: f.Get("image_url")},
		Location:    f.Get("location"),
		Country:     f.Get("country"),
	}
	price, err := strconv.Atoi(strings.TrimSpace(f.Get("price")))
	if err != nil {
		return l, apperr.Validation(models.ErrNegativePrice.Error())
	}
	l.Price = price
	if l.Image.URL != "" {
		l.Image.Filename = "listingimage"
	}
	if err := l.Validate(); err != nil {
		return l, apperr.Validation(err.Error())
	}
	return l, nil
}
