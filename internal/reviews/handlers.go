package reviews

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
	"github.com/wanderlust-stays/wanderlust/internal/web"
)

const (
	MsgCreated         = "New Review Created!"
	MsgDeleted         = "Review Deleted!"
	MsgNotAuthor       = "You are not the author of this review"
	MsgReviewNotFound  = "Review not found"
	MsgListingNotFound = "Listing you requested for does not exist!"
	MsgBadID           = "Invalid id"
)

type Store interface {
	store.Listings
	store.Reviews
}

type Handler struct {
	Store Store
	Log   *logrus.Logger
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) error {
	listingID, err := param(r, "id")
	if err != nil {
		return err
	}
	if _, err := h.Store.ListingByID(r.Context(), listingID); err != nil {
		return notFound(err, MsgListingNotFound)
	}

	rating, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("rating")))
	if err != nil {
		return apperr.Validation(models.ErrRatingRange.Error())
	}
	rv := models.Review{
		ListingID: listingID,
		AuthorID:  utils.CurrentUser(r.Context()).ID,
		Rating:    rating,
		Comment:   r.PostForm.Get("comment"),
	}
	if err := rv.Validate(); err != nil {
		return apperr.Validation(err.Error())
	}

	if err := h.Store.CreateReview(r.Context(), &rv); err != nil {
		return apperr.Store(err)
	}
	h.Log.WithFields(logrus.Fields{"listing_id": listingID, "review_id": rv.ID}).Info("review created")

	session.StateFrom(r.Context()).Flash(session.FlashSuccess, MsgCreated)
	return web.Redirect(w, r, "/listings/"+listingID)
}

// Destroy lets the review's author or the listing's owner remove a review.
func (h *Handler) Destroy(w http.ResponseWriter, r *http.Request) error {
	listingID, err := param(r, "id")
	if err != nil {
		return err
	}
	reviewID, err := param(r, "reviewId")
	if err != nil {
		return err
	}

	ctx := r.Context()
	rv, err := h.Store.ReviewByID(ctx, reviewID)
	if err != nil {
		return notFound(err, MsgReviewNotFound)
	}
	if rv.ListingID != listingID {
		return apperr.NotFound(MsgReviewNotFound)
	}
	l, err := h.Store.ListingByID(ctx, listingID)
	if err != nil {
		return notFound(err, MsgListingNotFound)
	}

	u := utils.CurrentUser(ctx)
	if u == nil || (u.ID != rv.AuthorID && u.ID != l.OwnerID) {
		return apperr.Forbidden(MsgNotAuthor)
	}

	if err := h.Store.DeleteReview(ctx, reviewID); err != nil {
		return notFound(err, MsgReviewNotFound)
	}
	session.StateFrom(ctx).Flash(session.FlashSuccess, MsgDeleted)
	return web.Redirect(w, r, "/listings/"+listingID)
}

func notFound(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return apperr.Store(err)
}

func param(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if _, err := uuid.Parse(v); err != nil {
		return "", apperr.Validation(MsgBadID)
	}
	return v, nil
}
