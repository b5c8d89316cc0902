package store

import (
	"context"
	"fmt"
	"time"

	"github.com/wanderlust-stays/wanderlust/internal/models"
)

// Unavailable is the store used when the database could not be reached at
// startup. Every call fails with ErrUnavailable so requests fail one by one
// while the process stays up.
type Unavailable struct {
	Cause error
}

func (u Unavailable) err() error {
	return fmt.Errorf("%w: %v", ErrUnavailable, u.Cause)
}

func (u Unavailable) CreateUser(context.Context, *models.User) error { return u.err() }
func (u Unavailable) UserByID(context.Context, string) (*models.User, error) {
	return nil, u.err()
}
func (u Unavailable) UserByUsername(context.Context, string) (*models.User, error) {
	return nil, u.err()
}
func (u Unavailable) UsersByIDs(context.Context, []string) (map[string]*models.User, error) {
	return nil, u.err()
}

func (u Unavailable) CreateListing(context.Context, *models.Listing) error { return u.err() }
func (u Unavailable) ListingByID(context.Context, string) (*models.Listing, error) {
	return nil, u.err()
}
func (u Unavailable) UpdateListing(context.Context, *models.Listing) error { return u.err() }
func (u Unavailable) DeleteListing(context.Context, string) error          { return u.err() }
func (u Unavailable) RecentListings(context.Context, int) ([]models.Listing, error) {
	return nil, u.err()
}
func (u Unavailable) SearchListings(context.Context, string) ([]models.Listing, error) {
	return nil, u.err()
}
func (u Unavailable) InsertListings(context.Context, []models.Listing) error { return u.err() }
func (u Unavailable) DeleteAllListings(context.Context) (int64, error)       { return 0, u.err() }

func (u Unavailable) CreateReview(context.Context, *models.Review) error { return u.err() }
func (u Unavailable) ReviewByID(context.Context, string) (*models.Review, error) {
	return nil, u.err()
}
func (u Unavailable) ReviewsForListing(context.Context, string) ([]models.Review, error) {
	return nil, u.err()
}
func (u Unavailable) DeleteReview(context.Context, string) error { return u.err() }

func (u Unavailable) SessionByID(context.Context, string) (*models.Session, error) {
	return nil, u.err()
}
func (u Unavailable) SaveSession(context.Context, *models.Session) error { return u.err() }
func (u Unavailable) TouchSession(context.Context, string, time.Time, time.Time) error {
	return u.err()
}
func (u Unavailable) DeleteSession(context.Context, string) error { return u.err() }
func (u Unavailable) DeleteExpiredSessions(context.Context, time.Time) (int64, error) {
	return 0, u.err()
}

func (u Unavailable) Ping(context.Context) error  { return u.err() }
func (u Unavailable) Close(context.Context) error { return nil }

var _ Store = Unavailable{}
