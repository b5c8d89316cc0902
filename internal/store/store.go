// Package store declares the persistence contract shared by the relational
// (gormstore) and document (mongostore) backends.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/wanderlust-stays/wanderlust/internal/models"
)

var (
	ErrNotFound    = errors.New("store: not found")
	ErrDuplicate   = errors.New("store: duplicate key")
	ErrUnavailable = errors.New("store: unavailable")
)

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

type Listings interface {
	CreateListing(ctx context.Context, l *models.Listing) error
	ListingByID(ctx context.Context, id string) (*models.Listing, error)
	UpdateListing(ctx context.Context, l *models.Listing) error
	// DeleteListing removes the listing together with every review of it.
	DeleteListing(ctx context.Context, id string) error
	// RecentListings returns listings newest first (created_at, then id,
	// descending). A limit <= 0 returns all of them.
	RecentListings(ctx context.Context, limit int) ([]models.Listing, error)
	SearchListings(ctx context.Context, query string) ([]models.Listing, error)
	InsertListings(ctx context.Context, ls []models.Listing) error
	// DeleteAllListings empties the listings collection and the reviews that
	// pointed into it.
	DeleteAllListings(ctx context.Context) (int64, error)
}

type Reviews interface {
	CreateReview(ctx context.Context, rv *models.Review) error
	ReviewByID(ctx context.Context, id string) (*models.Review, error)
	ReviewsForListing(ctx context.Context, listingID string) ([]models.Review, error)
	DeleteReview(ctx context.Context, id string) error
}

type Sessions interface {
	SessionByID(ctx context.Context, id string) (*models.Session, error)
	// SaveSession inserts or fully replaces the record.
	SaveSession(ctx context.Context, s *models.Session) error
	TouchSession(ctx context.Context, id string, expiresAt, touchedAt time.Time) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

type Store interface {
	Users
	Listings
	Reviews
	Sessions
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
