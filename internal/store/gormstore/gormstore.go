// Package gormstore implements store.Store on postgres or sqlite through gorm.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wanderlust-stays/wanderlust/internal/models"
	"github.com/wanderlust-stays/wanderlust/internal/store"
)

type Store struct {
	db *gorm.DB
}

func New(d *gorm.DB) *Store {
	return &Store{db: d}
}

// Migrate creates or updates every table the app needs.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&models.User{}, &models.Listing{}, &models.Review{}, &models.Session{}); err != nil {
		return fmt.Errorf("gormstore: auto-migrate: %w", err)
	}
	return nil
}

func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, store.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ---------- users ----------

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return translate("create user", s.db.WithContext(ctx).Create(u).Error)
}

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate("user by id", err)
	}
	return &u, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "username = ?", username).Error; err != nil {
		return nil, translate("user by username", err)
	}
	return &u, nil
}

func (s *Store) UsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate("users by ids", err)
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

// ---------- listings ----------

func (s *Store) CreateListing(ctx context.Context, l *models.Listing) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return translate("create listing", s.db.WithContext(ctx).Create(l).Error)
}

func (s *Store) ListingByID(ctx context.Context, id string) (*models.Listing, error) {
	var l models.Listing
	if err := s.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, translate("listing by id", err)
	}
	return &l, nil
}

var listingColumns = []string{
	"title", "description", "image_url", "image_filename",
	"price", "location", "country", "updated_at",
}

func (s *Store) UpdateListing(ctx context.Context, l *models.Listing) error {
	l.UpdatedAt = time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&models.Listing{ID: l.ID}).
		Select(listingColumns).
		Updates(l)
	if res.Error != nil {
		return translate("update listing", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update listing %s: %w", l.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteListing(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return translate("delete listing reviews", err)
		}
		res := tx.Delete(&models.Listing{}, "id = ?", id)
		if res.Error != nil {
			return translate("delete listing", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("delete listing %s: %w", id, store.ErrNotFound)
		}
		return nil
	})
}

func (s *Store) RecentListings(ctx context.Context, limit int) ([]models.Listing, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var ls []models.Listing
	if err := q.Find(&ls).Error; err != nil {
		return nil, translate("recent listings", err)
	}
	return ls, nil
}

// SearchListings matches query case-insensitively against title, location
// and country.
func (s *Store) SearchListings(ctx context.Context, query string) ([]models.Listing, error) {
	like := "%" + escapeLike(strings.ToLower(query)) + "%"
	var ls []models.Listing
	err := s.db.WithContext(ctx).
		Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(location) LIKE ? ESCAPE '\' OR LOWER(country) LIKE ? ESCAPE '\'`, like, like, like).
		Order("created_at DESC").Order("id DESC").
		Find(&ls).Error
	if err != nil {
		return nil, translate("search listings", err)
	}
	return ls, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *Store) InsertListings(ctx context.Context, ls []models.Listing) error {
	if len(ls) == 0 {
		return nil
	}
	for i := range ls {
		if ls[i].ID == "" {
			ls[i].ID = uuid.NewString()
		}
	}
	return translate("insert listings", s.db.WithContext(ctx).CreateInBatches(ls, 100).Error)
}

func (s *Store) DeleteAllListings(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Review{}).Error; err != nil {
			return translate("delete all reviews", err)
		}
		res := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Listing{})
		if res.Error != nil {
			return translate("delete all listings", res.Error)
		}
		n = res.RowsAffected
		return nil
	})
	return n, err
}

// ---------- reviews ----------

func (s *Store) CreateReview(ctx context.Context, rv *models.Review) error {
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	return translate("create review", s.db.WithContext(ctx).Create(rv).Error)
}

func (s *Store) ReviewByID(ctx context.Context, id string) (*models.Review, error) {
	var rv models.Review
	if err := s.db.WithContext(ctx).First(&rv, "id = ?", id).Error; err != nil {
		return nil, translate("review by id", err)
	}
	return &rv, nil
}

func (s *Store) ReviewsForListing(ctx context.Context, listingID string) ([]models.Review, error) {
	var rvs []models.Review
	err := s.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at ASC").
		Find(&rvs).Error
	if err != nil {
		return nil, translate("reviews for listing", err)
	}
	return rvs, nil
}

func (s *Store) DeleteReview(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Review{}, "id = ?", id)
	if res.Error != nil {
		return translate("delete review", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete review %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// ---------- sessions ----------

func (s *Store) SessionByID(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	if err := s.db.WithContext(ctx).First(&sess, "id = ?", id).Error; err != nil {
		return nil, translate("session by id", err)
	}
	return &sess, nil
}

func (s *Store) SaveSession(ctx context.Context, sess *models.Session) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(sess).Error
	return translate("save session", err)
}

func (s *Store) TouchSession(ctx context.Context, id string, expiresAt, touchedAt time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", id).
		Updates(map[string]any{"expires_at": expiresAt, "touched_at": touchedAt})
	if res.Error != nil {
		return translate("touch session", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("touch session: %w", store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	return translate("delete session", s.db.WithContext(ctx).Delete(&models.Session{}, "id = ?", id).Error)
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", before).Delete(&models.Session{})
	if res.Error != nil {
		return 0, translate("delete expired sessions", res.Error)
	}
	return res.RowsAffected, nil
}

// ---------- lifecycle ----------

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ store.Store = (*Store)(nil)
