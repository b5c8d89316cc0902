// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/wanderlust-stays/wanderlust/internal/models"
	"github.com/wanderlust-stays/wanderlust/internal/store"
)

const (
	usersColl    = "users"
	listingsColl = "listings"
	reviewsColl  = "reviews"
	sessionsColl = "sessions"
)

// codeIllegalOperation is returned by standalone servers that cannot run
// multi-document transactions.
const codeIllegalOperation = 20

type Store struct {
	client   *mongo.Client
	users    *mongo.Collection
	listings *mongo.Collection
	reviews  *mongo.Collection
	sessions *mongo.Collection
}

func New(client *mongo.Client, dbName string) *Store {
	d := client.Database(dbName)
	return &Store{
		client:   client,
		users:    d.Collection(usersColl),
		listings: d.Collection(listingsColl),
		reviews:  d.Collection(reviewsColl),
		sessions: d.Collection(sessionsColl),
	}
}

// EnsureIndexes creates the unique username index, the listing sort index,
// the review lookup index and the TTL index that expires sessions.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.users, mongo.IndexModel{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.listings, mongo.IndexModel{
			Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
		}},
		{s.reviews, mongo.IndexModel{
			Keys: bson.D{{Key: "listing_id", Value: 1}},
		}},
		{s.sessions, mongo.IndexModel{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		}},
	}
	for _, sp := range specs {
		if _, err := sp.coll.Indexes().CreateOne(ctx, sp.model); err != nil {
			return fmt.Errorf("mongostore: index on %s: %w", sp.coll.Name(), err)
		}
	}
	return nil
}

func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, store.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func byID(id string) bson.M { return bson.M{"_id": id} }

// ---------- users ----------

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.users.InsertOne(ctx, u)
	return translate("create user", err)
}

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, byID(id)).Decode(&u); err != nil {
		return nil, translate("user by id", err)
	}
	return &u, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&u); err != nil {
		return nil, translate("user by username", err)
	}
	return &u, nil
}

func (s *Store) UsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, translate("users by ids", err)
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, translate("users by ids", err)
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

// ---------- listings ----------

func (s *Store) CreateListing(ctx context.Context, l *models.Listing) error {
	stampListing(l, time.Now().UTC())
	_, err := s.listings.InsertOne(ctx, l)
	return translate("create listing", err)
}

func stampListing(l *models.Listing, now time.Time) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = l.CreatedAt
	}
}

func (s *Store) ListingByID(ctx context.Context, id string) (*models.Listing, error) {
	var l models.Listing
	if err := s.listings.FindOne(ctx, byID(id)).Decode(&l); err != nil {
		return nil, translate("listing by id", err)
	}
	return &l, nil
}

func (s *Store) UpdateListing(ctx context.Context, l *models.Listing) error {
	l.UpdatedAt = time.Now().UTC()
	res, err := s.listings.UpdateOne(ctx, byID(l.ID), bson.M{"$set": bson.M{
		"title":       l.Title,
		"description": l.Description,
		"image":       l.Image,
		"price":       l.Price,
		"location":    l.Location,
		"country":     l.Country,
		"updated_at":  l.UpdatedAt,
	}})
	if err != nil {
		return translate("update listing", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update listing %s: %w", l.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteListing removes the listing and its reviews in one transaction when
// the deployment supports it. On a standalone server it deletes the reviews
// first so a failure never leaves reviews pointing at a missing listing.
func (s *Store) DeleteListing(ctx context.Context, id string) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return translate("start session", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, s.deleteListing(sc, id)
	})
	if isTransactionUnsupported(err) {
		return s.deleteListing(ctx, id)
	}
	return err
}

func (s *Store) deleteListing(ctx context.Context, id string) error {
	if _, err := s.reviews.DeleteMany(ctx, bson.M{"listing_id": id}); err != nil {
		return translate("delete listing reviews", err)
	}
	res, err := s.listings.DeleteOne(ctx, byID(id))
	if err != nil {
		return translate("delete listing", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete listing %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func isTransactionUnsupported(err error) bool {
	var ce mongo.CommandError
	return errors.As(err, &ce) && ce.Code == codeIllegalOperation
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (s *Store) RecentListings(ctx context.Context, limit int) ([]models.Listing, error) {
	opts := options.Find().SetSort(newestFirst)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return s.findListings(ctx, "recent listings", bson.M{}, opts)
}

func (s *Store) SearchListings(ctx context.Context, query string) ([]models.Listing, error) {
	rx := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{"$or": []bson.M{
		{"title": rx},
		{"location": rx},
		{"country": rx},
	}}
	return s.findListings(ctx, "search listings", filter, options.Find().SetSort(newestFirst))
}

func (s *Store) findListings(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]models.Listing, error) {
	cur, err := s.listings.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(op, err)
	}
	ls := []models.Listing{}
	if err := cur.All(ctx, &ls); err != nil {
		return nil, translate(op, err)
	}
	return ls, nil
}

func (s *Store) InsertListings(ctx context.Context, ls []models.Listing) error {
	if len(ls) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]any, len(ls))
	for i := range ls {
		stampListing(&ls[i], now)
		docs[i] = ls[i]
	}
	_, err := s.listings.InsertMany(ctx, docs)
	return translate("insert listings", err)
}

func (s *Store) DeleteAllListings(ctx context.Context) (int64, error) {
	if _, err := s.reviews.DeleteMany(ctx, bson.M{}); err != nil {
		return 0, translate("delete all reviews", err)
	}
	res, err := s.listings.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, translate("delete all listings", err)
	}
	return res.DeletedCount, nil
}

// ---------- reviews ----------

func (s *Store) CreateReview(ctx context.Context, rv *models.Review) error {
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = time.Now().UTC()
	}
	_, err := s.reviews.InsertOne(ctx, rv)
	return translate("create review", err)
}

func (s *Store) ReviewByID(ctx context.Context, id string) (*models.Review, error) {
	var rv models.Review
	if err := s.reviews.FindOne(ctx, byID(id)).Decode(&rv); err != nil {
		return nil, translate("review by id", err)
	}
	return &rv, nil
}

func (s *Store) ReviewsForListing(ctx context.Context, listingID string) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.reviews.Find(ctx, bson.M{"listing_id": listingID}, opts)
	if err != nil {
		return nil, translate("reviews for listing", err)
	}
	rvs := []models.Review{}
	if err := cur.All(ctx, &rvs); err != nil {
		return nil, translate("reviews for listing", err)
	}
	return rvs, nil
}

func (s *Store) DeleteReview(ctx context.Context, id string) error {
	res, err := s.reviews.DeleteOne(ctx, byID(id))
	if err != nil {
		return translate("delete review", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete review %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// ---------- sessions ----------

func (s *Store) SessionByID(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	if err := s.sessions.FindOne(ctx, byID(id)).Decode(&sess); err != nil {
		return nil, translate("session by id", err)
	}
	return &sess, nil
}

func (s *Store) SaveSession(ctx context.Context, sess *models.Session) error {
	_, err := s.sessions.ReplaceOne(ctx, byID(sess.ID), sess, options.Replace().SetUpsert(true))
	return translate("save session", err)
}

func (s *Store) TouchSession(ctx context.Context, id string, expiresAt, touchedAt time.Time) error {
	res, err := s.sessions.UpdateOne(ctx, byID(id), bson.M{"$set": bson.M{
		"expires_at": expiresAt,
		"touched_at": touchedAt,
	}})
	if err != nil {
		return translate("touch session", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("touch session: %w", store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.sessions.DeleteOne(ctx, byID(id))
	return translate("delete session", err)
}

// DeleteExpiredSessions is normally redundant with the TTL index, whose
// monitor only runs once a minute.
func (s *Store) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.sessions.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": before}})
	if err != nil {
		return 0, translate("delete expired sessions", err)
	}
	return res.DeletedCount, nil
}

// ---------- lifecycle ----------

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ store.Store = (*Store)(nil)
