package models

import (
	"errors"
	"strings"
	"time"
)

// DefaultImageURL is shown for listings created without an image.
const DefaultImageURL = "https://images.unsplash.com/photo-1625505826533-5c80aca7d157?auto=format&fit=crop&w=800&q=60"

const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrTitleRequired    = errors.New("Title is required")
	ErrLocationRequired = errors.New("Location is required")
	ErrCountryRequired  = errors.New("Country is required")
	ErrNegativePrice    = errors.New("Price must be a non-negative number")
	ErrRatingRange      = errors.New("Rating must be between 1 and 5")
	ErrCommentRequired  = errors.New("Comment is required")
)

type User struct {
	ID             string    `gorm:"primaryKey" bson:"_id" json:"id"`
	Username       string    `gorm:"uniqueIndex;not null" bson:"username" json:"username"`
	Email          string    `gorm:"not null" bson:"email" json:"email"`
	HashedPassword string    `gorm:"not null" bson:"hashed_password" json:"-"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

type Image struct {
	URL      string `bson:"url" json:"url"`
	Filename string `bson:"filename" json:"filename"`
}

type Listing struct {
	ID          string    `gorm:"primaryKey" bson:"_id" json:"id"`
	Title       string    `gorm:"not null" bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	Image       Image     `gorm:"embedded;embeddedPrefix:image_" bson:"image" json:"image"`
	Price       int       `gorm:"not null;default:0" bson:"price" json:"price"`
	Location    string    `bson:"location" json:"location"`
	Country     string    `bson:"country" json:"country"`
	OwnerID     string    `gorm:"index" bson:"owner_id" json:"owner_id"`
	CreatedAt   time.Time `gorm:"index" bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// Validate trims the free-text fields and checks the listing invariants.
func (l *Listing) Validate() error {
	l.Title = strings.TrimSpace(l.Title)
	l.Location = strings.TrimSpace(l.Location)
	l.Country = strings.TrimSpace(l.Country)
	l.Image.URL = strings.TrimSpace(l.Image.URL)

	switch {
	case l.Title == "":
		return ErrTitleRequired
	case l.Price < 0:
		return ErrNegativePrice
	case l.Location == "":
		return ErrLocationRequired
	case l.Country == "":
		return ErrCountryRequired
	}
	if l.Image.URL == "" {
		l.Image = Image{URL: DefaultImageURL, Filename: "listingimage"}
	}
	return nil
}

type Review struct {
	ID        string    `gorm:"primaryKey" bson:"_id" json:"id"`
	ListingID string    `gorm:"index;not null" bson:"listing_id" json:"listing_id"`
	AuthorID  string    `gorm:"not null" bson:"author_id" json:"author_id"`
	Rating    int       `gorm:"not null;check:chk_review_rating,rating >= 1 AND rating <= 5" bson:"rating" json:"rating"`
	Comment   string    `gorm:"not null" bson:"comment" json:"comment"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (rv *Review) Validate() error {
	rv.Comment = strings.TrimSpace(rv.Comment)
	if rv.Rating < MinRating || rv.Rating > MaxRating {
		return ErrRatingRange
	}
	if rv.Comment == "" {
		return ErrCommentRequired
	}
	return nil
}

// Session is the server-side half of a browser session. UserID is empty for
// anonymous visitors.
type Session struct {
	ID          string              `gorm:"primaryKey" bson:"_id"`
	UserID      string              `gorm:"index" bson:"user_id"`
	Flash       map[string][]string `gorm:"serializer:json" bson:"flash"`
	RedirectURL string              `bson:"redirect_url"`
	ExpiresAt   time.Time           `gorm:"index;not null" bson:"expires_at"`
	TouchedAt   time.Time           `bson:"touched_at"`
}
