// Package seeds loads the sample listings shipped with the app.
package seeds

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/wanderlust-stays/wanderlust/internal/models"
	"github.com/wanderlust-stays/wanderlust/internal/store"
)

//go:embed data/listings.yaml
var listingsYAML []byte

var ErrNoOwner = errors.New("seeds: owner username is required")

type seedListing struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Image       struct {
		URL      string `yaml:"url"`
		Filename string `yaml:"filename"`
	} `yaml:"image"`
	Price    int    `yaml:"price"`
	Location string `yaml:"location"`
	Country  string `yaml:"country"`
}

// Store is what seeding needs from the data store.
type Store interface {
	store.Listings
	store.Users
}

// SampleListings parses the embedded data set.
func SampleListings() ([]models.Listing, error) {
	var raw []seedListing
	if err := yaml.Unmarshal(listingsYAML, &raw); err != nil {
		return nil, fmt.Errorf("seeds: parse listings.yaml: %w", err)
	}

	out := make([]models.Listing, 0, len(raw))
	for i, s := range raw {
		l := models.Listing{
			Title:       s.Title,
			Description: s.Description,
			Image:       models.Image{URL: s.Image.URL, Filename: s.Image.Filename},
			Price:       s.Price,
			Location:    s.Location,
			Country:     s.Country,
		}
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("seeds: listing %d (%q): %w", i, s.Title, err)
		}
		out = append(out, l)
	}
	return out, nil
}

// SeedListings replaces every listing with the sample set, owned by the
// user called owner. It returns how many listings were inserted.
func SeedListings(ctx context.Context, st Store, owner string) (int, error) {
	if owner == "" {
		return 0, ErrNoOwner
	}
	u, err := st.UserByUsername(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("seeds: look up owner %q: %w", owner, err)
	}

	ls, err := SampleListings()
	if err != nil {
		return 0, err
	}

	// Later entries get later timestamps so the file order is the
	// insertion order.
	base := time.Now().UTC().Add(-time.Duration(len(ls)) * time.Second)
	for i := range ls {
		ls[i].OwnerID = u.ID
		ls[i].CreatedAt = base.Add(time.Duration(i) * time.Second)
		ls[i].UpdatedAt = ls[i].CreatedAt
	}

	if _, err := st.DeleteAllListings(ctx); err != nil {
		return 0, fmt.Errorf("seeds: clear listings: %w", err)
	}
	if err := st.InsertListings(ctx, ls); err != nil {
		return 0, fmt.Errorf("seeds: insert listings: %w", err)
	}
	return len(ls), nil
}
