package view

import "github.com/wanderlust-stays/wanderlust/internal/models"

type HomePage struct {
	Listings []models.Listing
}

type ListingIndexPage struct {
	Query    string
	Listings []models.Listing
}

type ReviewView struct {
	Review models.Review
	Author *models.User
}

type ListingShowPage struct {
	Listing *models.Listing
	Owner   *models.User
	Reviews []ReviewView
}

// ListingFormPage backs both the new and the edit form.
type ListingFormPage struct {
	Listing models.Listing
}
