package handler

import (
	"strings"

	"github.com/google/uuid"

	"mapproperties/internal/favorite"
	"mapproperties/internal/property"
	dErrors "mapproperties/pkg/domain-errors"
)

// AddRequest is the body of POST /favorites/add.
type AddRequest struct {
	PropertyID string `json:"property_id" validate:"required"`
	UserEmail  string `json:"user_email" validate:"required,email"`

	propertyID uuid.UUID
}

func (r *AddRequest) Validate() error {
	id, err := uuid.Parse(strings.TrimSpace(r.PropertyID))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "property_id must be a valid UUID")
	}
	r.propertyID = id
	return nil
}

type FavoriteResponse struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	PropertyID uuid.UUID `json:"property_id"`
}

func toFavoriteResponse(f *favorite.Favorite) *FavoriteResponse {
	return &FavoriteResponse{ID: f.ID, UserID: f.UserID, PropertyID: f.PropertyID}
}

// SummaryResponse is the compact listing returned by GET /favorites/list.
type SummaryResponse struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	PriceFiat    float64   `json:"price_fiat"`
	PropertyType string    `json:"property_type"`
	ImageURLs    []string  `json:"image_urls"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Area         float64   `json:"area"`
	AreaUnit     string    `json:"area_unit"`
}

func toSummaries(props []*property.Property) []*SummaryResponse {
	out := make([]*SummaryResponse, 0, len(props))
	for _, p := range props {
		images := p.ImageURLs
		if images == nil {
			images = []string{}
		}
		out = append(out, &SummaryResponse{
			ID:           p.ID,
			Title:        p.Title,
			PriceFiat:    p.PriceFiat,
			PropertyType: p.PropertyType,
			ImageURLs:    images,
			Latitude:     p.Latitude,
			Longitude:    p.Longitude,
			Area:         p.Area,
			AreaUnit:     p.AreaUnit,
		})
	}
	return out
}

type MessageResponse struct {
	Message string `json:"message"`
}
