package property

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"mapproperties/internal/insight"
	"mapproperties/internal/verification"
	textutil "mapproperties/pkg/platform/strings"
)

// Area units accepted on listings.
const (
	AreaUnitSqft = "sqft"
	AreaUnitSqm  = "sqm"
	AreaUnitAcre = "acre"
)

// Property is a persisted listing. Derived attributes live in insight.Insight
// and are never stored on it.
type Property struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID
	Title        string
	Description  string
	PriceFiat    float64
	PropertyType string
	Latitude     float64
	Longitude    float64
	Area         float64
	AreaUnit     string
	ImageURLs    []string
	Status       verification.Status
	CreatedAt    time.Time
}

// Clone returns a deep copy.
func (p *Property) Clone() *Property {
	if p == nil {
		return nil
	}
	cp := *p
	if p.ImageURLs != nil {
		cp.ImageURLs = append([]string(nil), p.ImageURLs...)
	}
	return &cp
}

// NewProperty is the input to a listing creation.
type NewProperty struct {
	Title        string
	Description  string
	PriceFiat    float64
	PropertyType string
	Latitude     float64
	Longitude    float64
	Area         float64
	AreaUnit     string
	ImageURLs    []string
}

// Normalize trims free text, lower-cases the type and unit and drops
// blank or repeated image URLs.
func (n *NewProperty) Normalize() {
	n.Title = strings.TrimSpace(n.Title)
	n.Description = strings.TrimSpace(n.Description)
	n.PropertyType = textutil.Fold(n.PropertyType)
	n.AreaUnit = textutil.Fold(n.AreaUnit)
	n.ImageURLs = textutil.UniqueTrimmed(n.ImageURLs)
	if n.AreaUnit == "" {
		n.AreaUnit = AreaUnitSqft
	}
}

// ValidCoordinates reports whether lat/lng are finite and in range.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Bounds is a latitude/longitude rectangle. Stores use it as a coarse
// prefilter before the exact distance check.
type Bounds struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Contains reports whether the point lies inside the rectangle, edges included.
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// Listing pairs a property with its derived insight for responses.
type Listing struct {
	Property   *Property
	Insight    insight.Insight
	DistanceKm float64
}
