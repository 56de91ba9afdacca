package handler

import (
	"mapproperties/internal/property"
	dErrors "mapproperties/pkg/domain-errors"
)

// CreatePropertyRequest is the body of POST /properties. The web client
// sends the price as "price"; "price_fiat" is accepted too.
type CreatePropertyRequest struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Description  string   `json:"description" validate:"max=5000"`
	Price        *float64 `json:"price"`
	PriceFiat    *float64 `json:"price_fiat"`
	PropertyType string   `json:"property_type" validate:"max=32"`
	Latitude     *float64 `json:"latitude" validate:"required"`
	Longitude    *float64 `json:"longitude" validate:"required"`
	Area         float64  `json:"area" validate:"gte=0"`
	AreaUnit     string   `json:"area_unit" validate:"max=8"`
	ImageURLs    []string `json:"image_urls" validate:"max=20,dive,url"`

	price float64
}

func (r *CreatePropertyRequest) Validate() error {
	switch {
	case r.PriceFiat != nil:
		r.price = *r.PriceFiat
	case r.Price != nil:
		r.price = *r.Price
	default:
		return dErrors.New(dErrors.CodeValidation, "price is required")
	}
	return nil
}

func (r *CreatePropertyRequest) ToNewProperty() property.NewProperty {
	return property.NewProperty{
		Title:        r.Title,
		Description:  r.Description,
		PriceFiat:    r.price,
		PropertyType: r.PropertyType,
		Latitude:     *r.Latitude,
		Longitude:    *r.Longitude,
		Area:         r.Area,
		AreaUnit:     r.AreaUnit,
		ImageURLs:    r.ImageURLs,
	}
}
