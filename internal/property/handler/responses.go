package handler

import (
	"math"
	"time"

	"github.com/google/uuid"

	"mapproperties/internal/insight"
	"mapproperties/internal/property"
)

type PropertyResponse struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	PriceFiat    float64   `json:"price_fiat"`
	PropertyType string    `json:"property_type"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Area         float64   `json:"area"`
	AreaUnit     string    `json:"area_unit"`
	ImageURLs    []string  `json:"image_urls"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListingResponse is a property with its derived insight. DistanceKm is only
// set on nearby searches.
type ListingResponse struct {
	PropertyResponse
	DistanceKm *float64         `json:"distance_km,omitempty"`
	Insights   *InsightResponse `json:"insights"`
}

type InsightResponse struct {
	PropertyID      string               `json:"property_id"`
	Valuation       ValuationResponse    `json:"valuation"`
	InvestmentScore float64              `json:"investment_score"`
	Neighborhood    NeighborhoodResponse `json:"neighborhood"`
	PriceHistory    []PricePointResponse `json:"price_history"`
	VirtualTour     VirtualTourResponse  `json:"virtual_tour"`
	Fractional      FractionalResponse   `json:"fractional_ownership"`
	Auction         AuctionResponse      `json:"auction"`
	Orientation     OrientationResponse  `json:"orientation"`
	Noise           NoiseResponse        `json:"noise"`
	Blockchain      BlockchainResponse   `json:"blockchain"`
}

type ValuationResponse struct {
	Min     float64 `json:"ai_valuation_min"`
	Max     float64 `json:"ai_valuation_max"`
	Verdict string  `json:"verdict"`
}

type NeighborhoodResponse struct {
	Walkability int `json:"walkability_score"`
	Safety      int `json:"safety_score"`
	Schools     int `json:"nearby_schools"`
	Hospitals   int `json:"nearby_hospitals"`
	Parks       int `json:"nearby_parks"`
}

type PricePointResponse struct {
	Year  string  `json:"year"`
	Price float64 `json:"price"`
}

type VirtualTourResponse struct {
	Available bool   `json:"available"`
	URL       string `json:"url,omitempty"`
}

type FractionalResponse struct {
	Available   bool    `json:"available"`
	TokenPrice  float64 `json:"token_price"`
	TotalTokens int     `json:"total_tokens"`
	TokensSold  int     `json:"tokens_sold"`
	YieldRate   float64 `json:"rental_yield"`
}

type AuctionResponse struct {
	Active     bool       `json:"active"`
	CurrentBid float64    `json:"current_bid"`
	BidCount   int        `json:"bid_count"`
	EndTime    *time.Time `json:"auction_end_time,omitempty"`
}

type OrientationResponse struct {
	Facing     string `json:"facing"`
	VastuScore int    `json:"vastu_score"`
}

type NoiseResponse struct {
	Decibels int    `json:"decibels"`
	Level    string `json:"level"`
}

type BlockchainResponse struct {
	Verified    bool   `json:"verified"`
	ContractRef string `json:"contract_ref,omitempty"`
}

func toPropertyResponse(p *property.Property) PropertyResponse {
	images := p.ImageURLs
	if images == nil {
		images = []string{}
	}
	return PropertyResponse{
		ID:           p.ID,
		OwnerID:      p.OwnerID,
		Title:        p.Title,
		Description:  p.Description,
		PriceFiat:    p.PriceFiat,
		PropertyType: p.PropertyType,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		Area:         p.Area,
		AreaUnit:     p.AreaUnit,
		ImageURLs:    images,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
	}
}

func toListingResponse(l property.Listing, withDistance bool) *ListingResponse {
	resp := &ListingResponse{
		PropertyResponse: toPropertyResponse(l.Property),
		Insights:         toInsightResponse(l.Insight),
	}
	if withDistance {
		d := math.Round(l.DistanceKm*1000) / 1000
		resp.DistanceKm = &d
	}
	return resp
}

func toListingResponses(ls []property.Listing) []*ListingResponse {
	out := make([]*ListingResponse, 0, len(ls))
	for _, l := range ls {
		out = append(out, toListingResponse(l, true))
	}
	return out
}

func toInsightResponse(in insight.Insight) *InsightResponse {
	history := make([]PricePointResponse, 0, len(in.PriceHistory))
	for _, pt := range in.PriceHistory {
		history = append(history, PricePointResponse{Year: pt.Label, Price: pt.Price})
	}
	auction := AuctionResponse{
		Active:     in.Auction.Active,
		CurrentBid: in.Auction.CurrentBid,
		BidCount:   in.Auction.BidCount,
	}
	if in.Auction.Active {
		end := in.Auction.EndsAt
		auction.EndTime = &end
	}
	return &InsightResponse{
		PropertyID: in.PropertyID,
		Valuation: ValuationResponse{
			Min:     in.Valuation.Min,
			Max:     in.Valuation.Max,
			Verdict: in.Valuation.Verdict,
		},
		InvestmentScore: in.InvestmentScore,
		Neighborhood: NeighborhoodResponse{
			Walkability: in.Neighborhood.Walkability,
			Safety:      in.Neighborhood.Safety,
			Schools:     in.Neighborhood.Schools,
			Hospitals:   in.Neighborhood.Hospitals,
			Parks:       in.Neighborhood.Parks,
		},
		PriceHistory: history,
		VirtualTour: VirtualTourResponse{
			Available: in.VirtualTour.Available,
			URL:       in.VirtualTour.URL,
		},
		Fractional: FractionalResponse{
			Available:   in.Fractional.Available,
			TokenPrice:  in.Fractional.TokenPrice,
			TotalTokens: in.Fractional.TotalTokens,
			TokensSold:  in.Fractional.TokensSold,
			YieldRate:   in.Fractional.YieldRate,
		},
		Auction: auction,
		Orientation: OrientationResponse{
			Facing:     in.Orientation.Facing,
			VastuScore: in.Orientation.VastuScore,
		},
		Noise: NoiseResponse{
			Decibels: in.Noise.Decibels,
			Level:    in.Noise.Level,
		},
		Blockchain: BlockchainResponse{
			Verified:    in.Blockchain.Verified,
			ContractRef: in.Blockchain.ContractRef,
		},
	}
}
