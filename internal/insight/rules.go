package insight

import (
	"strings"
	"time"
)

// Rules holds every threshold and factor the generator applies.
type Rules struct {
	ValuationMinFactor float64
	ValuationMaxFactor float64

	InvestmentBase  float64
	CommercialBonus float64
	AffordableBonus float64
	InvestmentCap   float64

	// CommercialTypes is the privileged property type set, matched case-insensitively.
	CommercialTypes []string

	AffordableBelow  float64
	VirtualTourAbove float64
	FractionalAbove  float64
	FractionalTokens int
	BlockchainAbove  float64

	// AuctionEvery selects seeds with seed%AuctionEvery == 0. Zero disables auctions.
	AuctionEvery    uint64
	AuctionDuration time.Duration
	AuctionBidRatio float64

	HistoryFactors [3]float64
	// HistoryYear is the current year. Points are labeled Year-2, Year-1 and "Current".
	HistoryYear int
}

// DefaultRules returns the production rule set.
func DefaultRules() Rules {
	return Rules{
		ValuationMinFactor: 0.90,
		ValuationMaxFactor: 1.15,

		InvestmentBase:  7.0,
		CommercialBonus: 1.5,
		AffordableBonus: 1.0,
		InvestmentCap:   10.0,

		CommercialTypes: []string{"Commercial", "Plot"},

		AffordableBelow:  5_000_000,
		VirtualTourAbove: 5_000_000,
		FractionalAbove:  10_000_000,
		FractionalTokens: 1000,
		BlockchainAbove:  20_000_000,

		AuctionEvery:    5,
		AuctionDuration: 48 * time.Hour,
		AuctionBidRatio: 0.95,

		HistoryFactors: [3]float64{0.85, 0.92, 1.00},
		HistoryYear:    2025,
	}
}

// IsCommercial reports whether propertyType is in the privileged set.
func (r Rules) IsCommercial(propertyType string) bool {
	propertyType = strings.TrimSpace(propertyType)
	for _, t := range r.CommercialTypes {
		if strings.EqualFold(t, propertyType) {
			return true
		}
	}
	return false
}
