package insight

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"mapproperties/internal/insight/metrics"
)

var facings = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

var vastuBase = map[string]int{
	"N": 88, "NE": 95, "E": 90, "SE": 65,
	"S": 60, "SW": 55, "W": 70, "NW": 75,
}

// Seed maps a property id onto [0, 100). It is stable across processes.
func Seed(propertyID string) uint64 {
	return xxhash.Sum64String(propertyID) % 100
}

// Generator derives insights under a fixed rule set. It holds no mutable
// state and is safe for concurrent use.
type Generator struct {
	rules   Rules
	metrics *metrics.Metrics
}

// Option configures a Generator.
type Option func(*Generator)

func WithRules(r Rules) Option {
	return func(g *Generator) {
		g.rules = r
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{rules: DefaultRules()}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Rules returns the generator's rule set.
func (g *Generator) Rules() Rules {
	return g.rules
}

// Generate derives the insight of one property. Every field is a function of
// (propertyID, price, propertyType) except Auction.EndsAt, which is now plus
// the auction duration.
func (g *Generator) Generate(propertyID string, price float64, propertyType string, now time.Time) (Insight, error) {
	in, err := Derive(g.rules, propertyID, price, propertyType, now)
	if err != nil {
		g.metrics.IncrementGenerated("invalid")
		return Insight{}, err
	}
	g.metrics.IncrementGenerated("ok")
	g.metrics.ObserveInvestmentScore(in.InvestmentScore)
	return in, nil
}

// Derive is the pure derivation behind Generate.
func Derive(rules Rules, propertyID string, price float64, propertyType string, now time.Time) (Insight, error) {
	if err := validateInput(rules, propertyID, price); err != nil {
		return Insight{}, err
	}
	hash := xxhash.Sum64String(propertyID)
	seed := hash % 100

	valuation := deriveValuation(rules, price)
	neighborhood := deriveNeighborhood(seed)
	return Insight{
		PropertyID:      propertyID,
		Seed:            seed,
		Valuation:       valuation,
		InvestmentScore: deriveInvestmentScore(rules, price, propertyType),
		Neighborhood:    neighborhood,
		PriceHistory:    derivePriceHistory(rules, price),
		VirtualTour:     deriveVirtualTour(rules, propertyID, price),
		Fractional:      deriveFractional(rules, seed, price, propertyType),
		Auction:         deriveAuction(rules, seed, price, now),
		Orientation:     deriveOrientation(seed),
		Noise:           deriveNoise(neighborhood.Safety),
		Blockchain:      deriveBlockchain(rules, hash, price),
	}, nil
}

// ValidatePrice reports whether the generator can derive insights for price.
func (g *Generator) ValidatePrice(price float64) error {
	return g.rules.ValidatePrice(price)
}

func validateInput(rules Rules, propertyID string, price float64) error {
	if strings.TrimSpace(propertyID) == "" {
		return &ValidationError{Field: "property_id", Reason: "must not be empty"}
	}
	return rules.ValidatePrice(price)
}

// ValidatePrice refuses prices that are not finite and non-negative, and
// prices whose scaled valuations would overflow float64.
func (r Rules) ValidatePrice(price float64) error {
	if math.IsNaN(price) {
		return &ValidationError{Field: "price", Reason: "is NaN"}
	}
	if math.IsInf(price, 0) {
		return &ValidationError{Field: "price", Reason: "is infinite"}
	}
	if price < 0 {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	factor := max(1, r.ValuationMaxFactor, r.AuctionBidRatio)
	for _, f := range r.HistoryFactors {
		factor = max(factor, f)
	}
	// round2 scales by 100 before rounding.
	if math.IsInf(price*factor*100, 0) {
		return &ValidationError{Field: "price", Reason: "valuation overflows"}
	}
	return nil
}

func deriveValuation(rules Rules, price float64) Valuation {
	low := price * rules.ValuationMinFactor
	high := price * rules.ValuationMaxFactor
	return Valuation{
		Min:     round2(low),
		Max:     round2(high),
		Verdict: ValuationVerdict(price, low, high),
	}
}

// ValuationVerdict compares a price against a valuation band. With the band
// derived from the price itself, the result is always VerdictFair.
func ValuationVerdict(price, low, high float64) string {
	switch {
	case price < low:
		return VerdictUnderpriced
	case price > high:
		return VerdictOverpriced
	default:
		return VerdictFair
	}
}

func deriveInvestmentScore(rules Rules, price float64, propertyType string) float64 {
	score := rules.InvestmentBase
	if rules.IsCommercial(propertyType) {
		score += rules.CommercialBonus
	}
	if price < rules.AffordableBelow {
		score += rules.AffordableBonus
	}
	return round1(math.Min(score, rules.InvestmentCap))
}

func deriveNeighborhood(seed uint64) Neighborhood {
	return Neighborhood{
		Walkability: 60 + int(seed%40),
		Safety:      70 + int(seed%30),
		Schools:     2 + int(seed%5),
		Hospitals:   1 + int(seed%3),
		Parks:       1 + int(seed%4),
	}
}

func derivePriceHistory(rules Rules, price float64) []PricePoint {
	labels := [3]string{
		strconv.Itoa(rules.HistoryYear - 2),
		strconv.Itoa(rules.HistoryYear - 1),
		"Current",
	}
	points := make([]PricePoint, len(labels))
	for i, label := range labels {
		points[i] = PricePoint{Label: label, Price: round2(price * rules.HistoryFactors[i])}
	}
	return points
}

func deriveVirtualTour(rules Rules, propertyID string, price float64) VirtualTour {
	if price <= rules.VirtualTourAbove {
		return VirtualTour{}
	}
	return VirtualTour{Available: true, URL: "/tours/" + propertyID}
}

func deriveFractional(rules Rules, seed uint64, price float64, propertyType string) Fractional {
	if !rules.IsCommercial(propertyType) || price <= rules.FractionalAbove || rules.FractionalTokens <= 0 {
		return Fractional{}
	}
	return Fractional{
		Available:   true,
		TokenPrice:  round2(price / float64(rules.FractionalTokens)),
		TotalTokens: rules.FractionalTokens,
		TokensSold:  min(100+int(seed)*5, rules.FractionalTokens),
		YieldRate:   round1(6.0 + float64(seed%30)/10),
	}
}

func deriveAuction(rules Rules, seed uint64, price float64, now time.Time) Auction {
	if rules.AuctionEvery == 0 || seed%rules.AuctionEvery != 0 {
		return Auction{}
	}
	return Auction{
		Active:     true,
		CurrentBid: round2(price * rules.AuctionBidRatio),
		BidCount:   3 + int(seed%15),
		EndsAt:     now.Add(rules.AuctionDuration),
	}
}

func deriveOrientation(seed uint64) Orientation {
	facing := facings[seed%uint64(len(facings))]
	return Orientation{
		Facing:     facing,
		VastuScore: vastuBase[facing] + int(seed%5),
	}
}

func deriveNoise(safety int) Noise {
	db := 90 - safety/2
	level := NoiseBusy
	switch {
	case db < 45:
		level = NoiseQuiet
	case db < 55:
		level = NoiseModerate
	}
	return Noise{Decibels: db, Level: level}
}

func deriveBlockchain(rules Rules, hash uint64, price float64) Blockchain {
	if price <= rules.BlockchainAbove {
		return Blockchain{}
	}
	return Blockchain{Verified: true, ContractRef: fmt.Sprintf("0x%016x", hash)}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
