package insight

import "time"

// Valuation verdicts.
const (
	VerdictUnderpriced = "Underpriced"
	VerdictOverpriced  = "Overpriced"
	VerdictFair        = "Fair Market Price"
)

// Noise levels.
const (
	NoiseQuiet    = "Quiet"
	NoiseModerate = "Moderate"
	NoiseBusy     = "Busy"
)

// Insight is the derived, non-persisted attribute bundle of a property. It is
// recomputed on every read and never written back to the property record.
type Insight struct {
	PropertyID      string
	Seed            uint64
	Valuation       Valuation
	InvestmentScore float64
	Neighborhood    Neighborhood
	PriceHistory    []PricePoint
	VirtualTour     VirtualTour
	Fractional      Fractional
	Auction         Auction
	Orientation     Orientation
	Noise           Noise
	Blockchain      Blockchain
}

type Valuation struct {
	Min     float64
	Max     float64
	Verdict string
}

type Neighborhood struct {
	Walkability int
	Safety      int
	Schools     int
	Hospitals   int
	Parks       int
}

type PricePoint struct {
	Label string
	Price float64
}

type VirtualTour struct {
	Available bool
	URL       string
}

// Fractional holds tokenized ownership terms; all zero when not offered.
type Fractional struct {
	Available   bool
	TokenPrice  float64
	TotalTokens int
	TokensSold  int
	YieldRate   float64
}

// Auction is a synthetic live auction. EndsAt is relative to the call time
// and is the only field of an Insight that is not reproducible.
type Auction struct {
	Active     bool
	CurrentBid float64
	BidCount   int
	EndsAt     time.Time
}

type Orientation struct {
	Facing     string
	VastuScore int
}

type Noise struct {
	Decibels int
	Level    string
}

type Blockchain struct {
	Verified    bool
	ContractRef string
}
