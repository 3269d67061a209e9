// Package deals values award redemptions against cash fares, ranks and
// filters the resulting deals, and derives alerts, price drops and booking
// links from them.
package deals

import (
	"fmt"
	"strings"
	"time"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

// Cabin is a cabin class.
type Cabin string

const (
	CabinEconomy        Cabin = "economy"
	CabinPremiumEconomy Cabin = "premium_economy"
	CabinBusiness       Cabin = "business"
	CabinFirst          Cabin = "first"
)

// Cabins lists every cabin from lowest to highest.
var Cabins = []Cabin{CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst}

// ParseCabin accepts the canonical names plus a few common aliases.
func ParseCabin(s string) (Cabin, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "economy", "coach", "y":
		return CabinEconomy, nil
	case "premium_economy", "premium-economy", "premium", "w":
		return CabinPremiumEconomy, nil
	case "business", "j":
		return CabinBusiness, nil
	case "first", "f":
		return CabinFirst, nil
	}
	return "", fmt.Errorf("%q: %w", s, common.ErrUnknownCabin)
}

// Title renders "Premium Economy".
func (c Cabin) Title() string {
	switch c {
	case CabinPremiumEconomy:
		return "Premium Economy"
	case CabinBusiness:
		return "Business"
	case CabinFirst:
		return "First"
	default:
		return "Economy"
	}
}

// Amenities describes the onboard product.
type Amenities struct {
	WiFi              bool `json:"wifi"`
	LieFlat           bool `json:"lie_flat"`
	DirectAisleAccess bool `json:"direct_aisle_access"`
	LoungeAccess      bool `json:"lounge_access"`
	MealService       bool `json:"meal_service"`
	Entertainment     bool `json:"entertainment"`
}

// Flight is a single flight segment. It is never mutated after creation.
type Flight struct {
	FlightNo        string
	AirlineCode     string
	AirlineName     string
	Origin          string
	Destination     string
	Departure       time.Time
	Arrival         time.Time
	DurationMinutes int
	Aircraft        string
	Stops           int
	Amenities       Amenities
}

// DurationFormatted renders the block time as "11h00m".
func (f Flight) DurationFormatted() string {
	return common.FormatMinutes(f.DurationMinutes)
}

// Award is a bookable seat priced in one program's points.
type Award struct {
	ID             int64
	Flight         Flight
	Program        string
	ProgramName    string
	Miles          int64
	CashFees       float64
	Cabin          Cabin
	BookingClass   string
	IsSaver        bool
	SeatsAvailable int
	Source         string
	ScrapedAt      time.Time
}

// AwardParams carries the fields accepted by NewAward.
type AwardParams struct {
	Flight         Flight
	Program        string
	ProgramName    string
	Miles          int64
	CashFees       float64
	Cabin          Cabin
	BookingClass   string
	IsSaver        bool
	SeatsAvailable int
	Source         string
	ScrapedAt      time.Time
}

// NewAward validates and builds an award. Zero or negative miles are a
// data error, never a free award.
func NewAward(p AwardParams) (*Award, error) {
	a := &Award{
		Flight:         p.Flight,
		Program:        common.NormalizeCode(p.Program),
		ProgramName:    p.ProgramName,
		Miles:          p.Miles,
		CashFees:       p.CashFees,
		Cabin:          p.Cabin,
		BookingClass:   p.BookingClass,
		IsSaver:        p.IsSaver,
		SeatsAvailable: p.SeatsAvailable,
		Source:         p.Source,
		ScrapedAt:      p.ScrapedAt,
	}
	if a.Cabin == "" {
		a.Cabin = CabinEconomy
	}
	if a.ScrapedAt.IsZero() {
		a.ScrapedAt = time.Now()
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks the award invariants.
func (a *Award) Validate() error {
	if a.Miles <= 0 {
		return fmt.Errorf("award %s %s: %w", a.Program, a.Flight.FlightNo, common.ErrInvalidMiles)
	}
	if a.CashFees < 0 {
		return fmt.Errorf("award %s %s: %w", a.Program, a.Flight.FlightNo, common.ErrInvalidFees)
	}
	if _, err := ParseCabin(string(a.Cabin)); err != nil {
		return err
	}
	return nil
}

// TotalCostDescription renders "85,000 miles + $87.50".
func (a *Award) TotalCostDescription() string {
	return fmt.Sprintf("%s miles + $%.2f", common.FormatNumber(a.Miles), a.CashFees)
}

// Deal is the valuation of one award against one cash fare.
type Deal struct {
	ID               int64
	Award            *Award
	CashPrice        float64
	CPP              float64
	IsUnicorn        bool
	TransferableFrom []string
	// YourCost and YourSourceProgram are set only when the portfolio can
	// afford the award; nil means unknown or unaffordable.
	YourCost          *int64
	YourSourceProgram *string
	CreatedAt         time.Time
}

// ValueDollars is the cash value the redemption extracts.
func (d *Deal) ValueDollars() float64 {
	return d.CPP * float64(d.Award.Miles) / 100
}

// SavingsDollars is the cash fare minus the award's cash component.
func (d *Deal) SavingsDollars() float64 {
	return d.CashPrice - d.Award.CashFees
}

// Affordable reports whether the portfolio can fund the award.
func (d *Deal) Affordable() bool {
	return d.YourCost != nil
}
