// Package portfolio keeps the user's points balances and resolves how to
// fund a redemption in a target program, directly or through transfer
// partners.
package portfolio

import "time"

// DirectRedemption labels a program whose best use is its own award chart.
const DirectRedemption = "Direct redemption"

// DefaultCPP is the valuation used for programs missing from the table.
const DefaultCPP = 1.0

// Program is one loyalty currency the user holds.
type Program struct {
	Code          string    `db:"code"`
	Name          string    `db:"name"`
	Balance       int64     `db:"balance"`
	TransferRatio float64   `db:"transfer_ratio"` // informational default, the graph is authoritative
	UpdatedAt     time.Time `db:"updated_at"`
}

// PartnerRatio is one outgoing transfer edge as configured.
type PartnerRatio struct {
	Partner string
	Ratio   float64 // target points received per source point
}

// TransferRule lists every partner a source currency can move points to.
type TransferRule struct {
	Source   string
	Partners []PartnerRatio
}

// TransferPath is one candidate way to fund PointsNeeded in the target.
type TransferPath struct {
	SourceProgram   string
	SourceName      string
	TargetProgram   string
	TargetName      string
	Ratio           float64
	PointsNeeded    int64
	PointsAvailable int64
	IsDirect        bool
}

// CanAfford reports whether the source balance covers the transfer.
func (p TransferPath) CanAfford() bool {
	return p.PointsAvailable >= p.PointsNeeded
}

// PointsAfterTransfer is what lands in the target program.
func (p TransferPath) PointsAfterTransfer() int64 {
	return int64(float64(p.PointsNeeded) * p.Ratio)
}

// Shortfall is how many more source points are required, 0 when affordable.
func (p TransferPath) Shortfall() int64 {
	if p.CanAfford() {
		return 0
	}
	return p.PointsNeeded - p.PointsAvailable
}

// BestUse is the highest-value redemption found for one program.
type BestUse struct {
	Description string
	CPP         float64
	Via         []string // partner chain, empty for direct redemption
}

// Summary is the aggregate view of the portfolio.
type Summary struct {
	TotalPoints         int64
	TotalEstimatedValue float64
	Programs            []Program
	BestValues          map[string]BestUse
}
