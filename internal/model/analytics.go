package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Aging bucket labels, fixed and non-overlapping. A consignment started
// exactly 30 days ago is still "0-30 days".
const (
	AgeBucket0To30  = "0-30 days"
	AgeBucket31To60 = "31-60 days"
	AgeBucket61To90 = "61-90 days"
	AgeBucket90Plus = "90+ days"
)

// UnknownDealer is used wherever a report row's dealer join is missing.
const UnknownDealer = "Unknown"

// LeaderboardEntry ranks one dealer by invoiced total within the report range
type LeaderboardEntry struct {
	DealerOrgID   string          `json:"dealer_org_id"`
	DealerName    string          `json:"dealer_name"`
	TotalInvoiced decimal.Decimal `json:"total_invoiced"`
}

// AgedInventoryBucket sums unsold consigned value and piece counts for one
// age bracket.
type AgedInventoryBucket struct {
	Bucket          string          `json:"bucket"`
	PiecesRemaining int             `json:"pieces_remaining"`
	RemainingValue  decimal.Decimal `json:"remaining_value"`
	Consignments    int             `json:"consignments"`
}

// SellThroughEntry is the assigned-vs-sold ratio for one dealer
type SellThroughEntry struct {
	DealerOrgID    string  `json:"dealer_org_id"`
	DealerName     string  `json:"dealer_name"`
	PiecesAssigned int     `json:"pieces_assigned"`
	PiecesSold     int     `json:"pieces_sold"`
	Rate           float64 `json:"rate"`
}

// DamageReturnEntry is one damaged or returned sale joined with its item and
// dealer for manual review.
type DamageReturnEntry struct {
	SaleID     string    `json:"sale_id"`
	ItemName   string    `json:"item_name"`
	DealerName string    `json:"dealer_name"`
	Status     string    `json:"status"`
	Quantity   int       `json:"quantity"`
	SoldDate   time.Time `json:"sold_date"`
}

// DashboardSummary is the manufacturer-side overview card set
type DashboardSummary struct {
	TotalConsignedValue decimal.Decimal `json:"total_consigned_value"`
	TotalPiecesAssigned int             `json:"total_pieces_assigned"`
	TotalUnitsSold      int             `json:"total_units_sold"`
	TotalInvoiced       decimal.Decimal `json:"total_invoiced"`
	ActiveDealers       int             `json:"active_dealers"`
}

// ReportRange bounds every analytics query; DealerOrgID narrows the report
// to one dealer when set.
type ReportRange struct {
	From        time.Time
	To          time.Time
	DealerOrgID string
}
