package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConsignmentStatus enum constants
const (
	ConsignmentActive    = "active"
	ConsignmentCompleted = "completed"
	ConsignmentCancelled = "cancelled"
)

// Consignment is a batch of inventory placed with a dealer. The manufacturer
// owns the pieces until they are sold against a line.
type Consignment struct {
	ID                uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DealerOrgID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"dealer_org_id"`
	DealerOrg         *Organization     `gorm:"foreignKey:DealerOrgID;constraint:-" json:"dealer_org,omitempty"`
	ManufacturerOrgID uuid.UUID         `gorm:"type:uuid;not null;index" json:"manufacturer_org_id"`
	ManufacturerOrg   *Organization     `gorm:"foreignKey:ManufacturerOrgID;constraint:-" json:"manufacturer_org,omitempty"`
	StartDate         time.Time         `gorm:"type:date;not null;index" json:"start_date"`
	EndDate           *time.Time        `gorm:"type:date" json:"end_date"`
	Status            string            `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Lines             []ConsignmentLine `gorm:"foreignKey:ConsignmentID" json:"lines"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// ConsignmentLine is the per-item breakdown of a consignment.
// Invariant: 0 <= PiecesRemaining <= PiecesAssigned.
// DealerPrice is snapshotted from the catalog at line creation and is never
// re-read, so later catalog price changes cannot alter consigned value.
type ConsignmentLine struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ConsignmentID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"consignment_id"`
	ItemID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	Item            *CatalogItem    `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	PiecesAssigned  int             `gorm:"type:int;not null" json:"pieces_assigned"`
	PiecesRemaining int             `gorm:"type:int;not null" json:"pieces_remaining"`
	DealerPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"dealer_price"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
