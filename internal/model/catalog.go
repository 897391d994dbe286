package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogItem is the authoritative price/name reference for a saleable stone
// item. Cost <= DealerPrice <= MSRP is the expected ordering but is not
// enforced at write time.
type CatalogItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	ItemNumber  string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"item_number"`
	Cost        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"cost"`
	DealerPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"dealer_price"`
	MSRP        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"msrp"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// InventoryLot tracks manufacturer-side received stock before it is
// consigned out: one row per physical batch/package.
type InventoryLot struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BatchNumber     string    `gorm:"type:varchar(100);not null" json:"batch_number"`
	ShadeNumber     string    `gorm:"type:varchar(100);not null" json:"shade_number"`
	PackageNumber   string    `gorm:"type:varchar(100);not null" json:"package_number"`
	ReceivedDate    time.Time `gorm:"type:date;not null;index" json:"received_date"`
	PiecesReceived  int       `gorm:"type:int;not null" json:"pieces_received"`
	PiecesAvailable int       `gorm:"type:int;not null" json:"pieces_available"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
