package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus enum constants
const (
	InvoiceDraft     = "draft"
	InvoicePending   = "pending"
	InvoiceSent      = "sent"
	InvoicePaid      = "paid"
	InvoiceCancelled = "cancelled"
)

// Invoice is a billing document compiled from a dealer's pending_invoice
// sales. Financial fields are fixed at creation; only Status transitions.
type Invoice struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNumber string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_number"`
	DealerOrgID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"dealer_org_id"`
	DealerOrg     *Organization   `gorm:"foreignKey:DealerOrgID;constraint:-" json:"dealer_org,omitempty"`
	InvoiceDate   time.Time       `gorm:"type:date;not null;index" json:"invoice_date"`
	DueDate       *time.Time      `gorm:"type:date" json:"due_date"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	Tax           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax"`
	Total         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total"`
	Status        string          `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Notes         string          `gorm:"type:text" json:"notes"`
	Lines         []InvoiceLine   `gorm:"foreignKey:InvoiceID" json:"lines"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// InvoiceLine bills exactly one Sale. A sale can be referenced by at most
// one line ever; the compile step flips the sale to billed in the same
// transaction that inserts the line.
type InvoiceLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"sale_id"`
	ItemID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"line_total"`
	CreatedAt time.Time       `json:"created_at"`
}
