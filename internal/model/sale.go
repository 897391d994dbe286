package model

import (
	"time"

	"github.com/google/uuid"
)

// SaleStatus enum constants. The state machine is:
//
//	pending         -> pending_invoice, damaged, returned, cancelled
//	pending_invoice -> billed, damaged, returned
//
// billed, damaged, returned and cancelled are terminal. Sales reach billed
// only through invoice compilation.
const (
	SalePending        = "pending"
	SalePendingInvoice = "pending_invoice"
	SaleBilled         = "billed"
	SaleDamaged        = "damaged"
	SaleReturned       = "returned"
	SaleCancelled      = "cancelled"
)

// Sale records units sold against a consignment line. Creating a Sale
// consumes PiecesRemaining on the parent line; only cancellation of a
// pending sale puts the pieces back. Damaged/returned stock stays consumed.
type Sale struct {
	ID                uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ConsignmentLineID uuid.UUID        `gorm:"type:uuid;not null;index" json:"consignment_line_id"`
	ConsignmentLine   *ConsignmentLine `gorm:"foreignKey:ConsignmentLineID" json:"consignment_line,omitempty"`
	Quantity          int              `gorm:"type:int;not null" json:"quantity"`
	SoldDate          time.Time        `gorm:"type:date;not null;index" json:"sold_date"`
	Status            string           `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// TerminalSaleStatus reports whether no further transition is allowed.
func TerminalSaleStatus(status string) bool {
	switch status {
	case SaleBilled, SaleDamaged, SaleReturned, SaleCancelled:
		return true
	}
	return false
}
