package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateOrganization = "CREATE_ORGANIZATION"
	ActionDeleteOrganization = "DELETE_ORGANIZATION"
	ActionCreateCatalogItem  = "CREATE_CATALOG_ITEM"
	ActionUpdateCatalogItem  = "UPDATE_CATALOG_ITEM"
	ActionCreateLot          = "CREATE_INVENTORY_LOT"

	ActionCreateConsignment = "CREATE_CONSIGNMENT"
	ActionCloseConsignment  = "CLOSE_CONSIGNMENT"
	ActionCancelConsignment = "CANCEL_CONSIGNMENT"

	ActionRecordSale     = "RECORD_SALE"
	ActionMarkSale       = "MARK_SALE"
	ActionCancelSale     = "CANCEL_SALE"
	ActionCompileInvoice = "COMPILE_INVOICE"
	ActionInvoiceStatus  = "TRANSITION_INVOICE"
)

// AuditLog tracks who changed what and when. Written inside the same
// transaction as the mutation it describes.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
