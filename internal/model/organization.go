package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrgKind enum constants
const (
	OrgKindManufacturer = "manufacturer"
	OrgKindDealer       = "dealer"
)

// Organization represents a manufacturer or a dealer counterparty.
// Kind is fixed at creation time and never updated afterwards.
type Organization struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Kind      string         `gorm:"type:varchar(20);not null;index" json:"kind"` // manufacturer, dealer
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
