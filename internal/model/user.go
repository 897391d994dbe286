package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role enum constants. Manufacturer-side roles manage consignments and
// invoices; client-side roles record sales for their dealer org.
const (
	RoleSuperAdmin        = "super_admin"
	RoleManufacturerAdmin = "manufacturer_admin"
	RoleClientAdmin       = "client_admin"
	RoleClientSalesRep    = "client_sales_rep"
)

// User represents an authenticated account tied to an organization
type User struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email          string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password       string         `gorm:"type:varchar(255);not null" json:"-"`
	FirstName      string         `gorm:"type:varchar(100)" json:"first_name"`
	LastName       string         `gorm:"type:varchar(100)" json:"last_name"`
	Role           string         `gorm:"type:varchar(50);not null" json:"role"`
	OrganizationID *uuid.UUID     `gorm:"type:uuid;index" json:"organization_id"`
	Organization   *Organization  `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Actor is the authenticated identity every ledger operation receives
// explicitly. Services never read the current user from ambient state.
type Actor struct {
	UserID uuid.UUID
	Role   string
	OrgID  *uuid.UUID
}

// ManufacturerSide reports whether the actor may manage consignments,
// catalog entries and invoices.
func (a Actor) ManufacturerSide() bool {
	return a.Role == RoleSuperAdmin || a.Role == RoleManufacturerAdmin
}

// DealerSide reports whether the actor may record and manage sales.
func (a Actor) DealerSide() bool {
	return a.Role == RoleSuperAdmin || a.Role == RoleClientAdmin || a.Role == RoleClientSalesRep
}
