package database

import (
	"backend/internal/model"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Organization{},
		&model.User{},
		&model.RefreshToken{},
		&model.CatalogItem{},
		&model.InventoryLot{},
		&model.Consignment{},
		&model.ConsignmentLine{},
		&model.Sale{},
		&model.Invoice{},
		&model.InvoiceLine{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to auto-migrate models")
	}

	return db, nil
}
