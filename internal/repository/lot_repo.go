package repository

import (
	"context"

	"backend/internal/model"

	"gorm.io/gorm"
)

type LotRepository interface {
	Create(ctx context.Context, lot *model.InventoryLot) error
	List(ctx context.Context, page, limit int) ([]model.InventoryLot, int64, error)
}

type lotRepository struct {
	db *gorm.DB
}

func NewLotRepository(db *gorm.DB) LotRepository {
	return &lotRepository{db: db}
}

func (r *lotRepository) Create(ctx context.Context, lot *model.InventoryLot) error {
	return GetDB(ctx, r.db).Create(lot).Error
}

func (r *lotRepository) List(ctx context.Context, page, limit int) ([]model.InventoryLot, int64, error) {
	var lots []model.InventoryLot
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InventoryLot{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("received_date desc").Offset(offset).Limit(limit).Find(&lots).Error; err != nil {
		return nil, 0, err
	}

	return lots, total, nil
}
