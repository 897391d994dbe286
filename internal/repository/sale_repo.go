package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleListFilter struct {
	Status      string
	DealerOrgID string
	Page        int
	Limit       int
}

type SaleRepository interface {
	Create(ctx context.Context, sale *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindByIDWithLine(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, filter SaleListFilter) ([]model.Sale, int64, error)
	UpdateStatusWhere(ctx context.Context, id uuid.UUID, from, to string) (int64, error)
}

type saleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Create(sale).Error
}

func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) FindByIDWithLine(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).
		Preload("ConsignmentLine").
		Preload("ConsignmentLine.Item").
		First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) List(ctx context.Context, filter SaleListFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	base := GetDB(ctx, r.db).Model(&model.Sale{})
	if filter.Status != "" {
		base = base.Where("sales.status = ?", filter.Status)
	}
	if filter.DealerOrgID != "" {
		base = base.
			Joins("JOIN consignment_lines ON consignment_lines.id = sales.consignment_line_id").
			Joins("JOIN consignments ON consignments.id = consignment_lines.consignment_id").
			Where("consignments.dealer_org_id = ?", filter.DealerOrgID)
	}

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := base.
		Preload("ConsignmentLine").
		Preload("ConsignmentLine.Item").
		Order("sales.sold_date desc").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error; err != nil {
		return nil, 0, err
	}

	return sales, total, nil
}

// UpdateStatusWhere performs the guarded status flip behind every sale
// transition. Zero rows affected means the sale was not in the expected
// state, either because the caller saw stale data or lost a race.
func (r *saleRepository) UpdateStatusWhere(ctx context.Context, id uuid.UUID, from, to string) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Sale{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}
