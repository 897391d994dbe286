package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *model.Organization) error
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	List(ctx context.Context, kind string, page, limit int) ([]model.Organization, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) Create(ctx context.Context, org *model.Organization) error {
	return GetDB(ctx, r.db).Create(org).Error
}

// UpdateName is the only mutation allowed after creation; Kind is immutable.
func (r *organizationRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	return GetDB(ctx, r.db).Model(&model.Organization{}).Where("id = ?", id).Update("name", name).Error
}

func (r *organizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	if err := GetDB(ctx, r.db).First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// Delete removes the row. Ledger rows keep the dangling id; reports render
// those references as "Unknown".
func (r *organizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Organization{}, "id = ?", id).Error
}

func (r *organizationRepository) List(ctx context.Context, kind string, page, limit int) ([]model.Organization, int64, error) {
	var orgs []model.Organization
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Organization{})
	if kind != "" {
		db = db.Where("kind = ?", kind)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name asc").Offset(offset).Limit(limit).Find(&orgs).Error; err != nil {
		return nil, 0, err
	}

	return orgs, total, nil
}
