package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConsignmentRepository interface {
	Create(ctx context.Context, consignment *model.Consignment) error
	CreateLine(ctx context.Context, line *model.ConsignmentLine) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Consignment, error)
	FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Consignment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Consignment, error)
	FindLineByID(ctx context.Context, id uuid.UUID) (*model.ConsignmentLine, error)
	List(ctx context.Context, dealerOrgID, status string, page, limit int) ([]model.Consignment, int64, error)
	OutstandingPieces(ctx context.Context, consignmentID uuid.UUID) (int, error)
	CountActiveByOrg(ctx context.Context, orgID uuid.UUID) (int64, error)
	UpdateStatusWhere(ctx context.Context, id uuid.UUID, from, to string) (int64, error)
	SetEndDate(ctx context.Context, id uuid.UUID, endDate time.Time) error
	DecrementRemaining(ctx context.Context, lineID uuid.UUID, quantity int) (int64, error)
	RestoreRemaining(ctx context.Context, lineID uuid.UUID, quantity int) (int64, error)
}

type consignmentRepository struct {
	db *gorm.DB
}

func NewConsignmentRepository(db *gorm.DB) ConsignmentRepository {
	return &consignmentRepository{db: db}
}

func (r *consignmentRepository) Create(ctx context.Context, consignment *model.Consignment) error {
	return GetDB(ctx, r.db).Omit("Lines").Create(consignment).Error
}

func (r *consignmentRepository) CreateLine(ctx context.Context, line *model.ConsignmentLine) error {
	return GetDB(ctx, r.db).Create(line).Error
}

func (r *consignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Consignment, error) {
	var consignment model.Consignment
	if err := GetDB(ctx, r.db).First(&consignment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &consignment, nil
}

func (r *consignmentRepository) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Consignment, error) {
	var consignment model.Consignment
	if err := GetDB(ctx, r.db).
		Preload("Lines").
		Preload("Lines.Item").
		Preload("DealerOrg").
		Preload("ManufacturerOrg").
		First(&consignment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &consignment, nil
}

func (r *consignmentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Consignment, error) {
	var consignment model.Consignment
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&consignment).Error; err != nil {
		return nil, err
	}
	return &consignment, nil
}

func (r *consignmentRepository) FindLineByID(ctx context.Context, id uuid.UUID) (*model.ConsignmentLine, error) {
	var line model.ConsignmentLine
	if err := GetDB(ctx, r.db).First(&line, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *consignmentRepository) List(ctx context.Context, dealerOrgID, status string, page, limit int) ([]model.Consignment, int64, error) {
	var consignments []model.Consignment
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Consignment{})
	if dealerOrgID != "" {
		db = db.Where("dealer_org_id = ?", dealerOrgID)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Lines").
		Preload("Lines.Item").
		Preload("DealerOrg").
		Order("start_date desc").
		Offset(offset).Limit(limit).
		Find(&consignments).Error; err != nil {
		return nil, 0, err
	}

	return consignments, total, nil
}

func (r *consignmentRepository) OutstandingPieces(ctx context.Context, consignmentID uuid.UUID) (int, error) {
	var result struct {
		Outstanding int
	}
	err := GetDB(ctx, r.db).Table("consignment_lines").
		Select("COALESCE(SUM(pieces_remaining), 0) as outstanding").
		Where("consignment_id = ?", consignmentID).
		Scan(&result).Error
	return result.Outstanding, err
}

// CountActiveByOrg counts active consignments referencing the org on either
// side of the agreement.
func (r *consignmentRepository) CountActiveByOrg(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Consignment{}).
		Where("status = ? AND (dealer_org_id = ? OR manufacturer_org_id = ?)",
			model.ConsignmentActive, orgID, orgID).
		Count(&count).Error
	return count, err
}

// UpdateStatusWhere flips status only when the current value matches;
// callers treat zero rows affected as a state or concurrency failure.
func (r *consignmentRepository) UpdateStatusWhere(ctx context.Context, id uuid.UUID, from, to string) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Consignment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func (r *consignmentRepository) SetEndDate(ctx context.Context, id uuid.UUID, endDate time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Consignment{}).
		Where("id = ?", id).
		Update("end_date", endDate).Error
}

// DecrementRemaining is the single atomic conditional update guarding the
// piece-count invariant: it only fires when enough pieces remain. Zero rows
// affected means the caller lost the race or asked for too much.
func (r *consignmentRepository) DecrementRemaining(ctx context.Context, lineID uuid.UUID, quantity int) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.ConsignmentLine{}).
		Where("id = ? AND pieces_remaining >= ?", lineID, quantity).
		Update("pieces_remaining", gorm.Expr("pieces_remaining - ?", quantity))
	return res.RowsAffected, res.Error
}

// RestoreRemaining reverses a decrement when a pending sale is cancelled.
// The guard keeps pieces_remaining from ever exceeding pieces_assigned.
func (r *consignmentRepository) RestoreRemaining(ctx context.Context, lineID uuid.UUID, quantity int) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.ConsignmentLine{}).
		Where("id = ? AND pieces_remaining + ? <= pieces_assigned", lineID, quantity).
		Update("pieces_remaining", gorm.Expr("pieces_remaining + ?", quantity))
	return res.RowsAffected, res.Error
}
