package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
	Kind string `json:"kind" binding:"required,oneof=manufacturer dealer"`
}

type RenameOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
}

type OrganizationService interface {
	CreateOrganization(ctx context.Context, actor model.Actor, req CreateOrganizationRequest) (*model.Organization, error)
	RenameOrganization(ctx context.Context, actor model.Actor, id string, req RenameOrganizationRequest) (*model.Organization, error)
	DeleteOrganization(ctx context.Context, actor model.Actor, id string) error
	GetOrganization(ctx context.Context, id string) (*model.Organization, error)
	ListOrganizations(ctx context.Context, kind string, page, limit int) ([]model.Organization, int64, error)
}

type organizationService struct {
	orgRepo         repository.OrganizationRepository
	consignmentRepo repository.ConsignmentRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
	log             zerolog.Logger
}

func NewOrganizationService(
	orgRepo repository.OrganizationRepository,
	consignmentRepo repository.ConsignmentRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) OrganizationService {
	return &organizationService{
		orgRepo:         orgRepo,
		consignmentRepo: consignmentRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
		log:             log.With().Str("component", "organization_service").Logger(),
	}
}

func (s *organizationService) CreateOrganization(ctx context.Context, actor model.Actor, req CreateOrganizationRequest) (*model.Organization, error) {
	if !actor.ManufacturerSide() {
		return nil, apperr.Forbidden(actor.Role, "manage organizations")
	}

	org := &model.Organization{
		Name: req.Name,
		Kind: req.Kind,
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orgRepo.Create(txCtx, org); err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}
		payload, _ := json.Marshal(map[string]string{"kind": org.Kind})
		uid := actor.UserID
		entry := &model.AuditLog{
			UserID:     &uid,
			Action:     model.ActionCreateOrganization,
			EntityID:   org.ID.String(),
			EntityName: org.Name,
			Details:    string(payload),
		}
		if err := s.auditRepo.Log(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// RenameOrganization changes the display name only. Kind is immutable once
// consignments may reference the org.
func (s *organizationService) RenameOrganization(ctx context.Context, actor model.Actor, id string, req RenameOrganizationRequest) (*model.Organization, error) {
	if !actor.ManufacturerSide() {
		return nil, apperr.Forbidden(actor.Role, "manage organizations")
	}

	orgID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("organization", "invalid id: %v", err)
	}

	if _, err := s.orgRepo.FindByID(ctx, orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("organization", id)
		}
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	if err := s.orgRepo.UpdateName(ctx, orgID, req.Name); err != nil {
		return nil, fmt.Errorf("failed to rename organization: %w", err)
	}
	return s.orgRepo.FindByID(ctx, orgID)
}

// DeleteOrganization removes an org with no active consignments. Closed
// ledger rows keep the dangling id and show up as "Unknown" in reports.
func (s *organizationService) DeleteOrganization(ctx context.Context, actor model.Actor, id string) error {
	if !actor.ManufacturerSide() {
		return apperr.Forbidden(actor.Role, "manage organizations")
	}

	orgID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("organization", "invalid id: %v", err)
	}

	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("organization", id)
		}
		return fmt.Errorf("failed to load organization: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		active, err := s.consignmentRepo.CountActiveByOrg(txCtx, orgID)
		if err != nil {
			return fmt.Errorf("failed to count active consignments: %w", err)
		}
		if active > 0 {
			return apperr.InvalidState("organization", id, "referenced by active consignments", "delete")
		}
		if err := s.orgRepo.Delete(txCtx, orgID); err != nil {
			return fmt.Errorf("failed to delete organization: %w", err)
		}
		uid := actor.UserID
		entry := &model.AuditLog{
			UserID:     &uid,
			Action:     model.ActionDeleteOrganization,
			EntityID:   org.ID.String(),
			EntityName: org.Name,
		}
		if err := s.auditRepo.Log(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
}

func (s *organizationService) GetOrganization(ctx context.Context, id string) (*model.Organization, error) {
	orgID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("organization", "invalid id: %v", err)
	}
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("organization", id)
		}
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}
	return org, nil
}

func (s *organizationService) ListOrganizations(ctx context.Context, kind string, page, limit int) ([]model.Organization, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.orgRepo.List(ctx, kind, page, limit)
}
