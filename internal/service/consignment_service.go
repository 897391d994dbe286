package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DTOs

type ConsignmentLineRequest struct {
	ItemID         string `json:"item_id" binding:"required"`
	PiecesAssigned int    `json:"pieces_assigned" binding:"required"`
}

type CreateConsignmentRequest struct {
	DealerOrgID       string                   `json:"dealer_org_id" binding:"required"`
	ManufacturerOrgID string                   `json:"manufacturer_org_id" binding:"required"`
	StartDate         string                   `json:"start_date" binding:"required"` // YYYY-MM-DD
	Lines             []ConsignmentLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type CloseConsignmentRequest struct {
	EndDate string `json:"end_date" binding:"required"` // YYYY-MM-DD
}

type ConsignmentService interface {
	CreateConsignment(ctx context.Context, actor model.Actor, req CreateConsignmentRequest) (*model.Consignment, error)
	CloseConsignment(ctx context.Context, actor model.Actor, id string, req CloseConsignmentRequest) (*model.Consignment, error)
	CancelConsignment(ctx context.Context, actor model.Actor, id string) (*model.Consignment, error)
	GetConsignment(ctx context.Context, id string) (*model.Consignment, error)
	ListConsignments(ctx context.Context, dealerOrgID, status string, page, limit int) ([]model.Consignment, int64, error)
}

type consignmentService struct {
	consignmentRepo repository.ConsignmentRepository
	orgRepo         repository.OrganizationRepository
	catalogRepo     repository.CatalogRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
	log             zerolog.Logger
}

func NewConsignmentService(
	consignmentRepo repository.ConsignmentRepository,
	orgRepo repository.OrganizationRepository,
	catalogRepo repository.CatalogRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ConsignmentService {
	return &consignmentService{
		consignmentRepo: consignmentRepo,
		orgRepo:         orgRepo,
		catalogRepo:     catalogRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
		log:             log.With().Str("component", "consignment_service").Logger(),
	}
}

const dateLayout = "2006-01-02"

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, apperr.Validation("consignment", "invalid %s %q, want YYYY-MM-DD", field, value)
	}
	return t, nil
}

// CreateConsignment creates the consignment and one line per entry,
// snapshotting the current catalog dealer price into each line.
func (s *consignmentService) CreateConsignment(ctx context.Context, actor model.Actor, req CreateConsignmentRequest) (*model.Consignment, error) {
	if !actor.ManufacturerSide() {
		return nil, apperr.Forbidden(actor.Role, "create consignments")
	}

	dealerID, err := uuid.Parse(req.DealerOrgID)
	if err != nil {
		return nil, apperr.Validation("consignment", "invalid dealer_org_id: %v", err)
	}
	manufacturerID, err := uuid.Parse(req.ManufacturerOrgID)
	if err != nil {
		return nil, apperr.Validation("consignment", "invalid manufacturer_org_id: %v", err)
	}
	startDate, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	for i, line := range req.Lines {
		if line.PiecesAssigned <= 0 {
			return nil, apperr.Validation("consignment", "line %d: pieces_assigned must be positive, got %d", i, line.PiecesAssigned)
		}
	}

	dealer, err := s.orgRepo.FindByID(ctx, dealerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("organization", req.DealerOrgID)
		}
		return nil, fmt.Errorf("failed to load dealer org: %w", err)
	}
	if dealer.Kind != model.OrgKindDealer {
		return nil, apperr.Validation("consignment", "organization %s is a %s, not a dealer", dealer.ID, dealer.Kind)
	}

	manufacturer, err := s.orgRepo.FindByID(ctx, manufacturerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("organization", req.ManufacturerOrgID)
		}
		return nil, fmt.Errorf("failed to load manufacturer org: %w", err)
	}
	if manufacturer.Kind != model.OrgKindManufacturer {
		return nil, apperr.Validation("consignment", "organization %s is a %s, not a manufacturer", manufacturer.ID, manufacturer.Kind)
	}

	consignment := model.Consignment{
		DealerOrgID:       dealerID,
		ManufacturerOrgID: manufacturerID,
		StartDate:         startDate,
		Status:            model.ConsignmentActive,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.consignmentRepo.Create(txCtx, &consignment); err != nil {
			return fmt.Errorf("failed to create consignment: %w", err)
		}

		for _, lineReq := range req.Lines {
			itemID, parseErr := uuid.Parse(lineReq.ItemID)
			if parseErr != nil {
				return apperr.Validation("consignment", "invalid item_id %q", lineReq.ItemID)
			}
			item, findErr := s.catalogRepo.FindByID(txCtx, itemID)
			if findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return apperr.NotFound("catalog_item", lineReq.ItemID)
				}
				return fmt.Errorf("failed to load catalog item %s: %w", lineReq.ItemID, findErr)
			}

			line := model.ConsignmentLine{
				ConsignmentID:   consignment.ID,
				ItemID:          item.ID,
				PiecesAssigned:  lineReq.PiecesAssigned,
				PiecesRemaining: lineReq.PiecesAssigned,
				DealerPrice:     item.DealerPrice,
			}
			if err := s.consignmentRepo.CreateLine(txCtx, &line); err != nil {
				return fmt.Errorf("failed to create consignment line: %w", err)
			}
		}

		return s.writeAudit(txCtx, actor, model.ActionCreateConsignment, consignment.ID.String(), dealer.Name, map[string]interface{}{
			"dealer_org_id": req.DealerOrgID,
			"start_date":    req.StartDate,
			"lines":         len(req.Lines),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("consignment_id", consignment.ID.String()).Str("dealer", dealer.Name).Msg("consignment created")
	return s.consignmentRepo.FindByIDWithLines(ctx, consignment.ID)
}

// CloseConsignment marks an active consignment completed. A consignment
// with pieces still outstanding cannot be closed; cancellation is the
// write-off path.
func (s *consignmentService) CloseConsignment(ctx context.Context, actor model.Actor, id string, req CloseConsignmentRequest) (*model.Consignment, error) {
	if !actor.ManufacturerSide() {
		return nil, apperr.Forbidden(actor.Role, "close consignments")
	}

	consignmentID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("consignment", "invalid id: %v", err)
	}
	endDate, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		consignment, findErr := s.consignmentRepo.FindByIDForUpdate(txCtx, consignmentID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("consignment", id)
			}
			return fmt.Errorf("failed to load consignment: %w", findErr)
		}

		if consignment.Status != model.ConsignmentActive {
			return apperr.InvalidState("consignment", id, consignment.Status, "close")
		}
		if endDate.Before(consignment.StartDate) {
			return apperr.Validation("consignment", "end_date %s is before start_date %s",
				endDate.Format(dateLayout), consignment.StartDate.Format(dateLayout))
		}

		outstanding, outErr := s.consignmentRepo.OutstandingPieces(txCtx, consignmentID)
		if outErr != nil {
			return fmt.Errorf("failed to count outstanding pieces: %w", outErr)
		}
		if outstanding > 0 {
			return apperr.InvalidState("consignment", id,
				fmt.Sprintf("active with %d pieces outstanding", outstanding), "close")
		}

		rows, updErr := s.consignmentRepo.UpdateStatusWhere(txCtx, consignmentID, model.ConsignmentActive, model.ConsignmentCompleted)
		if updErr != nil {
			return fmt.Errorf("failed to update consignment status: %w", updErr)
		}
		if rows == 0 {
			return apperr.Conflict("consignment", "status changed concurrently")
		}
		if err := s.consignmentRepo.SetEndDate(txCtx, consignmentID, endDate); err != nil {
			return fmt.Errorf("failed to set end date: %w", err)
		}

		return s.writeAudit(txCtx, actor, model.ActionCloseConsignment, id, "", map[string]interface{}{
			"end_date": req.EndDate,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.consignmentRepo.FindByIDWithLines(ctx, consignmentID)
}

// CancelConsignment voids an active consignment, writing off whatever
// pieces remain unsold.
func (s *consignmentService) CancelConsignment(ctx context.Context, actor model.Actor, id string) (*model.Consignment, error) {
	if !actor.ManufacturerSide() {
		return nil, apperr.Forbidden(actor.Role, "cancel consignments")
	}

	consignmentID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("consignment", "invalid id: %v", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rows, updErr := s.consignmentRepo.UpdateStatusWhere(txCtx, consignmentID, model.ConsignmentActive, model.ConsignmentCancelled)
		if updErr != nil {
			return fmt.Errorf("failed to update consignment status: %w", updErr)
		}
		if rows == 0 {
			consignment, findErr := s.consignmentRepo.FindByID(txCtx, consignmentID)
			if findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return apperr.NotFound("consignment", id)
				}
				return fmt.Errorf("failed to load consignment: %w", findErr)
			}
			return apperr.InvalidState("consignment", id, consignment.Status, "cancel")
		}

		return s.writeAudit(txCtx, actor, model.ActionCancelConsignment, id, "", nil)
	})
	if err != nil {
		return nil, err
	}

	return s.consignmentRepo.FindByIDWithLines(ctx, consignmentID)
}

func (s *consignmentService) GetConsignment(ctx context.Context, id string) (*model.Consignment, error) {
	consignmentID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("consignment", "invalid id: %v", err)
	}
	consignment, err := s.consignmentRepo.FindByIDWithLines(ctx, consignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("consignment", id)
		}
		return nil, fmt.Errorf("failed to load consignment: %w", err)
	}
	return consignment, nil
}

func (s *consignmentService) ListConsignments(ctx context.Context, dealerOrgID, status string, page, limit int) ([]model.Consignment, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.consignmentRepo.List(ctx, dealerOrgID, status, page, limit)
}

func (s *consignmentService) writeAudit(ctx context.Context, actor model.Actor, action, entityID, entityName string, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	uid := actor.UserID
	entry := &model.AuditLog{
		UserID:     &uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
