package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/notifier"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DTOs

type RecordSaleRequest struct {
	ConsignmentLineID string `json:"consignment_line_id" binding:"required"`
	Quantity          int    `json:"quantity" binding:"required"`
	SoldDate          string `json:"sold_date" binding:"required"` // YYYY-MM-DD
}

type SaleService interface {
	RecordSale(ctx context.Context, actor model.Actor, req RecordSaleRequest) (*model.Sale, error)
	MarkPendingInvoice(ctx context.Context, actor model.Actor, saleID string) (*model.Sale, error)
	MarkDamaged(ctx context.Context, actor model.Actor, saleID string) (*model.Sale, error)
	MarkReturned(ctx context.Context, actor model.Actor, saleID string) (*model.Sale, error)
	CancelSale(ctx context.Context, actor model.Actor, saleID string) (*model.Sale, error)
	GetSale(ctx context.Context, id string) (*model.Sale, error)
	ListSales(ctx context.Context, filter repository.SaleListFilter) ([]model.Sale, int64, error)
}

type saleService struct {
	saleRepo        repository.SaleRepository
	consignmentRepo repository.ConsignmentRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
	dispatcher      notifier.Dispatcher
	log             zerolog.Logger
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	consignmentRepo repository.ConsignmentRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	dispatcher notifier.Dispatcher,
) SaleService {
	return &saleService{
		saleRepo:        saleRepo,
		consignmentRepo: consignmentRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
		dispatcher:      dispatcher,
		log:             log.With().Str("component", "sale_service").Logger(),
	}
}

// RecordSale consumes pieces from a consignment line and creates a pending
// sale. The decrement and the insert commit together: the conditional
// UPDATE on pieces_remaining is the only thing that may consume stock, so
// two concurrent sales can never both win the last pieces.
func (s *saleService) RecordSale(ctx context.Context, actor model.Actor, req RecordSaleRequest) (*model.Sale, error) {
	if !actor.DealerSide() {
		return nil, apperr.Forbidden(actor.Role, "record sales")
	}

	if req.Quantity < 1 {
		return nil, apperr.Validation("sale", "quantity must be at least 1, got %d", req.Quantity)
	}
	lineID, err := uuid.Parse(req.ConsignmentLineID)
	if err != nil {
		return nil, apperr.Validation("sale", "invalid consignment_line_id: %v", err)
	}
	soldDate, err := parseDate("sold_date", req.SoldDate)
	if err != nil {
		return nil, err
	}

	var sale model.Sale
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		line, findErr := s.consignmentRepo.FindLineByID(txCtx, lineID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("consignment_line", req.ConsignmentLineID)
			}
			return fmt.Errorf("failed to load consignment line: %w", findErr)
		}
		if req.Quantity > line.PiecesRemaining {
			return apperr.InsufficientStock(req.ConsignmentLineID, req.Quantity, line.PiecesRemaining)
		}

		rows, decErr := s.consignmentRepo.DecrementRemaining(txCtx, lineID, req.Quantity)
		if decErr != nil {
			return fmt.Errorf("failed to decrement remaining pieces: %w", decErr)
		}
		if rows == 0 {
			// Someone else consumed stock between the read and the
			// conditional update. Distinguish the two failure modes.
			current, reErr := s.consignmentRepo.FindLineByID(txCtx, lineID)
			if reErr != nil {
				return fmt.Errorf("failed to re-read consignment line: %w", reErr)
			}
			if req.Quantity > current.PiecesRemaining {
				return apperr.InsufficientStock(req.ConsignmentLineID, req.Quantity, current.PiecesRemaining)
			}
			return apperr.Conflict("consignment_line", "lost race on pieces_remaining decrement")
		}

		sale = model.Sale{
			ConsignmentLineID: lineID,
			Quantity:          req.Quantity,
			SoldDate:          soldDate,
			Status:            model.SalePending,
		}
		if err := s.saleRepo.Create(txCtx, &sale); err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}

		return s.writeSaleAudit(txCtx, actor, model.ActionRecordSale, sale.ID.String(), map[string]interface{}{
			"consignment_line_id": req.ConsignmentLineID,
			"quantity":            req.Quantity,
			"sold_date":           req.SoldDate,
		})
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, notifier.Event{
		Type:      notifier.EventSalePending,
		Recipient: actor.UserID.String(),
		Payload: map[string]interface{}{
			"sale_id":  sale.ID.String(),
			"quantity": sale.Quantity,
		},
	})

	s.log.Info().Str("sale_id", sale.ID.String()).Int("quantity", sale.Quantity).Msg("sale recorded")
	return s.saleRepo.FindByIDWithLine(ctx, sale.ID)
}

// MarkPendingInvoice queues a pending sale for billing.
func (s *saleService) MarkPendingInvoice(ctx context.Context, actor model.Actor, saleID string) (*model.Sale, error) {
	if !actor.DealerSide() {
		return nil, apperr.Forbidden(actor.Role, "mark sales for invoicing")
	}
	return s.transition(ctx, actor, saleID, model.SalePendingInvoice, []string{model.SalePending})
}

// MarkDamaged records lost stock. Pieces remaining is untouched: the stock
// was consumed, not returned to the sellable pool.
func (s *saleService) MarkDamaged(ctx context.Context, actor model.Actor, saleID string) (*model.Sale, error) {
	if !actor.DealerSide() {
		return nil, apperr.Forbidden(actor.Role, "mark sales damaged")
	}
	return s.transition(ctx, actor, saleID, model.SaleDamaged, []string{model.SalePending, model.SalePendingInvoice})
}

// MarkReturned mirrors MarkDamaged for customer returns.
func (s *saleService) MarkReturned(ctx context.Context, actor model.Actor, saleID string) (*model.Sale, error) {
	if !actor.DealerSide() {
		return nil, apperr.Forbidden(actor.Role, "mark sales returned")
	}
	return s.transition(ctx, actor, saleID, model.SaleReturned, []string{model.SalePending, model.SalePendingInvoice})
}

// CancelSale voids a pending sale and puts its pieces back on the line,
// since nothing was actually consummated. Only pending sales qualify.
func (s *saleService) CancelSale(ctx context.Context, actor model.Actor, saleID string) (*model.Sale, error) {
	if !actor.DealerSide() {
		return nil, apperr.Forbidden(actor.Role, "cancel sales")
	}

	id, err := uuid.Parse(saleID)
	if err != nil {
		return nil, apperr.Validation("sale", "invalid id: %v", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale, findErr := s.saleRepo.FindByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("sale", saleID)
			}
			return fmt.Errorf("failed to load sale: %w", findErr)
		}

		rows, updErr := s.saleRepo.UpdateStatusWhere(txCtx, id, model.SalePending, model.SaleCancelled)
		if updErr != nil {
			return fmt.Errorf("failed to cancel sale: %w", updErr)
		}
		if rows == 0 {
			return apperr.InvalidState("sale", saleID, sale.Status, "cancel")
		}

		restored, resErr := s.consignmentRepo.RestoreRemaining(txCtx, sale.ConsignmentLineID, sale.Quantity)
		if resErr != nil {
			return fmt.Errorf("failed to restore remaining pieces: %w", resErr)
		}
		if restored == 0 {
			// Would push pieces_remaining past pieces_assigned; the line
			// has been tampered with or the sale double-cancelled.
			return apperr.Conflict("consignment_line", "restore would exceed pieces_assigned")
		}

		return s.writeSaleAudit(txCtx, actor, model.ActionCancelSale, saleID, map[string]interface{}{
			"restored_quantity": sale.Quantity,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.saleRepo.FindByIDWithLine(ctx, id)
}

func (s *saleService) GetSale(ctx context.Context, id string) (*model.Sale, error) {
	saleID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("sale", "invalid id: %v", err)
	}
	sale, err := s.saleRepo.FindByIDWithLine(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("sale", id)
		}
		return nil, fmt.Errorf("failed to load sale: %w", err)
	}
	return sale, nil
}

func (s *saleService) ListSales(ctx context.Context, filter repository.SaleListFilter) ([]model.Sale, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.saleRepo.List(ctx, filter)
}

// transition performs a guarded status flip from any of the allowed source
// states.
func (s *saleService) transition(ctx context.Context, actor model.Actor, saleID, to string, from []string) (*model.Sale, error) {
	id, err := uuid.Parse(saleID)
	if err != nil {
		return nil, apperr.Validation("sale", "invalid id: %v", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, source := range from {
			rows, updErr := s.saleRepo.UpdateStatusWhere(txCtx, id, source, to)
			if updErr != nil {
				return fmt.Errorf("failed to transition sale: %w", updErr)
			}
			if rows > 0 {
				return s.writeSaleAudit(txCtx, actor, model.ActionMarkSale, saleID, map[string]interface{}{
					"from": source,
					"to":   to,
				})
			}
		}

		sale, findErr := s.saleRepo.FindByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("sale", saleID)
			}
			return fmt.Errorf("failed to load sale: %w", findErr)
		}
		return apperr.InvalidState("sale", saleID, sale.Status, "mark "+to)
	})
	if err != nil {
		return nil, err
	}

	return s.saleRepo.FindByIDWithLine(ctx, id)
}

func (s *saleService) writeSaleAudit(ctx context.Context, actor model.Actor, action, entityID string, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	uid := actor.UserID
	entry := &model.AuditLog{
		UserID:   &uid,
		Action:   action,
		EntityID: entityID,
		Details:  string(payload),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
