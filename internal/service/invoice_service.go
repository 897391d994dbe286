package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/notifier"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs

type CompileInvoiceRequest struct {
	DealerOrgID    string   `json:"dealer_org_id" binding:"required"`
	SaleIDs        []string `json:"sale_ids" binding:"required,min=1"`
	TaxRatePercent string   `json:"tax_rate_percent"` // defaults to 0
	DueDate        string   `json:"due_date"`         // optional, YYYY-MM-DD
	Notes          string   `json:"notes"`
}

type TransitionInvoiceRequest struct {
	Status string `json:"status" binding:"required,oneof=pending sent paid cancelled"`
}

type InvoiceService interface {
	CompileInvoice(ctx context.Context, actor model.Actor, req CompileInvoiceRequest) (*model.Invoice, error)
	TransitionInvoice(ctx context.Context, actor model.Actor, id string, req TransitionInvoiceRequest) (*model.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*model.Invoice, error)
	ListInvoices(ctx context.Context, filter repository.InvoiceListFilter) ([]model.Invoice, int64, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	saleRepo    repository.SaleRepository
	consignRepo repository.ConsignmentRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	dispatcher  notifier.Dispatcher
	log         zerolog.Logger
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	saleRepo repository.SaleRepository,
	consignRepo repository.ConsignmentRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	dispatcher notifier.Dispatcher,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		saleRepo:    saleRepo,
		consignRepo: consignRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		dispatcher:  dispatcher,
		log:         log.With().Str("component", "invoice_service").Logger(),
	}
}

// Allowed invoice status transitions. Cancellation is reachable from every
// non-paid state; paid is final.
var invoiceTransitions = map[string][]string{
	model.InvoiceDraft:   {model.InvoicePending, model.InvoiceCancelled},
	model.InvoicePending: {model.InvoiceSent, model.InvoiceCancelled},
	model.InvoiceSent:    {model.InvoicePaid, model.InvoiceCancelled},
}

// CompileInvoice rolls a batch of one dealer's pending_invoice sales into a
// draft invoice. The invoice row, every invoice line and every sale status
// flip commit as one unit; any rejected sale aborts the whole batch.
//
// Unit prices come from each line's snapshotted dealer price, never from
// the current catalog.
func (s *invoiceService) CompileInvoice(ctx context.Context, actor model.Actor, req CompileInvoiceRequest) (*model.Invoice, error) {
	if !actor.ManufacturerSide() {
		return nil, apperr.Forbidden(actor.Role, "compile invoices")
	}

	dealerID, err := uuid.Parse(req.DealerOrgID)
	if err != nil {
		return nil, apperr.Validation("invoice", "invalid dealer_org_id: %v", err)
	}

	taxRate := decimal.Zero
	if req.TaxRatePercent != "" {
		taxRate, err = decimal.NewFromString(req.TaxRatePercent)
		if err != nil {
			return nil, apperr.Validation("invoice", "invalid tax_rate_percent %q", req.TaxRatePercent)
		}
		if taxRate.IsNegative() {
			return nil, apperr.Validation("invoice", "tax_rate_percent must not be negative")
		}
	}

	var dueDate *time.Time
	if req.DueDate != "" {
		parsed, dateErr := parseDate("due_date", req.DueDate)
		if dateErr != nil {
			return nil, dateErr
		}
		dueDate = &parsed
	}

	saleIDs := make([]uuid.UUID, 0, len(req.SaleIDs))
	seen := make(map[uuid.UUID]bool, len(req.SaleIDs))
	for _, raw := range req.SaleIDs {
		id, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return nil, apperr.Validation("invoice", "invalid sale id %q", raw)
		}
		if seen[id] {
			return nil, apperr.Validation("invoice", "duplicate sale id %s", raw)
		}
		seen[id] = true
		saleIDs = append(saleIDs, id)
	}

	var invoice model.Invoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		subtotal := decimal.Zero
		type billable struct {
			sale      *model.Sale
			unitPrice decimal.Decimal
			itemID    uuid.UUID
		}
		batch := make([]billable, 0, len(saleIDs))

		for _, saleID := range saleIDs {
			sale, findErr := s.saleRepo.FindByIDWithLine(txCtx, saleID)
			if findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return apperr.NotFound("sale", saleID.String())
				}
				return fmt.Errorf("failed to load sale %s: %w", saleID, findErr)
			}
			if sale.Status != model.SalePendingInvoice {
				return apperr.InvalidState("sale", saleID.String(), sale.Status, "compile into an invoice")
			}
			if sale.ConsignmentLine == nil {
				return apperr.NotFound("consignment_line", sale.ConsignmentLineID.String())
			}

			consignment, conErr := s.consignRepo.FindByID(txCtx, sale.ConsignmentLine.ConsignmentID)
			if conErr != nil {
				return fmt.Errorf("failed to load consignment for sale %s: %w", saleID, conErr)
			}
			if consignment.DealerOrgID != dealerID {
				return apperr.Validation("invoice", "sale %s belongs to dealer %s, not %s",
					saleID, consignment.DealerOrgID, dealerID)
			}

			unitPrice := sale.ConsignmentLine.DealerPrice
			subtotal = subtotal.Add(unitPrice.Mul(decimal.NewFromInt(int64(sale.Quantity))))
			batch = append(batch, billable{sale: sale, unitPrice: unitPrice, itemID: sale.ConsignmentLine.ItemID})
		}

		subtotal = subtotal.Round(2)
		tax := subtotal.Mul(taxRate).Div(decimal.NewFromInt(100)).Round(2)
		total := subtotal.Add(tax)

		invoiceNumber, numErr := s.generateInvoiceNumber(txCtx)
		if numErr != nil {
			return fmt.Errorf("failed to generate invoice number: %w", numErr)
		}

		invoice = model.Invoice{
			InvoiceNumber: invoiceNumber,
			DealerOrgID:   dealerID,
			InvoiceDate:   time.Now().Truncate(24 * time.Hour),
			DueDate:       dueDate,
			Subtotal:      subtotal,
			Tax:           tax,
			Total:         total,
			Status:        model.InvoiceDraft,
			Notes:         req.Notes,
		}
		if err := s.invoiceRepo.Create(txCtx, &invoice); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		for _, b := range batch {
			line := model.InvoiceLine{
				InvoiceID: invoice.ID,
				SaleID:    b.sale.ID,
				ItemID:    b.itemID,
				Quantity:  b.sale.Quantity,
				UnitPrice: b.unitPrice,
				LineTotal: b.unitPrice.Mul(decimal.NewFromInt(int64(b.sale.Quantity))).Round(2),
			}
			if err := s.invoiceRepo.CreateLine(txCtx, &line); err != nil {
				return fmt.Errorf("failed to create invoice line: %w", err)
			}

			// Guarded flip keeps a sale from being compiled twice by
			// concurrent invoice requests.
			rows, updErr := s.saleRepo.UpdateStatusWhere(txCtx, b.sale.ID, model.SalePendingInvoice, model.SaleBilled)
			if updErr != nil {
				return fmt.Errorf("failed to bill sale %s: %w", b.sale.ID, updErr)
			}
			if rows == 0 {
				return apperr.Conflict("sale", fmt.Sprintf("sale %s was billed concurrently", b.sale.ID))
			}
		}

		return s.writeInvoiceAudit(txCtx, actor, model.ActionCompileInvoice, invoice.ID.String(), invoiceNumber, map[string]interface{}{
			"dealer_org_id": req.DealerOrgID,
			"sales":         len(batch),
			"subtotal":      subtotal.StringFixed(2),
			"tax":           tax.StringFixed(2),
			"total":         total.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice_number", invoice.InvoiceNumber).
		Str("total", invoice.Total.StringFixed(2)).
		Int("sales", len(saleIDs)).
		Msg("invoice compiled")
	return s.invoiceRepo.FindByIDWithLines(ctx, invoice.ID)
}

// TransitionInvoice moves an invoice along draft->pending->sent->paid, or
// cancels it from any non-paid state. Cancelling never reverts the billed
// sales; rebilling is a manual follow-up.
func (s *invoiceService) TransitionInvoice(ctx context.Context, actor model.Actor, id string, req TransitionInvoiceRequest) (*model.Invoice, error) {
	if !actor.ManufacturerSide() {
		return nil, apperr.Forbidden(actor.Role, "transition invoices")
	}

	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invoice", "invalid id: %v", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, findErr := s.invoiceRepo.FindByID(txCtx, invoiceID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("invoice", id)
			}
			return fmt.Errorf("failed to load invoice: %w", findErr)
		}

		allowed := false
		for _, next := range invoiceTransitions[invoice.Status] {
			if next == req.Status {
				allowed = true
				break
			}
		}
		if !allowed {
			return apperr.InvalidState("invoice", id, invoice.Status, "transition to "+req.Status)
		}

		rows, updErr := s.invoiceRepo.UpdateStatusWhere(txCtx, invoiceID, invoice.Status, req.Status)
		if updErr != nil {
			return fmt.Errorf("failed to transition invoice: %w", updErr)
		}
		if rows == 0 {
			return apperr.Conflict("invoice", "status changed concurrently")
		}

		return s.writeInvoiceAudit(txCtx, actor, model.ActionInvoiceStatus, id, invoice.InvoiceNumber, map[string]interface{}{
			"from": invoice.Status,
			"to":   req.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	reloaded, err := s.invoiceRepo.FindByIDWithLines(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload invoice: %w", err)
	}

	if req.Status == model.InvoiceSent {
		s.dispatcher.Dispatch(ctx, notifier.Event{
			Type:      notifier.EventInvoiceSent,
			Recipient: reloaded.DealerOrgID.String(),
			Payload: map[string]interface{}{
				"invoice_id":     reloaded.ID.String(),
				"invoice_number": reloaded.InvoiceNumber,
				"total":          reloaded.Total.StringFixed(2),
			},
		})
	}

	return reloaded, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*model.Invoice, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invoice", "invalid id: %v", err)
	}
	invoice, err := s.invoiceRepo.FindByIDWithLines(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("invoice", id)
		}
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	return invoice, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter repository.InvoiceListFilter) ([]model.Invoice, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.invoiceRepo.List(ctx, filter)
}

func (s *invoiceService) generateInvoiceNumber(ctx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "INV-" + today + "-"

	count, err := s.invoiceRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

func (s *invoiceService) writeInvoiceAudit(ctx context.Context, actor model.Actor, action, entityID, entityName string, details map[string]interface{}) error {
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
