package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"backend/internal/apperr"
	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newSaleFixture(t *testing.T, piecesAssigned int) (SaleService, *fakeConsignmentRepo, *fakeSaleRepo, *fakeAuditRepo, *recordingDispatcher, uuid.UUID) {
	t.Helper()

	consignRepo := newFakeConsignmentRepo()
	saleRepo := newFakeSaleRepo(consignRepo)
	auditRepo := &fakeAuditRepo{}
	dispatcher := &recordingDispatcher{}

	consignment := &model.Consignment{Status: model.ConsignmentActive}
	if err := consignRepo.Create(context.Background(), consignment); err != nil {
		t.Fatalf("create consignment: %v", err)
	}
	line := &model.ConsignmentLine{
		ConsignmentID:   consignment.ID,
		ItemID:          uuid.New(),
		PiecesAssigned:  piecesAssigned,
		PiecesRemaining: piecesAssigned,
		DealerPrice:     decimal.NewFromInt(100),
	}
	if err := consignRepo.CreateLine(context.Background(), line); err != nil {
		t.Fatalf("create line: %v", err)
	}

	svc := NewSaleService(saleRepo, consignRepo, auditRepo, fakeTxManager{}, dispatcher)
	return svc, consignRepo, saleRepo, auditRepo, dispatcher, line.ID
}

func TestRecordSale(t *testing.T) {
	t.Run("consumes stock and creates pending sale", func(t *testing.T) {
		svc, consignRepo, _, auditRepo, dispatcher, lineID := newSaleFixture(t, 10)

		sale, err := svc.RecordSale(context.Background(), dealerActor, RecordSaleRequest{
			ConsignmentLineID: lineID.String(),
			Quantity:          3,
			SoldDate:          "2026-08-15",
		})
		if err != nil {
			t.Fatalf("RecordSale: %v", err)
		}
		if sale.Status != model.SalePending {
			t.Errorf("status = %q, want %q", sale.Status, model.SalePending)
		}

		line, _ := consignRepo.FindLineByID(context.Background(), lineID)
		if line.PiecesRemaining != 7 {
			t.Errorf("pieces remaining = %d, want 7", line.PiecesRemaining)
		}
		if got := auditRepo.actions(); len(got) != 1 || got[0] != model.ActionRecordSale {
			t.Errorf("audit actions = %v, want [%s]", got, model.ActionRecordSale)
		}
		if got := dispatcher.types(); len(got) != 1 || got[0] != "sale_pending" {
			t.Errorf("dispatched events = %v, want [sale_pending]", got)
		}
	})

	t.Run("rejects quantity above remainder", func(t *testing.T) {
		svc, consignRepo, _, _, _, lineID := newSaleFixture(t, 5)

		_, err := svc.RecordSale(context.Background(), dealerActor, RecordSaleRequest{
			ConsignmentLineID: lineID.String(),
			Quantity:          6,
			SoldDate:          "2026-08-15",
		})
		if !errors.Is(err, apperr.ErrInsufficientStock) {
			t.Fatalf("err = %v, want insufficient stock", err)
		}

		line, _ := consignRepo.FindLineByID(context.Background(), lineID)
		if line.PiecesRemaining != 5 {
			t.Errorf("pieces remaining = %d, want 5 untouched", line.PiecesRemaining)
		}
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		svc, _, _, _, _, lineID := newSaleFixture(t, 5)

		_, err := svc.RecordSale(context.Background(), dealerActor, RecordSaleRequest{
			ConsignmentLineID: lineID.String(),
			Quantity:          0,
			SoldDate:          "2026-08-15",
		})
		if !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("err = %v, want validation", err)
		}
	})

	t.Run("rejects manufacturer-side actor", func(t *testing.T) {
		svc, _, _, _, _, lineID := newSaleFixture(t, 5)

		_, err := svc.RecordSale(context.Background(), manufacturerActor, RecordSaleRequest{
			ConsignmentLineID: lineID.String(),
			Quantity:          1,
			SoldDate:          "2026-08-15",
		})
		if !errors.Is(err, apperr.ErrForbidden) {
			t.Fatalf("err = %v, want forbidden", err)
		}
	})

	t.Run("rejects missing line", func(t *testing.T) {
		svc, _, _, _, _, _ := newSaleFixture(t, 5)

		_, err := svc.RecordSale(context.Background(), dealerActor, RecordSaleRequest{
			ConsignmentLineID: uuid.New().String(),
			Quantity:          1,
			SoldDate:          "2026-08-15",
		})
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("err = %v, want not found", err)
		}
	})
}

// Two sales racing for the last pieces: exactly one may win and the line
// must never go negative.
func TestRecordSaleConcurrent(t *testing.T) {
	svc, consignRepo, _, _, _, lineID := newSaleFixture(t, 10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RecordSale(context.Background(), dealerActor, RecordSaleRequest{
				ConsignmentLineID: lineID.String(),
				Quantity:          7,
				SoldDate:          "2026-08-15",
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		if !errors.Is(err, apperr.ErrInsufficientStock) && !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("loser err = %v, want insufficient stock or conflict", err)
		}
	}
	if successes != 1 {
		t.Fatalf("successes = %d, want exactly 1", successes)
	}

	line, _ := consignRepo.FindLineByID(context.Background(), lineID)
	if line.PiecesRemaining != 3 {
		t.Errorf("pieces remaining = %d, want 3", line.PiecesRemaining)
	}
}

func TestSaleTransitions(t *testing.T) {
	ctx := context.Background()

	record := func(t *testing.T, svc SaleService, lineID uuid.UUID) *model.Sale {
		t.Helper()
		sale, err := svc.RecordSale(ctx, dealerActor, RecordSaleRequest{
			ConsignmentLineID: lineID.String(),
			Quantity:          2,
			SoldDate:          "2026-08-15",
		})
		if err != nil {
			t.Fatalf("RecordSale: %v", err)
		}
		return sale
	}

	t.Run("pending to pending_invoice", func(t *testing.T) {
		svc, _, _, _, _, lineID := newSaleFixture(t, 10)
		sale := record(t, svc, lineID)

		updated, err := svc.MarkPendingInvoice(ctx, dealerActor, sale.ID.String())
		if err != nil {
			t.Fatalf("MarkPendingInvoice: %v", err)
		}
		if updated.Status != model.SalePendingInvoice {
			t.Errorf("status = %q, want %q", updated.Status, model.SalePendingInvoice)
		}
	})

	t.Run("damaged allowed from pending_invoice, stock stays consumed", func(t *testing.T) {
		svc, consignRepo, _, _, _, lineID := newSaleFixture(t, 10)
		sale := record(t, svc, lineID)

		if _, err := svc.MarkPendingInvoice(ctx, dealerActor, sale.ID.String()); err != nil {
			t.Fatalf("MarkPendingInvoice: %v", err)
		}
		updated, err := svc.MarkDamaged(ctx, dealerActor, sale.ID.String())
		if err != nil {
			t.Fatalf("MarkDamaged: %v", err)
		}
		if updated.Status != model.SaleDamaged {
			t.Errorf("status = %q, want %q", updated.Status, model.SaleDamaged)
		}

		line, _ := consignRepo.FindLineByID(ctx, lineID)
		if line.PiecesRemaining != 8 {
			t.Errorf("pieces remaining = %d, want 8; damaged stock must not restore", line.PiecesRemaining)
		}
	})

	t.Run("terminal states reject further transitions", func(t *testing.T) {
		svc, _, _, _, _, lineID := newSaleFixture(t, 10)
		sale := record(t, svc, lineID)

		if _, err := svc.MarkDamaged(ctx, dealerActor, sale.ID.String()); err != nil {
			t.Fatalf("MarkDamaged: %v", err)
		}
		if _, err := svc.MarkReturned(ctx, dealerActor, sale.ID.String()); !errors.Is(err, apperr.ErrInvalidState) {
			t.Fatalf("err = %v, want invalid state", err)
		}
	})
}

func TestCancelSale(t *testing.T) {
	ctx := context.Background()

	t.Run("restores the consumed pieces", func(t *testing.T) {
		svc, consignRepo, _, _, _, lineID := newSaleFixture(t, 10)
		sale, err := svc.RecordSale(ctx, dealerActor, RecordSaleRequest{
			ConsignmentLineID: lineID.String(),
			Quantity:          4,
			SoldDate:          "2026-08-15",
		})
		if err != nil {
			t.Fatalf("RecordSale: %v", err)
		}

		cancelled, err := svc.CancelSale(ctx, dealerActor, sale.ID.String())
		if err != nil {
			t.Fatalf("CancelSale: %v", err)
		}
		if cancelled.Status != model.SaleCancelled {
			t.Errorf("status = %q, want %q", cancelled.Status, model.SaleCancelled)
		}

		line, _ := consignRepo.FindLineByID(ctx, lineID)
		if line.PiecesRemaining != 10 {
			t.Errorf("pieces remaining = %d, want 10 after restore", line.PiecesRemaining)
		}
	})

	t.Run("rejects non-pending sales", func(t *testing.T) {
		svc, _, _, _, _, lineID := newSaleFixture(t, 10)
		sale, err := svc.RecordSale(ctx, dealerActor, RecordSaleRequest{
			ConsignmentLineID: lineID.String(),
			Quantity:          1,
			SoldDate:          "2026-08-15",
		})
		if err != nil {
			t.Fatalf("RecordSale: %v", err)
		}
		if _, err := svc.MarkPendingInvoice(ctx, dealerActor, sale.ID.String()); err != nil {
			t.Fatalf("MarkPendingInvoice: %v", err)
		}

		if _, err := svc.CancelSale(ctx, dealerActor, sale.ID.String()); !errors.Is(err, apperr.ErrInvalidState) {
			t.Fatalf("err = %v, want invalid state", err)
		}
	})
}
