package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"backend/internal/apperr"
	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type invoiceFixture struct {
	svc         InvoiceService
	saleSvc     SaleService
	consignRepo *fakeConsignmentRepo
	saleRepo    *fakeSaleRepo
	invoiceRepo *fakeInvoiceRepo
	auditRepo   *fakeAuditRepo
	dispatcher  *recordingDispatcher
	dealerID    uuid.UUID
	lineID      uuid.UUID
}

// newInvoiceFixture sets up a dealer consignment with 10 pieces at 125.50
// and returns services sharing the same fakes.
func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()
	ctx := context.Background()

	f := &invoiceFixture{
		consignRepo: newFakeConsignmentRepo(),
		invoiceRepo: newFakeInvoiceRepo(),
		auditRepo:   &fakeAuditRepo{},
		dispatcher:  &recordingDispatcher{},
		dealerID:    uuid.New(),
	}
	f.saleRepo = newFakeSaleRepo(f.consignRepo)

	consignment := &model.Consignment{
		DealerOrgID:       f.dealerID,
		ManufacturerOrgID: uuid.New(),
		StartDate:         time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:            model.ConsignmentActive,
	}
	if err := f.consignRepo.Create(ctx, consignment); err != nil {
		t.Fatalf("create consignment: %v", err)
	}
	line := &model.ConsignmentLine{
		ConsignmentID:   consignment.ID,
		ItemID:          uuid.New(),
		PiecesAssigned:  10,
		PiecesRemaining: 10,
		DealerPrice:     decimal.RequireFromString("125.50"),
	}
	if err := f.consignRepo.CreateLine(ctx, line); err != nil {
		t.Fatalf("create line: %v", err)
	}
	f.lineID = line.ID

	f.saleSvc = NewSaleService(f.saleRepo, f.consignRepo, f.auditRepo, fakeTxManager{}, &recordingDispatcher{})
	f.svc = NewInvoiceService(f.invoiceRepo, f.saleRepo, f.consignRepo, f.auditRepo, fakeTxManager{}, f.dispatcher)
	return f
}

// billableSale records a sale and moves it to pending_invoice.
func (f *invoiceFixture) billableSale(t *testing.T, quantity int) *model.Sale {
	t.Helper()
	ctx := context.Background()
	sale, err := f.saleSvc.RecordSale(ctx, dealerActor, RecordSaleRequest{
		ConsignmentLineID: f.lineID.String(),
		Quantity:          quantity,
		SoldDate:          "2026-08-10",
	})
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}
	if _, err := f.saleSvc.MarkPendingInvoice(ctx, dealerActor, sale.ID.String()); err != nil {
		t.Fatalf("MarkPendingInvoice: %v", err)
	}
	return sale
}

func TestCompileInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("totals, numbering and billing flips", func(t *testing.T) {
		f := newInvoiceFixture(t)
		sale := f.billableSale(t, 3)

		invoice, err := f.svc.CompileInvoice(ctx, manufacturerActor, CompileInvoiceRequest{
			DealerOrgID:    f.dealerID.String(),
			SaleIDs:        []string{sale.ID.String()},
			TaxRatePercent: "8",
		})
		if err != nil {
			t.Fatalf("CompileInvoice: %v", err)
		}

		// 3 x 125.50 = 376.50; 8% tax = 30.12; total 406.62
		if got := invoice.Subtotal.StringFixed(2); got != "376.50" {
			t.Errorf("subtotal = %s, want 376.50", got)
		}
		if got := invoice.Tax.StringFixed(2); got != "30.12" {
			t.Errorf("tax = %s, want 30.12", got)
		}
		if got := invoice.Total.StringFixed(2); got != "406.62" {
			t.Errorf("total = %s, want 406.62", got)
		}
		if invoice.Status != model.InvoiceDraft {
			t.Errorf("status = %q, want draft", invoice.Status)
		}

		wantNumber := fmt.Sprintf("INV-%s-00001", time.Now().Format("20060102"))
		if invoice.InvoiceNumber != wantNumber {
			t.Errorf("invoice number = %q, want %q", invoice.InvoiceNumber, wantNumber)
		}

		if len(invoice.Lines) != 1 {
			t.Fatalf("lines = %d, want 1", len(invoice.Lines))
		}
		if got := invoice.Lines[0].UnitPrice.StringFixed(2); got != "125.50" {
			t.Errorf("unit price = %s, want the snapshotted 125.50", got)
		}

		billed, _ := f.saleRepo.FindByID(ctx, sale.ID)
		if billed.Status != model.SaleBilled {
			t.Errorf("sale status = %q, want billed", billed.Status)
		}

		// Billing never touches stock; only the sale consumed pieces.
		line, _ := f.consignRepo.FindLineByID(ctx, f.lineID)
		if line.PiecesRemaining != 7 {
			t.Errorf("pieces remaining = %d, want 7", line.PiecesRemaining)
		}
	})

	t.Run("recompiling the same sales fails", func(t *testing.T) {
		f := newInvoiceFixture(t)
		sale := f.billableSale(t, 3)

		req := CompileInvoiceRequest{
			DealerOrgID:    f.dealerID.String(),
			SaleIDs:        []string{sale.ID.String()},
			TaxRatePercent: "8",
		}
		if _, err := f.svc.CompileInvoice(ctx, manufacturerActor, req); err != nil {
			t.Fatalf("first CompileInvoice: %v", err)
		}
		if _, err := f.svc.CompileInvoice(ctx, manufacturerActor, req); !errors.Is(err, apperr.ErrInvalidState) {
			t.Fatalf("second CompileInvoice: err = %v, want ErrInvalidState", err)
		}
	})

	t.Run("sequence increments within the day", func(t *testing.T) {
		f := newInvoiceFixture(t)
		first := f.billableSale(t, 1)
		second := f.billableSale(t, 1)

		inv1, err := f.svc.CompileInvoice(ctx, manufacturerActor, CompileInvoiceRequest{
			DealerOrgID: f.dealerID.String(),
			SaleIDs:     []string{first.ID.String()},
		})
		if err != nil {
			t.Fatalf("first compile: %v", err)
		}
		inv2, err := f.svc.CompileInvoice(ctx, manufacturerActor, CompileInvoiceRequest{
			DealerOrgID: f.dealerID.String(),
			SaleIDs:     []string{second.ID.String()},
		})
		if err != nil {
			t.Fatalf("second compile: %v", err)
		}
		if inv1.InvoiceNumber == inv2.InvoiceNumber {
			t.Fatalf("both invoices numbered %q", inv1.InvoiceNumber)
		}
	})

	t.Run("rejects the whole batch when one sale is not billable", func(t *testing.T) {
		f := newInvoiceFixture(t)
		good := f.billableSale(t, 2)
		stillPending, err := f.saleSvc.RecordSale(ctx, dealerActor, RecordSaleRequest{
			ConsignmentLineID: f.lineID.String(),
			Quantity:          1,
			SoldDate:          "2026-08-10",
		})
		if err != nil {
			t.Fatalf("RecordSale: %v", err)
		}

		_, err = f.svc.CompileInvoice(ctx, manufacturerActor, CompileInvoiceRequest{
			DealerOrgID: f.dealerID.String(),
			SaleIDs:     []string{good.ID.String(), stillPending.ID.String()},
		})
		if !errors.Is(err, apperr.ErrInvalidState) {
			t.Fatalf("err = %v, want invalid state", err)
		}

		// The billable sale must stay unbilled.
		reloaded, _ := f.saleRepo.FindByID(ctx, good.ID)
		if reloaded.Status != model.SalePendingInvoice {
			t.Errorf("sale status = %q, want pending_invoice untouched", reloaded.Status)
		}
	})

	t.Run("rejects a sale belonging to another dealer", func(t *testing.T) {
		f := newInvoiceFixture(t)
		sale := f.billableSale(t, 1)

		_, err := f.svc.CompileInvoice(ctx, manufacturerActor, CompileInvoiceRequest{
			DealerOrgID: uuid.New().String(),
			SaleIDs:     []string{sale.ID.String()},
		})
		if !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("err = %v, want validation", err)
		}
	})

	t.Run("rejects duplicate sale ids in the batch", func(t *testing.T) {
		f := newInvoiceFixture(t)
		sale := f.billableSale(t, 1)

		_, err := f.svc.CompileInvoice(ctx, manufacturerActor, CompileInvoiceRequest{
			DealerOrgID: f.dealerID.String(),
			SaleIDs:     []string{sale.ID.String(), sale.ID.String()},
		})
		if !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("err = %v, want validation", err)
		}
	})

	t.Run("rejects dealer-side actor", func(t *testing.T) {
		f := newInvoiceFixture(t)
		sale := f.billableSale(t, 1)

		_, err := f.svc.CompileInvoice(ctx, dealerActor, CompileInvoiceRequest{
			DealerOrgID: f.dealerID.String(),
			SaleIDs:     []string{sale.ID.String()},
		})
		if !errors.Is(err, apperr.ErrForbidden) {
			t.Fatalf("err = %v, want forbidden", err)
		}
	})
}

func TestTransitionInvoice(t *testing.T) {
	ctx := context.Background()

	compile := func(t *testing.T, f *invoiceFixture) *model.Invoice {
		t.Helper()
		sale := f.billableSale(t, 2)
		invoice, err := f.svc.CompileInvoice(ctx, manufacturerActor, CompileInvoiceRequest{
			DealerOrgID: f.dealerID.String(),
			SaleIDs:     []string{sale.ID.String()},
		})
		if err != nil {
			t.Fatalf("CompileInvoice: %v", err)
		}
		return invoice
	}

	advance := func(t *testing.T, f *invoiceFixture, id, status string) *model.Invoice {
		t.Helper()
		invoice, err := f.svc.TransitionInvoice(ctx, manufacturerActor, id, TransitionInvoiceRequest{Status: status})
		if err != nil {
			t.Fatalf("TransitionInvoice(%s): %v", status, err)
		}
		return invoice
	}

	t.Run("walks draft to paid and notifies on sent", func(t *testing.T) {
		f := newInvoiceFixture(t)
		invoice := compile(t, f)
		id := invoice.ID.String()

		advance(t, f, id, model.InvoicePending)
		sent := advance(t, f, id, model.InvoiceSent)
		if sent.Status != model.InvoiceSent {
			t.Errorf("status = %q, want sent", sent.Status)
		}
		if got := f.dispatcher.types(); len(got) != 1 || got[0] != "invoice_sent" {
			t.Errorf("dispatched events = %v, want [invoice_sent]", got)
		}

		paid := advance(t, f, id, model.InvoicePaid)
		if paid.Status != model.InvoicePaid {
			t.Errorf("status = %q, want paid", paid.Status)
		}
	})

	t.Run("rejects skipping states", func(t *testing.T) {
		f := newInvoiceFixture(t)
		invoice := compile(t, f)

		_, err := f.svc.TransitionInvoice(ctx, manufacturerActor, invoice.ID.String(), TransitionInvoiceRequest{Status: model.InvoicePaid})
		if !errors.Is(err, apperr.ErrInvalidState) {
			t.Fatalf("err = %v, want invalid state", err)
		}
	})

	t.Run("paid invoices cannot be cancelled", func(t *testing.T) {
		f := newInvoiceFixture(t)
		invoice := compile(t, f)
		id := invoice.ID.String()
		advance(t, f, id, model.InvoicePending)
		advance(t, f, id, model.InvoiceSent)
		advance(t, f, id, model.InvoicePaid)

		_, err := f.svc.TransitionInvoice(ctx, manufacturerActor, id, TransitionInvoiceRequest{Status: model.InvoiceCancelled})
		if !errors.Is(err, apperr.ErrInvalidState) {
			t.Fatalf("err = %v, want invalid state", err)
		}
	})

	t.Run("cancellation leaves the sales billed", func(t *testing.T) {
		f := newInvoiceFixture(t)
		sale := f.billableSale(t, 2)
		invoice, err := f.svc.CompileInvoice(ctx, manufacturerActor, CompileInvoiceRequest{
			DealerOrgID: f.dealerID.String(),
			SaleIDs:     []string{sale.ID.String()},
		})
		if err != nil {
			t.Fatalf("CompileInvoice: %v", err)
		}

		advance(t, f, invoice.ID.String(), model.InvoiceCancelled)

		reloaded, _ := f.saleRepo.FindByID(ctx, sale.ID)
		if reloaded.Status != model.SaleBilled {
			t.Errorf("sale status = %q after invoice cancel, want still billed", reloaded.Status)
		}
	})
}
