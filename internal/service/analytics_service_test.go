package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/shopspring/decimal"
)

type stubAnalyticsRepo struct {
	invoiceTotals []repository.DealerInvoiceTotalRow
	remainders    []repository.ActiveConsignmentRow
	pieceCounts   []repository.DealerPieceCountRow
	damageReturns []repository.DamageReturnRow
	dashboard     repository.DashboardTotalsRow
}

func (s *stubAnalyticsRepo) InvoiceTotalsByDealer(context.Context, time.Time, time.Time, string) ([]repository.DealerInvoiceTotalRow, error) {
	return s.invoiceTotals, nil
}

func (s *stubAnalyticsRepo) ActiveConsignmentRemainders(context.Context, string) ([]repository.ActiveConsignmentRow, error) {
	return s.remainders, nil
}

func (s *stubAnalyticsRepo) PieceCountsByDealer(context.Context, string) ([]repository.DealerPieceCountRow, error) {
	return s.pieceCounts, nil
}

func (s *stubAnalyticsRepo) DamageReturns(context.Context, time.Time, time.Time, string) ([]repository.DamageReturnRow, error) {
	return s.damageReturns, nil
}

func (s *stubAnalyticsRepo) DashboardTotals(context.Context) (repository.DashboardTotalsRow, error) {
	return s.dashboard, nil
}

func TestLeaderboard(t *testing.T) {
	svc := NewAnalyticsService(&stubAnalyticsRepo{
		invoiceTotals: []repository.DealerInvoiceTotalRow{
			{DealerOrgID: "b", DealerName: "Beta Stone", TotalInvoiced: decimal.NewFromInt(500)},
			{DealerOrgID: "a", DealerName: "Alpha Granite", TotalInvoiced: decimal.NewFromInt(900)},
			{DealerOrgID: "c", DealerName: "", TotalInvoiced: decimal.NewFromInt(500)},
		},
	})

	entries, err := svc.Leaderboard(context.Background(), model.ReportRange{})
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	// Highest first; ties broken by name; missing join becomes Unknown.
	if entries[0].DealerName != "Alpha Granite" {
		t.Errorf("first = %q, want Alpha Granite", entries[0].DealerName)
	}
	if entries[1].DealerName != "Beta Stone" || entries[2].DealerName != model.UnknownDealer {
		t.Errorf("tie order = [%q, %q], want [Beta Stone, Unknown]", entries[1].DealerName, entries[2].DealerName)
	}
}

func TestAgedInventoryBuckets(t *testing.T) {
	asOf := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	day := func(daysAgo int) time.Time { return asOf.AddDate(0, 0, -daysAgo) }

	svc := NewAnalyticsService(&stubAnalyticsRepo{
		remainders: []repository.ActiveConsignmentRow{
			{ConsignmentID: "a", StartDate: day(30), PiecesRemaining: 5, RemainingValue: decimal.NewFromInt(100)},
			{ConsignmentID: "b", StartDate: day(31), PiecesRemaining: 3, RemainingValue: decimal.NewFromInt(60)},
			{ConsignmentID: "c", StartDate: day(60), PiecesRemaining: 2, RemainingValue: decimal.NewFromInt(40)},
			{ConsignmentID: "d", StartDate: day(90), PiecesRemaining: 1, RemainingValue: decimal.NewFromInt(20)},
			{ConsignmentID: "e", StartDate: day(91), PiecesRemaining: 7, RemainingValue: decimal.NewFromInt(140)},
		},
	})

	buckets, err := svc.AgedInventory(context.Background(), "", asOf)
	if err != nil {
		t.Fatalf("AgedInventory: %v", err)
	}
	if len(buckets) != 4 {
		t.Fatalf("buckets = %d, want 4 fixed buckets", len(buckets))
	}

	want := map[string]int{
		model.AgeBucket0To30:  5, // day 30 belongs to the first bucket
		model.AgeBucket31To60: 5, // days 31 and 60
		model.AgeBucket61To90: 1, // day 90 is inclusive
		model.AgeBucket90Plus: 7,
	}
	for _, b := range buckets {
		if b.PiecesRemaining != want[b.Bucket] {
			t.Errorf("bucket %q pieces = %d, want %d", b.Bucket, b.PiecesRemaining, want[b.Bucket])
		}
	}
}

func TestAgedInventoryEmptyBucketsPresent(t *testing.T) {
	svc := NewAnalyticsService(&stubAnalyticsRepo{})

	buckets, err := svc.AgedInventory(context.Background(), "", time.Now())
	if err != nil {
		t.Fatalf("AgedInventory: %v", err)
	}
	if len(buckets) != 4 {
		t.Fatalf("buckets = %d, want all 4 even when empty", len(buckets))
	}
	for _, b := range buckets {
		if b.PiecesRemaining != 0 || b.Consignments != 0 {
			t.Errorf("bucket %q not empty: %+v", b.Bucket, b)
		}
	}
}

func TestSellThrough(t *testing.T) {
	svc := NewAnalyticsService(&stubAnalyticsRepo{
		pieceCounts: []repository.DealerPieceCountRow{
			{DealerOrgID: "a", DealerName: "Alpha Granite", PiecesAssigned: 10, PiecesRemaining: 7},
			{DealerOrgID: "b", DealerName: "Beta Stone", PiecesAssigned: 0, PiecesRemaining: 0},
		},
	})

	entries, err := svc.SellThrough(context.Background(), "")
	if err != nil {
		t.Fatalf("SellThrough: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	alpha := entries[0]
	if alpha.PiecesSold != 3 || alpha.Rate != 30 {
		t.Errorf("alpha = sold %d rate %.1f, want sold 3 rate 30.0", alpha.PiecesSold, alpha.Rate)
	}

	beta := entries[1]
	if beta.Rate != 0 {
		t.Errorf("zero-assigned dealer rate = %.1f, want 0 without dividing by zero", beta.Rate)
	}
}

func TestDashboard(t *testing.T) {
	svc := NewAnalyticsService(&stubAnalyticsRepo{
		dashboard: repository.DashboardTotalsRow{
			TotalConsignedValue: decimal.NewFromInt(5000),
			TotalPiecesAssigned: 40,
			TotalUnitsSold:      12,
			TotalInvoiced:       decimal.NewFromInt(1800),
			ActiveDealers:       3,
		},
	})

	summary, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if summary.TotalPiecesAssigned != 40 || summary.ActiveDealers != 3 {
		t.Errorf("summary = %+v, want pass-through of repo totals", summary)
	}
	if !summary.TotalInvoiced.Equal(decimal.NewFromInt(1800)) {
		t.Errorf("total invoiced = %s, want 1800", summary.TotalInvoiced)
	}
}
