package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type AnalyticsService interface {
	Leaderboard(ctx context.Context, rng model.ReportRange) ([]model.LeaderboardEntry, error)
	AgedInventory(ctx context.Context, dealerOrgID string, asOf time.Time) ([]model.AgedInventoryBucket, error)
	SellThrough(ctx context.Context, dealerOrgID string) ([]model.SellThroughEntry, error)
	DamageReturns(ctx context.Context, rng model.ReportRange) ([]model.DamageReturnEntry, error)
	Dashboard(ctx context.Context) (*model.DashboardSummary, error)
}

type analyticsService struct {
	analyticsRepo repository.AnalyticsRepository
	log           zerolog.Logger
}

func NewAnalyticsService(analyticsRepo repository.AnalyticsRepository) AnalyticsService {
	return &analyticsService{
		analyticsRepo: analyticsRepo,
		log:           log.With().Str("component", "analytics_service").Logger(),
	}
}

// Leaderboard ranks dealers by non-cancelled invoiced total in the range,
// highest first. Ties break on dealer name so the ordering is stable.
func (s *analyticsService) Leaderboard(ctx context.Context, rng model.ReportRange) ([]model.LeaderboardEntry, error) {
	rows, err := s.analyticsRepo.InvoiceTotalsByDealer(ctx, rng.From, rng.To, rng.DealerOrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}

	entries := make([]model.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		name := row.DealerName
		if name == "" {
			name = model.UnknownDealer
		}
		entries = append(entries, model.LeaderboardEntry{
			DealerOrgID:   row.DealerOrgID,
			DealerName:    name,
			TotalInvoiced: row.TotalInvoiced,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		cmp := entries[i].TotalInvoiced.Cmp(entries[j].TotalInvoiced)
		if cmp != 0 {
			return cmp > 0
		}
		return entries[i].DealerName < entries[j].DealerName
	})
	return entries, nil
}

// AgedInventory groups every active consignment's unsold pieces into fixed
// age brackets measured from the consignment start date. Day 30 belongs to
// the first bracket, day 31 to the second, and so on.
func (s *analyticsService) AgedInventory(ctx context.Context, dealerOrgID string, asOf time.Time) ([]model.AgedInventoryBucket, error) {
	rows, err := s.analyticsRepo.ActiveConsignmentRemainders(ctx, dealerOrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to build aged inventory: %w", err)
	}

	order := []string{model.AgeBucket0To30, model.AgeBucket31To60, model.AgeBucket61To90, model.AgeBucket90Plus}
	buckets := make(map[string]*model.AgedInventoryBucket, len(order))
	for _, label := range order {
		buckets[label] = &model.AgedInventoryBucket{Bucket: label}
	}

	for _, row := range rows {
		label := ageBucketFor(row.StartDate, asOf)
		b := buckets[label]
		b.PiecesRemaining += row.PiecesRemaining
		b.RemainingValue = b.RemainingValue.Add(row.RemainingValue)
		b.Consignments++
	}

	out := make([]model.AgedInventoryBucket, 0, len(order))
	for _, label := range order {
		out = append(out, *buckets[label])
	}
	return out, nil
}

func ageBucketFor(startDate, asOf time.Time) string {
	days := int(asOf.Sub(startDate).Hours() / 24)
	if days < 0 {
		days = 0
	}
	switch {
	case days <= 30:
		return model.AgeBucket0To30
	case days <= 60:
		return model.AgeBucket31To60
	case days <= 90:
		return model.AgeBucket61To90
	default:
		return model.AgeBucket90Plus
	}
}

// SellThrough computes sold/assigned per dealer across all of their
// consignment lines. A dealer with zero assigned pieces reports a 0% rate
// rather than dividing by zero.
func (s *analyticsService) SellThrough(ctx context.Context, dealerOrgID string) ([]model.SellThroughEntry, error) {
	rows, err := s.analyticsRepo.PieceCountsByDealer(ctx, dealerOrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to build sell-through: %w", err)
	}

	entries := make([]model.SellThroughEntry, 0, len(rows))
	for _, row := range rows {
		name := row.DealerName
		if name == "" {
			name = model.UnknownDealer
		}
		sold := row.PiecesAssigned - row.PiecesRemaining
		if sold < 0 {
			sold = 0
		}
		rate := 0.0
		if row.PiecesAssigned > 0 {
			rate = float64(sold) / float64(row.PiecesAssigned) * 100
		}
		entries = append(entries, model.SellThroughEntry{
			DealerOrgID:    row.DealerOrgID,
			DealerName:     name,
			PiecesAssigned: row.PiecesAssigned,
			PiecesSold:     sold,
			Rate:           rate,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Rate != entries[j].Rate {
			return entries[i].Rate > entries[j].Rate
		}
		return entries[i].DealerName < entries[j].DealerName
	})
	return entries, nil
}

// DamageReturns lists damaged and returned sales in the range, newest first.
func (s *analyticsService) DamageReturns(ctx context.Context, rng model.ReportRange) ([]model.DamageReturnEntry, error) {
	rows, err := s.analyticsRepo.DamageReturns(ctx, rng.From, rng.To, rng.DealerOrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to build damage/return report: %w", err)
	}

	entries := make([]model.DamageReturnEntry, 0, len(rows))
	for _, row := range rows {
		dealer := row.DealerName
		if dealer == "" {
			dealer = model.UnknownDealer
		}
		item := row.ItemName
		if item == "" {
			item = model.UnknownDealer
		}
		entries = append(entries, model.DamageReturnEntry{
			SaleID:     row.SaleID,
			ItemName:   item,
			DealerName: dealer,
			Status:     row.Status,
			Quantity:   row.Quantity,
			SoldDate:   row.SoldDate,
		})
	}
	return entries, nil
}

func (s *analyticsService) Dashboard(ctx context.Context) (*model.DashboardSummary, error) {
	row, err := s.analyticsRepo.DashboardTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard summary: %w", err)
	}
	return &model.DashboardSummary{
		TotalConsignedValue: row.TotalConsignedValue,
		TotalPiecesAssigned: row.TotalPiecesAssigned,
		TotalUnitsSold:      row.TotalUnitsSold,
		TotalInvoiced:       row.TotalInvoiced,
		ActiveDealers:       row.ActiveDealers,
	}, nil
}
