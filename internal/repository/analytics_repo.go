package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Raw joined rows scanned from SQL; the analytics service derives the
// report projections from these.

type DealerInvoiceTotalRow struct {
	DealerOrgID   string          `gorm:"column:dealer_org_id"`
	DealerName    string          `gorm:"column:dealer_name"`
	TotalInvoiced decimal.Decimal `gorm:"column:total_invoiced"`
}

type ActiveConsignmentRow struct {
	ConsignmentID   string          `gorm:"column:consignment_id"`
	StartDate       time.Time       `gorm:"column:start_date"`
	PiecesRemaining int             `gorm:"column:pieces_remaining"`
	RemainingValue  decimal.Decimal `gorm:"column:remaining_value"`
}

type DealerPieceCountRow struct {
	DealerOrgID     string `gorm:"column:dealer_org_id"`
	DealerName      string `gorm:"column:dealer_name"`
	PiecesAssigned  int    `gorm:"column:pieces_assigned"`
	PiecesRemaining int    `gorm:"column:pieces_remaining"`
}

type DamageReturnRow struct {
	SaleID     string    `gorm:"column:sale_id"`
	ItemName   string    `gorm:"column:item_name"`
	DealerName string    `gorm:"column:dealer_name"`
	Status     string    `gorm:"column:status"`
	Quantity   int       `gorm:"column:quantity"`
	SoldDate   time.Time `gorm:"column:sold_date"`
}

type DashboardTotalsRow struct {
	TotalConsignedValue decimal.Decimal `gorm:"column:total_consigned_value"`
	TotalPiecesAssigned int             `gorm:"column:total_pieces_assigned"`
	TotalUnitsSold      int             `gorm:"column:total_units_sold"`
	TotalInvoiced       decimal.Decimal `gorm:"column:total_invoiced"`
	ActiveDealers       int             `gorm:"column:active_dealers"`
}

type AnalyticsRepository interface {
	InvoiceTotalsByDealer(ctx context.Context, from, to time.Time, dealerOrgID string) ([]DealerInvoiceTotalRow, error)
	ActiveConsignmentRemainders(ctx context.Context, dealerOrgID string) ([]ActiveConsignmentRow, error)
	PieceCountsByDealer(ctx context.Context, dealerOrgID string) ([]DealerPieceCountRow, error)
	DamageReturns(ctx context.Context, from, to time.Time, dealerOrgID string) ([]DamageReturnRow, error)
	DashboardTotals(ctx context.Context) (DashboardTotalsRow, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) InvoiceTotalsByDealer(ctx context.Context, from, to time.Time, dealerOrgID string) ([]DealerInvoiceTotalRow, error) {
	db := GetDB(ctx, r.db).Table("invoices").
		Select("invoices.dealer_org_id as dealer_org_id, COALESCE(organizations.name, '') as dealer_name, COALESCE(SUM(invoices.total), 0) as total_invoiced").
		Joins("LEFT JOIN organizations ON organizations.id = invoices.dealer_org_id").
		Where("invoices.status <> ?", "cancelled").
		Where("invoices.invoice_date >= ? AND invoices.invoice_date <= ?", from, to).
		Group("invoices.dealer_org_id, organizations.name")
	if dealerOrgID != "" {
		db = db.Where("invoices.dealer_org_id = ?", dealerOrgID)
	}

	var rows []DealerInvoiceTotalRow
	if err := db.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query invoice totals: %w", err)
	}
	return rows, nil
}

func (r *analyticsRepository) ActiveConsignmentRemainders(ctx context.Context, dealerOrgID string) ([]ActiveConsignmentRow, error) {
	db := GetDB(ctx, r.db).Table("consignments").
		Select("consignments.id as consignment_id, consignments.start_date as start_date, COALESCE(SUM(consignment_lines.pieces_remaining), 0) as pieces_remaining, COALESCE(SUM(consignment_lines.pieces_remaining * consignment_lines.dealer_price), 0) as remaining_value").
		Joins("LEFT JOIN consignment_lines ON consignment_lines.consignment_id = consignments.id").
		Where("consignments.status = ?", "active").
		Group("consignments.id, consignments.start_date")
	if dealerOrgID != "" {
		db = db.Where("consignments.dealer_org_id = ?", dealerOrgID)
	}

	var rows []ActiveConsignmentRow
	if err := db.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query active consignments: %w", err)
	}
	return rows, nil
}

func (r *analyticsRepository) PieceCountsByDealer(ctx context.Context, dealerOrgID string) ([]DealerPieceCountRow, error) {
	db := GetDB(ctx, r.db).Table("consignment_lines").
		Select("consignments.dealer_org_id as dealer_org_id, COALESCE(organizations.name, '') as dealer_name, COALESCE(SUM(consignment_lines.pieces_assigned), 0) as pieces_assigned, COALESCE(SUM(consignment_lines.pieces_remaining), 0) as pieces_remaining").
		Joins("JOIN consignments ON consignments.id = consignment_lines.consignment_id").
		Joins("LEFT JOIN organizations ON organizations.id = consignments.dealer_org_id").
		Group("consignments.dealer_org_id, organizations.name")
	if dealerOrgID != "" {
		db = db.Where("consignments.dealer_org_id = ?", dealerOrgID)
	}

	var rows []DealerPieceCountRow
	if err := db.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query piece counts: %w", err)
	}
	return rows, nil
}

func (r *analyticsRepository) DamageReturns(ctx context.Context, from, to time.Time, dealerOrgID string) ([]DamageReturnRow, error) {
	db := GetDB(ctx, r.db).Table("sales").
		Select("sales.id as sale_id, COALESCE(catalog_items.name, '') as item_name, COALESCE(organizations.name, '') as dealer_name, sales.status as status, sales.quantity as quantity, sales.sold_date as sold_date").
		Joins("LEFT JOIN consignment_lines ON consignment_lines.id = sales.consignment_line_id").
		Joins("LEFT JOIN catalog_items ON catalog_items.id = consignment_lines.item_id").
		Joins("LEFT JOIN consignments ON consignments.id = consignment_lines.consignment_id").
		Joins("LEFT JOIN organizations ON organizations.id = consignments.dealer_org_id").
		Where("sales.status IN ?", []string{"damaged", "returned"}).
		Where("sales.sold_date >= ? AND sales.sold_date <= ?", from, to).
		Order("sales.sold_date desc")
	if dealerOrgID != "" {
		db = db.Where("consignments.dealer_org_id = ?", dealerOrgID)
	}

	var rows []DamageReturnRow
	if err := db.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query damage/returns: %w", err)
	}
	return rows, nil
}

func (r *analyticsRepository) DashboardTotals(ctx context.Context) (DashboardTotalsRow, error) {
	var row DashboardTotalsRow
	err := GetDB(ctx, r.db).Raw(`
		SELECT
			COALESCE((SELECT SUM(pieces_assigned * dealer_price) FROM consignment_lines), 0) AS total_consigned_value,
			COALESCE((SELECT SUM(pieces_assigned) FROM consignment_lines), 0) AS total_pieces_assigned,
			COALESCE((SELECT SUM(quantity) FROM sales WHERE status NOT IN ('cancelled')), 0) AS total_units_sold,
			COALESCE((SELECT SUM(total) FROM invoices WHERE status <> 'cancelled'), 0) AS total_invoiced,
			COALESCE((SELECT COUNT(DISTINCT dealer_org_id) FROM consignments WHERE status = 'active'), 0) AS active_dealers
	`).Scan(&row).Error
	if err != nil {
		return DashboardTotalsRow{}, fmt.Errorf("failed to query dashboard totals: %w", err)
	}
	return row, nil
}
