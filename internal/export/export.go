// Package export serializes computed report rows to CSV and XLSX for
// download. It works on already-derived report entries and never touches
// the database.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"backend/internal/model"

	"github.com/xuri/excelize/v2"
)

// Report is a tabular report ready for serialization.
type Report struct {
	Title   string
	Headers []string
	Rows    [][]interface{}
}

const dateFormat = "2006-01-02"

func LeaderboardReport(entries []model.LeaderboardEntry) Report {
	r := Report{
		Title:   "Dealer Leaderboard",
		Headers: []string{"Dealer", "Total Invoiced"},
	}
	for _, e := range entries {
		r.Rows = append(r.Rows, []interface{}{e.DealerName, e.TotalInvoiced.StringFixed(2)})
	}
	return r
}

func AgedInventoryReport(buckets []model.AgedInventoryBucket) Report {
	r := Report{
		Title:   "Aged Inventory",
		Headers: []string{"Age Bucket", "Pieces Remaining", "Remaining Value", "Consignments"},
	}
	for _, b := range buckets {
		r.Rows = append(r.Rows, []interface{}{b.Bucket, b.PiecesRemaining, b.RemainingValue.StringFixed(2), b.Consignments})
	}
	return r
}

func SellThroughReport(entries []model.SellThroughEntry) Report {
	r := Report{
		Title:   "Sell-Through",
		Headers: []string{"Dealer", "Pieces Assigned", "Pieces Sold", "Rate %"},
	}
	for _, e := range entries {
		r.Rows = append(r.Rows, []interface{}{e.DealerName, e.PiecesAssigned, e.PiecesSold, fmt.Sprintf("%.1f", e.Rate)})
	}
	return r
}

func DamageReturnReport(entries []model.DamageReturnEntry) Report {
	r := Report{
		Title:   "Damage and Returns",
		Headers: []string{"Sale ID", "Item", "Dealer", "Status", "Quantity", "Sold Date"},
	}
	for _, e := range entries {
		r.Rows = append(r.Rows, []interface{}{e.SaleID, e.ItemName, e.DealerName, e.Status, e.Quantity, e.SoldDate.Format(dateFormat)})
	}
	return r
}

// WriteCSV streams the report as RFC 4180 CSV with a header row.
func WriteCSV(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(report.Headers); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range report.Rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = fmt.Sprint(cell)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX streams the report as a single-sheet workbook.
func WriteXLSX(w io.Writer, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	for i, h := range report.Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for rowIdx, row := range report.Rows {
		for colIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
