package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"trackswift/internal/ledger"
	"trackswift/internal/models"
)

const (
	salesSheet = "Sales"
	// XLSXContentType is the media type of the workbook.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var salesHeadings = []string{"Date", "Customer", "Status", "Collected", "Credit", "Total", "Currency"}

// SalesWorkbook writes the sales of a period, one row each, with a totals row.
func SalesWorkbook(sales []models.Sale) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", salesSheet); err != nil {
		return nil, err
	}

	// Add headers
	for i, h := range salesHeadings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(salesSheet, cell, h); err != nil {
			return nil, err
		}
	}

	// Add data
	for i, s := range sales {
		row := i + 2
		values := []interface{}{
			s.Date.UTC().Format(time.DateOnly),
			s.CustomerName,
			s.Status,
			s.CollectedAmount.InexactFloat64(),
			s.CreditAmount.InexactFloat64(),
			s.TotalAmount.InexactFloat64(),
			s.Currency,
		}
		if err := f.SetSheetRow(salesSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, err
		}
	}

	totals := ledger.SumSales(sales)
	last := []interface{}{
		"Total", fmt.Sprintf("%d sales", totals.Count), "",
		totals.Collected.InexactFloat64(),
		totals.Credit.InexactFloat64(),
		totals.Total.InexactFloat64(),
	}
	if err := f.SetSheetRow(salesSheet, fmt.Sprintf("A%d", len(sales)+2), &last); err != nil {
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr("#,##0.000")})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(salesSheet, "D2", fmt.Sprintf("F%d", len(sales)+2), style); err != nil {
		return nil, err
	}

	return f.WriteToBuffer()
}

func strPtr(s string) *string { return &s }
