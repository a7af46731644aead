package database

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"trackswift/internal/ledger"
	"trackswift/internal/models"
)

const (
	recentLimit         = 5
	pendingInvoiceLimit = 10
	monthlyWindow       = 12
)

// Dashboard gathers the tenant's headline figures. All totals are reduced
// in Go so the same query runs on MySQL and SQLite.
func Dashboard(ctx context.Context, db *gorm.DB, tenantID, currency string) (*models.DashboardData, error) {
	data := &models.DashboardData{Currency: currency}

	// 1. Totals over every sale and expense
	var sales []models.Sale
	if err := Scoped(ctx, db, tenantID).Find(&sales).Error; err != nil {
		return nil, err
	}
	var expenses []models.Expense
	if err := Scoped(ctx, db, tenantID).Find(&expenses).Error; err != nil {
		return nil, err
	}
	overview := ledger.Summarize(sales, expenses)
	data.TotalSales = overview.TotalSales
	data.TotalExpenses = overview.TotalExpenses
	data.Profit = overview.Profit

	// 2. Monthly series, trailing window
	since := time.Now().UTC().AddDate(0, -(monthlyWindow - 1), 0)
	since = time.Date(since.Year(), since.Month(), 1, 0, 0, 0, 0, time.UTC)
	var windowed []models.Sale
	for _, s := range sales {
		if !s.Date.UTC().Before(since) {
			windowed = append(windowed, s)
		}
	}
	data.MonthlySales = ledger.MonthlySales(windowed)

	// 3. Recent transactions
	data.RecentTransactions.Sales = []models.Sale{}
	if err := Scoped(ctx, db, tenantID).Order("date desc").Limit(recentLimit).Find(&data.RecentTransactions.Sales).Error; err != nil {
		return nil, err
	}
	data.RecentTransactions.Expenses = []models.Expense{}
	if err := Scoped(ctx, db, tenantID).Order("date desc").Limit(recentLimit).Find(&data.RecentTransactions.Expenses).Error; err != nil {
		return nil, err
	}

	// 4. Low stock
	data.LowStockAlerts = []models.InventoryItem{}
	if err := Scoped(ctx, db, tenantID).Where("current_stock <= minimum_stock").Order("current_stock asc").Find(&data.LowStockAlerts).Error; err != nil {
		return nil, err
	}
	for i := range data.LowStockAlerts {
		ledger.DecorateItem(&data.LowStockAlerts[i])
	}

	// 5. Oldest unpaid invoices first
	data.PendingInvoices = []models.Invoice{}
	if err := Scoped(ctx, db, tenantID).Where("status = ?", models.StatusPending).Order("date asc").Limit(pendingInvoiceLimit).Find(&data.PendingInvoices).Error; err != nil {
		return nil, err
	}
	if err := NameInvoiceVendors(ctx, db, tenantID, data.PendingInvoices); err != nil {
		return nil, err
	}

	return data, nil
}

// StockValuation groups the tenant's inventory by category and values it at
// cost.
func StockValuation(ctx context.Context, db *gorm.DB, tenantID, currency string) (models.ValuationResponse, error) {
	items, err := AllInventory(ctx, db, tenantID)
	if err != nil {
		return models.ValuationResponse{}, err
	}
	resp := ledger.Valuation(items)
	resp.Currency = currency
	return resp, nil
}

// SalesReport holds the figures the assistant quotes for a period.
type SalesReport struct {
	Totals   ledger.SaleTotals
	Expenses decimal.Decimal
	Count    int
}

// GetSalesReport sums the tenant's sales and expenses within [start, end].
func GetSalesReport(ctx context.Context, db *gorm.DB, tenantID string, start, end time.Time) (*SalesReport, error) {
	sales, err := SalesBetween(ctx, db, tenantID, start, end)
	if err != nil {
		return nil, err
	}
	var expenses []models.Expense
	err = Scoped(ctx, db, tenantID).
		Where("date BETWEEN ? AND ?", start.UTC(), end.UTC()).
		Find(&expenses).Error
	if err != nil {
		return nil, err
	}

	return &SalesReport{
		Totals:   ledger.SumSales(sales),
		Expenses: ledger.SumExpenses(expenses),
		Count:    len(sales),
	}, nil
}
