package database

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"trackswift/internal/ledger"
	"trackswift/internal/logger"
	"trackswift/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := Connect("sqlite", dsn, 1, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedInvoice(t *testing.T, db *gorm.DB, tenant, vendor, number, bill, paid string, date time.Time) models.Invoice {
	t.Helper()
	inv := models.Invoice{
		TenantID:      tenant,
		VendorID:      vendor,
		InvoiceNumber: number,
		Date:          date,
		BillAmount:    d(bill),
		PaidAmount:    d(paid),
	}
	require.NoError(t, ledger.ApplyInvoice(&inv))
	require.NoError(t, db.Create(&inv).Error)
	return inv
}

func TestListVendorsDecoratesTotalsAndIsTenantScoped(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	acme := models.Vendor{TenantID: "t1", Name: "Acme"}
	other := models.Vendor{TenantID: "t2", Name: "Elsewhere"}
	require.NoError(t, db.Create(&acme).Error)
	require.NoError(t, db.Create(&other).Error)

	now := time.Now().UTC()
	seedInvoice(t, db, "t1", acme.ID, "INV-1", "100", "40", now)
	seedInvoice(t, db, "t1", acme.ID, "INV-2", "50", "50", now)

	vendors, page, err := ListVendors(ctx, db, "t1", ListFilter{})
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, "Acme", vendors[0].Name)
	assert.True(t, vendors[0].TotalAmount.Equal(d("150")))
	assert.True(t, vendors[0].PendingAmount.Equal(d("60")))

	n, err := CountVendorInvoices(ctx, db, "t1", acme.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestListInvoicesFiltersAndPaginates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	v := models.Vendor{TenantID: "t1", Name: "Acme"}
	require.NoError(t, db.Create(&v).Error)

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		paid := "0"
		if i%2 == 0 {
			paid = "10"
		}
		seedInvoice(t, db, "t1", v.ID, fmt.Sprintf("INV-%02d", i), "10", paid, base.AddDate(0, 0, i))
	}

	invoices, page, err := ListInvoices(ctx, db, "t1", ListFilter{Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, invoices, 5)
	assert.Equal(t, models.Pagination{Page: 2, Limit: 5, Total: 12, Pages: 3}, page)
	assert.Equal(t, "Acme", invoices[0].VendorName)

	pending, _, err := ListInvoices(ctx, db, "t1", ListFilter{Status: models.StatusPending, Limit: 100})
	require.NoError(t, err)
	assert.Len(t, pending, 6)

	start := base.AddDate(0, 0, 3)
	end := base.AddDate(0, 0, 5)
	ranged, _, err := ListInvoices(ctx, db, "t1", ListFilter{StartDate: &start, EndDate: &end, Limit: 100})
	require.NoError(t, err)
	assert.Len(t, ranged, 3)

	taken, err := InvoiceNumberTaken(ctx, db, "t1", "INV-00", "")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = InvoiceNumberTaken(ctx, db, "t2", "INV-00", "")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestListInventoryLowStock(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	items := []models.InventoryItem{
		{TenantID: "t1", Name: "Pens", SKU: "P-1", BoughtPrice: d("0.5"), CurrentStock: 3, MinimumStock: 5},
		{TenantID: "t1", Name: "Paper", SKU: "A4", BoughtPrice: d("2"), CurrentStock: 50, MinimumStock: 10},
	}
	for i := range items {
		require.NoError(t, db.Create(&items[i]).Error)
	}

	low, _, err := ListInventory(ctx, db, "t1", ListFilter{LowStock: true})
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Pens", low[0].Name)
	assert.True(t, low[0].LowStockAlert)
	assert.True(t, low[0].StockValue.Equal(d("1.5")))

	taken, err := SKUTaken(ctx, db, "t1", "A4", items[1].ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestDashboard(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	sale := models.Sale{TenantID: "t1", Date: now, CollectedAmount: d("150")}
	require.NoError(t, ledger.ApplySale(&sale))
	require.NoError(t, db.Create(&sale).Error)
	require.NoError(t, db.Create(&models.Expense{TenantID: "t1", Date: now, Description: "Rent", Category: "Rent", Amount: d("30"), PaymentMethod: models.PaymentCash}).Error)
	require.NoError(t, db.Create(&models.Expense{TenantID: "t2", Date: now, Description: "Other", Category: "Rent", Amount: d("999"), PaymentMethod: models.PaymentCash}).Error)

	data, err := Dashboard(ctx, db, "t1", "OMR")
	require.NoError(t, err)
	assert.True(t, data.TotalSales.Equal(d("150")))
	assert.True(t, data.TotalExpenses.Equal(d("30")))
	assert.True(t, data.Profit.Equal(d("120")))
	assert.Len(t, data.RecentTransactions.Sales, 1)
	assert.Len(t, data.MonthlySales, 1)
	assert.Empty(t, data.PendingInvoices)
	assert.Equal(t, "OMR", data.Currency)
}
