package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackswift/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDeriveInvoice(t *testing.T) {
	tests := []struct {
		name        string
		bill, paid  string
		wantBalance string
		wantStatus  string
		wantErr     error
	}{
		{name: "partly paid", bill: "500", paid: "200", wantBalance: "300.000", wantStatus: models.StatusPending},
		{name: "fully paid", bill: "500", paid: "500", wantBalance: "0.000", wantStatus: models.StatusPaid},
		{name: "nothing paid", bill: "12.345", paid: "0", wantBalance: "12.345", wantStatus: models.StatusPending},
		{name: "sub-fils rounding", bill: "1.0004", paid: "0.0001", wantBalance: "1.000", wantStatus: models.StatusPending},
		{name: "zero bill", bill: "0", paid: "0", wantErr: ErrInvalidBill},
		{name: "negative paid", bill: "10", paid: "-1", wantErr: ErrNegativePaid},
		{name: "overpaid", bill: "10", paid: "10.001", wantErr: ErrOverpayment},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DeriveInvoice(d(tc.bill), d(tc.paid))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantBalance, Format(got.Balance))
			assert.Equal(t, tc.wantStatus, got.Status)
		})
	}
}

func TestDeriveInvoiceProperty(t *testing.T) {
	// balance = bill - paid >= 0 and paid iff balance == 0, over a grid of fils.
	for bill := int64(1); bill <= 2000; bill += 37 {
		for paid := int64(0); paid <= bill; paid += 13 {
			b := decimal.New(bill, -Scale)
			p := decimal.New(paid, -Scale)
			got, err := DeriveInvoice(b, p)
			require.NoError(t, err)
			require.True(t, got.Balance.Equal(b.Sub(p)))
			require.False(t, got.Balance.IsNegative())
			require.Equal(t, got.Balance.IsZero(), got.Status == models.StatusPaid)
		}
	}
}

func TestDeriveSale(t *testing.T) {
	got, err := DeriveSale(d("50"), decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "50.000", Format(got.Total))
	assert.Equal(t, models.StatusPaid, got.Status)

	got, err = DeriveSale(d("50"), d("12.5"))
	require.NoError(t, err)
	assert.Equal(t, "62.500", Format(got.Total))
	assert.Equal(t, models.StatusPending, got.Status)

	_, err = DeriveSale(decimal.Zero, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidCollected)

	_, err = DeriveSale(d("1"), d("-0.001"))
	assert.ErrorIs(t, err, ErrNegativeCredit)
}

func TestDeriveSaleProperty(t *testing.T) {
	for collected := int64(1); collected <= 3000; collected += 71 {
		for credit := int64(0); credit <= 500; credit += 25 {
			c := decimal.New(collected, -Scale)
			cr := decimal.New(credit, -Scale)
			got, err := DeriveSale(c, cr)
			require.NoError(t, err)
			require.True(t, got.Total.Equal(c.Add(cr)))
			require.Equal(t, cr.IsPositive(), got.Status == models.StatusPending)
		}
	}
}

func TestApplySale(t *testing.T) {
	s := models.Sale{CollectedAmount: d("50"), CustomerName: "   "}
	require.NoError(t, ApplySale(&s))

	assert.Equal(t, WalkInCustomer, s.CustomerName)
	assert.Equal(t, models.DefaultCurrency, s.Currency)
	require.Len(t, s.Items, 1)
	assert.Nil(t, s.Items[0].Product)
	assert.Equal(t, 1, s.Items[0].Quantity)
	assert.Equal(t, "50.000", Format(s.Items[0].UnitPrice))
	assert.Equal(t, "50.000", Format(s.Items[0].TotalPrice))
}

func TestApplyInvoiceIgnoresClientDerivedFields(t *testing.T) {
	inv := models.Invoice{
		BillAmount:    d("500"),
		PaidAmount:    d("200"),
		BalanceAmount: d("999"),
		Status:        models.StatusPaid,
	}
	require.NoError(t, ApplyInvoice(&inv))
	assert.Equal(t, "300.000", Format(inv.BalanceAmount))
	assert.Equal(t, models.StatusPending, inv.Status)
}

func TestStockFlags(t *testing.T) {
	item := models.InventoryItem{CurrentStock: 3, MinimumStock: 3, BoughtPrice: d("1.250")}
	DecorateItem(&item)
	assert.True(t, item.LowStockAlert)
	assert.Equal(t, "3.750", Format(item.StockValue))

	item.CurrentStock = 4
	DecorateItem(&item)
	assert.False(t, item.LowStockAlert)
}

func TestSummarizeDashboardExample(t *testing.T) {
	sales := []models.Sale{{CollectedAmount: d("100")}, {CollectedAmount: d("50")}}
	expenses := []models.Expense{{Amount: d("30")}}

	got := Summarize(sales, expenses)
	assert.Equal(t, "150.000", Format(got.TotalSales))
	assert.Equal(t, "30.000", Format(got.TotalExpenses))
	assert.Equal(t, "120.000", Format(got.Profit))
}

func TestSummarizeDay(t *testing.T) {
	sales := []models.Sale{
		{CollectedAmount: d("20"), CreditAmount: d("5")},
		{CollectedAmount: d("10.5"), CreditAmount: decimal.Zero},
	}
	expenses := []models.Expense{{Amount: d("7.25")}, {Amount: d("0.25")}}

	got := SummarizeDay(sales, expenses)
	assert.Equal(t, "30.500", Format(got.Collections))
	assert.Equal(t, "5.000", Format(got.PendingCredit))
	assert.Equal(t, "7.500", Format(got.Expenses))
	assert.Equal(t, "23.000", Format(got.NetProfit))
}

func TestSumsOverEmptyLists(t *testing.T) {
	assert.Equal(t, "0.000", Format(SumInvoices(nil).Balance))
	assert.Equal(t, "0.000", Format(SumSales(nil).Total))
	assert.Equal(t, "0.000", Format(SumExpenses(nil)))
}

func TestVendorTotals(t *testing.T) {
	invoices := []models.Invoice{
		{VendorID: "a", BillAmount: d("100"), PaidAmount: d("40"), BalanceAmount: d("60")},
		{VendorID: "a", BillAmount: d("10"), PaidAmount: d("10"), BalanceAmount: d("0")},
		{VendorID: "b", BillAmount: d("5"), PaidAmount: d("0"), BalanceAmount: d("5")},
	}
	totals := VendorTotals(invoices)

	var v models.Vendor
	DecorateVendor(&v, totals["a"])
	assert.Equal(t, "110.000", Format(v.TotalAmount))
	assert.Equal(t, "60.000", Format(v.PendingAmount))
	assert.Equal(t, 1, totals["b"].Count)
}

func TestMonthlySalesOrdered(t *testing.T) {
	sales := []models.Sale{
		{Date: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), CollectedAmount: d("1")},
		{Date: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), CollectedAmount: d("2")},
		{Date: time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC), CollectedAmount: d("3")},
	}
	got := MonthlySales(sales)
	require.Len(t, got, 2)
	assert.Equal(t, models.MonthKey{Year: 2024, Month: 12}, got[0].ID)
	assert.Equal(t, "4.000", Format(got[1].Total))
}

func TestValuationGroupsByCategory(t *testing.T) {
	items := []models.InventoryItem{
		{Name: "Cola", Category: "Drinks", CurrentStock: 10, BoughtPrice: d("0.2")},
		{Name: "Water", Category: "Drinks", CurrentStock: 5, BoughtPrice: d("0.1")},
		{Name: "Mystery", CurrentStock: 1, BoughtPrice: d("3")},
	}
	got := Valuation(items)
	require.Len(t, got.Categories, 2)
	assert.Equal(t, "Drinks", got.Categories[0].CategoryName)
	assert.Equal(t, "2.500", Format(got.Categories[0].Subtotal))
	assert.Equal(t, "Uncategorized", got.Categories[1].CategoryName)
	assert.Equal(t, "5.500", Format(got.GrandTotal))
}

func TestFormatCurrencyAndParse(t *testing.T) {
	assert.Equal(t, "OMR 150.000", FormatCurrency("", d("150")))

	amt, err := ParseAmount(" 12.3456 ")
	require.NoError(t, err)
	assert.Equal(t, "12.346", Format(amt))

	amt, err = ParseAmount("")
	require.NoError(t, err)
	assert.True(t, amt.IsZero())

	_, err = ParseAmount("twelve")
	assert.Error(t, err)
}
