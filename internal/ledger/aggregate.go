package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"trackswift/internal/models"
)

// InvoiceTotals sums the amount columns of a set of invoices.
type InvoiceTotals struct {
	Bill    decimal.Decimal `json:"billAmount"`
	Paid    decimal.Decimal `json:"paidAmount"`
	Balance decimal.Decimal `json:"balanceAmount"`
	Count   int             `json:"count"`
}

func SumInvoices(invoices []models.Invoice) InvoiceTotals {
	var t InvoiceTotals
	for _, inv := range invoices {
		t.Bill = t.Bill.Add(inv.BillAmount)
		t.Paid = t.Paid.Add(inv.PaidAmount)
		t.Balance = t.Balance.Add(inv.BalanceAmount)
		t.Count++
	}
	return t
}

// SaleTotals sums the amount columns of a set of sales.
type SaleTotals struct {
	Collected decimal.Decimal `json:"collectedAmount"`
	Credit    decimal.Decimal `json:"creditAmount"`
	Total     decimal.Decimal `json:"totalAmount"`
	Count     int             `json:"count"`
}

func SumSales(sales []models.Sale) SaleTotals {
	var t SaleTotals
	for _, s := range sales {
		t.Collected = t.Collected.Add(s.CollectedAmount)
		t.Credit = t.Credit.Add(s.CreditAmount)
		t.Total = t.Total.Add(s.TotalAmount)
		t.Count++
	}
	return t
}

func SumExpenses(expenses []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// Overview is the headline of the dashboard. Sales count what was
// collected, so profit is on a cash basis.
type Overview struct {
	TotalSales    decimal.Decimal `json:"totalSales"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	Profit        decimal.Decimal `json:"profit"`
}

func Summarize(sales []models.Sale, expenses []models.Expense) Overview {
	totalSales := SumSales(sales).Collected
	totalExpenses := SumExpenses(expenses)
	return Overview{
		TotalSales:    totalSales,
		TotalExpenses: totalExpenses,
		Profit:        totalSales.Sub(totalExpenses),
	}
}

// DaySummary is the strip of cards above the daily sales table.
type DaySummary struct {
	Collections   decimal.Decimal `json:"collections"`
	PendingCredit decimal.Decimal `json:"pendingCredit"`
	Expenses      decimal.Decimal `json:"expenses"`
	NetProfit     decimal.Decimal `json:"netProfit"`
}

func SummarizeDay(sales []models.Sale, expenses []models.Expense) DaySummary {
	st := SumSales(sales)
	spent := SumExpenses(expenses)
	return DaySummary{
		Collections:   st.Collected,
		PendingCredit: st.Credit,
		Expenses:      spent,
		NetProfit:     st.Collected.Sub(spent),
	}
}

// VendorTotals groups invoice sums by vendor id.
func VendorTotals(invoices []models.Invoice) map[string]InvoiceTotals {
	byVendor := make(map[string][]models.Invoice)
	for _, inv := range invoices {
		byVendor[inv.VendorID] = append(byVendor[inv.VendorID], inv)
	}
	out := make(map[string]InvoiceTotals, len(byVendor))
	for id, list := range byVendor {
		out[id] = SumInvoices(list)
	}
	return out
}

// DecorateVendor sets the billed and still-pending totals of v.
func DecorateVendor(v *models.Vendor, totals InvoiceTotals) {
	v.TotalAmount = totals.Bill
	v.PendingAmount = totals.Balance
}

// MonthlySales totals the collected amount per calendar month, oldest first.
func MonthlySales(sales []models.Sale) []models.MonthlyTotal {
	byMonth := make(map[models.MonthKey]decimal.Decimal)
	for _, s := range sales {
		d := s.Date.UTC()
		key := models.MonthKey{Year: d.Year(), Month: int(d.Month())}
		byMonth[key] = byMonth[key].Add(s.CollectedAmount)
	}

	out := make([]models.MonthlyTotal, 0, len(byMonth))
	for k, total := range byMonth {
		out = append(out, models.MonthlyTotal{ID: k, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID.Year != out[j].ID.Year {
			return out[i].ID.Year < out[j].ID.Year
		}
		return out[i].ID.Month < out[j].ID.Month
	})
	return out
}

// Valuation groups stock value by category. Items without a category are
// reported under "Uncategorized".
func Valuation(items []models.InventoryItem) models.ValuationResponse {
	grandTotal := decimal.Zero
	grouped := make(map[string]*models.CategoryGroup)

	for _, p := range items {
		catName := p.Category
		if catName == "" {
			catName = "Uncategorized"
		}
		if _, exists := grouped[catName]; !exists {
			grouped[catName] = &models.CategoryGroup{
				CategoryName: catName,
				Items:        []models.ValuationItem{},
				Subtotal:     decimal.Zero,
			}
		}

		itemTotal := StockValue(p.CurrentStock, p.BoughtPrice)
		grouped[catName].Items = append(grouped[catName].Items, models.ValuationItem{
			Name:      p.Name,
			SKU:       p.SKU,
			Quantity:  p.CurrentStock,
			CostPrice: p.BoughtPrice,
			TotalCost: itemTotal,
		})
		grouped[catName].Subtotal = grouped[catName].Subtotal.Add(itemTotal)
		grandTotal = grandTotal.Add(itemTotal)
	}

	response := models.ValuationResponse{GrandTotal: grandTotal, Categories: []models.CategoryGroup{}}
	for _, group := range grouped {
		response.Categories = append(response.Categories, *group)
	}
	sort.Slice(response.Categories, func(i, j int) bool {
		return response.Categories[i].CategoryName < response.Categories[j].CategoryName
	})
	return response
}
