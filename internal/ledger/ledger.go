// Package ledger holds the bookkeeping rules shared by the client and the
// server: invoice balances, sale totals, stock flags and the sums shown on
// the dashboard and the reports.
//
// All amounts are fixed-point with three decimals (the currency is divided
// into 1000 minor units).
package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"trackswift/internal/models"
)

// Scale is the number of decimals every amount is kept and printed with.
const Scale = 3

// WalkInCustomer is the customer recorded on sales entered without a name.
const WalkInCustomer = "Walk-in Customer"

var (
	ErrInvalidBill      = errors.New("bill amount must be greater than 0")
	ErrNegativePaid     = errors.New("paid amount cannot be negative")
	ErrOverpayment      = errors.New("paid amount cannot exceed bill amount")
	ErrInvalidCollected = errors.New("collected amount must be greater than 0")
	ErrNegativeCredit   = errors.New("credit amount cannot be negative")
	ErrInvalidAmount    = errors.New("amount must be greater than 0")
	ErrNegativePrice    = errors.New("price must be positive")
	ErrNegativeStock    = errors.New("stock must be non-negative")
)

// InvoiceAmounts is the source pair of an invoice plus what follows from it.
type InvoiceAmounts struct {
	Bill    decimal.Decimal
	Paid    decimal.Decimal
	Balance decimal.Decimal
	Status  string
}

// DeriveInvoice computes balance = bill - paid and the paid/pending status.
// Over-payment is rejected rather than clamped.
func DeriveInvoice(bill, paid decimal.Decimal) (InvoiceAmounts, error) {
	bill, paid = Round(bill), Round(paid)
	if !bill.IsPositive() {
		return InvoiceAmounts{}, ErrInvalidBill
	}
	if paid.IsNegative() {
		return InvoiceAmounts{}, ErrNegativePaid
	}
	if paid.GreaterThan(bill) {
		return InvoiceAmounts{}, ErrOverpayment
	}

	balance := bill.Sub(paid)
	status := models.StatusPending
	if balance.LessThanOrEqual(decimal.Zero) {
		status = models.StatusPaid
	}
	return InvoiceAmounts{Bill: bill, Paid: paid, Balance: balance, Status: status}, nil
}

// ApplyInvoice overwrites the derived fields of inv from its bill and paid amounts.
func ApplyInvoice(inv *models.Invoice) error {
	amounts, err := DeriveInvoice(inv.BillAmount, inv.PaidAmount)
	if err != nil {
		return err
	}
	inv.BillAmount = amounts.Bill
	inv.PaidAmount = amounts.Paid
	inv.BalanceAmount = amounts.Balance
	inv.Status = amounts.Status
	if inv.Currency == "" {
		inv.Currency = models.DefaultCurrency
	}
	return nil
}

// SaleAmounts is the source pair of a sale plus what follows from it.
type SaleAmounts struct {
	Collected decimal.Decimal
	Credit    decimal.Decimal
	Total     decimal.Decimal
	Status    string
}

// DeriveSale computes total = collected + credit. A sale with credit
// outstanding is pending, otherwise paid.
func DeriveSale(collected, credit decimal.Decimal) (SaleAmounts, error) {
	collected, credit = Round(collected), Round(credit)
	if !collected.IsPositive() {
		return SaleAmounts{}, ErrInvalidCollected
	}
	if credit.IsNegative() {
		return SaleAmounts{}, ErrNegativeCredit
	}

	status := models.StatusPaid
	if credit.IsPositive() {
		status = models.StatusPending
	}
	return SaleAmounts{
		Collected: collected,
		Credit:    credit,
		Total:     collected.Add(credit),
		Status:    status,
	}, nil
}

// CustomerName returns name, or the walk-in placeholder when it is blank.
func CustomerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return WalkInCustomer
	}
	return name
}

// LineItem is the single synthetic item a simple sale carries so that
// consumers expecting itemized sales still see one line.
func LineItem(total decimal.Decimal) models.SaleItem {
	return models.SaleItem{
		Product:    nil,
		Quantity:   1,
		UnitPrice:  total,
		TotalPrice: total,
	}
}

// ApplySale overwrites the derived fields of s: total, status, customer
// name and the synthetic line item.
func ApplySale(s *models.Sale) error {
	amounts, err := DeriveSale(s.CollectedAmount, s.CreditAmount)
	if err != nil {
		return err
	}
	s.CollectedAmount = amounts.Collected
	s.CreditAmount = amounts.Credit
	s.TotalAmount = amounts.Total
	s.Status = amounts.Status
	s.CustomerName = CustomerName(s.CustomerName)
	s.Items = []models.SaleItem{LineItem(amounts.Total)}
	if s.Currency == "" {
		s.Currency = models.DefaultCurrency
	}
	return nil
}

// ValidateExpense checks the amount of an expense.
func ValidateExpense(amount decimal.Decimal) error {
	if !Round(amount).IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateItem checks the prices and stock levels of an inventory item.
func ValidateItem(item models.InventoryItem) error {
	if item.BoughtPrice.IsNegative() || item.SellingPrice.IsNegative() {
		return ErrNegativePrice
	}
	if item.CurrentStock < 0 || item.MinimumStock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// IsLowStock reports whether stock is at or below the configured minimum.
func IsLowStock(current, minimum int) bool {
	return current <= minimum
}

// StockValue is what the units on hand cost to buy.
func StockValue(current int, boughtPrice decimal.Decimal) decimal.Decimal {
	return Round(boughtPrice.Mul(decimal.NewFromInt(int64(current))))
}

// DecorateItem fills the computed, non-stored fields of an inventory item.
func DecorateItem(item *models.InventoryItem) {
	item.StockValue = StockValue(item.CurrentStock, item.BoughtPrice)
	item.LowStockAlert = IsLowStock(item.CurrentStock, item.MinimumStock)
}

// Round brings d to the ledger scale.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Format prints d with exactly three decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}

// FormatCurrency prints d prefixed by its currency code, e.g. "OMR 150.000".
func FormatCurrency(currency string, d decimal.Decimal) string {
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return currency + " " + Format(d)
}

// ParseAmount reads a user-entered amount. Blank input is zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Round(d), nil
}
