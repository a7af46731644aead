package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// --- AUTH PAYLOADS ---

type LoginRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	CompanyName string `json:"companyName" binding:"required"`
}

type RegisterRequest struct {
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	CompanyName string `json:"companyName" binding:"required"`
}

// AuthResponse is returned by login and registration.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
	User  User `json:"user"`
}

type InviteRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role" binding:"omitempty,oneof=admin user"`
}

// InviteResponse carries the temporary password exactly once.
type InviteResponse struct {
	User              User   `json:"user"`
	TemporaryPassword string `json:"temporaryPassword"`
}

// UserInput is the create/update payload of the user administration screen.
// Password is omitted from updates when left blank.
type UserInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role" binding:"required,oneof=admin user"`
	IsActive bool   `json:"isActive"`
}

// --- RESOURCE PAYLOADS ---

type VendorInput struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email,omitempty" binding:"omitempty,email"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	TaxNumber    string `json:"taxNumber,omitempty"`
	PaymentTerms string `json:"paymentTerms,omitempty"`
}

// InvoiceInput mirrors what the invoice form submits. The server re-derives
// BalanceAmount and Status and ignores whatever the client sent for them.
type InvoiceInput struct {
	Vendor        string          `json:"vendor" binding:"required"`
	InvoiceNumber string          `json:"invoiceNumber" binding:"required"`
	Date          time.Time       `json:"date"`
	BillAmount    decimal.Decimal `json:"billAmount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	BalanceAmount decimal.Decimal `json:"balanceAmount"`
	Status        string          `json:"status"`
	Description   string          `json:"description"`
	Currency      string          `json:"currency"`
}

type InventoryInput struct {
	Name         string          `json:"name" binding:"required"`
	SKU          string          `json:"sku" binding:"required"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category,omitempty"`
	BoughtPrice  decimal.Decimal `json:"boughtPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	CurrentStock int             `json:"currentStock" binding:"min=0"`
	MinimumStock int             `json:"minimumStock" binding:"min=0"`
	Currency     string          `json:"currency"`
}

// SaleInput mirrors the simple sales entry form, including the synthetic
// line item kept for itemized-sales compatibility.
type SaleInput struct {
	Date            time.Time       `json:"date"`
	CustomerName    string          `json:"customerName"`
	CollectedAmount decimal.Decimal `json:"collectedAmount"`
	CreditAmount    decimal.Decimal `json:"creditAmount"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          string          `json:"status"`
	Currency        string          `json:"currency"`
	Items           []SaleItem      `json:"items"`
}

type ExpenseInput struct {
	Date          time.Time       `json:"date"`
	Description   string          `json:"description" binding:"required"`
	Category      string          `json:"category" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod" binding:"required,oneof=cash bank card"`
	Currency      string          `json:"currency"`
}

// --- LIST ENVELOPE ---

// Pagination is the envelope every list response carries.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, limit int, total int64) Pagination {
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}
	pages := int(math.Ceil(float64(total) / float64(limit)))
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// Offset returns the number of rows to skip for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// --- DASHBOARD & REPORTS ---

type MonthKey struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type MonthlyTotal struct {
	ID    MonthKey        `json:"_id"`
	Total decimal.Decimal `json:"total"`
}

type RecentTransactions struct {
	Sales    []Sale    `json:"sales"`
	Expenses []Expense `json:"expenses"`
}

// DashboardData is the "data" member of GET /dashboard.
type DashboardData struct {
	TotalSales         decimal.Decimal    `json:"totalSales"`
	TotalExpenses      decimal.Decimal    `json:"totalExpenses"`
	Profit             decimal.Decimal    `json:"profit"`
	RecentTransactions RecentTransactions `json:"recentTransactions"`
	LowStockAlerts     []InventoryItem    `json:"lowStockAlerts"`
	MonthlySales       []MonthlyTotal     `json:"monthlySales"`
	PendingInvoices    []Invoice          `json:"pendingInvoices"`
	Currency           string             `json:"currency"`
}

type DashboardResponse struct {
	Success bool          `json:"success"`
	Data    DashboardData `json:"data"`
}

// ValuationItem represents a single row of the stock valuation report.
type ValuationItem struct {
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	CostPrice decimal.Decimal `json:"costPrice"`
	TotalCost decimal.Decimal `json:"totalCost"`
}

// CategoryGroup is one category section of the valuation report.
type CategoryGroup struct {
	CategoryName string          `json:"categoryName"`
	Items        []ValuationItem `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type ValuationResponse struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
	Currency   string          `json:"currency"`
}

// AskRequest is the payload of the bookkeeping assistant.
type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

type AskResponse struct {
	Reply string `json:"reply"`
}
