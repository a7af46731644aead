package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Amounts travel as JSON numbers, the way the web client always sent them.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	StatusPaid    = "paid"
	StatusPending = "pending"

	PaymentCash = "cash"
	PaymentBank = "bank"
	PaymentCard = "card"

	DefaultCurrency = "OMR"
)

// Base carries the identity and timestamps shared by every stored record.
// IDs are UUID strings and serialize as "_id".
type Base struct {
	ID        string    `gorm:"primaryKey;size:36" json:"_id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a fresh UUID when the caller did not set one.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Tenant - one company account. All other records are scoped to a tenant.
type Tenant struct {
	Base
	CompanyName string `gorm:"uniqueIndex;size:120" json:"companyName"`
	Currency    string `gorm:"size:8" json:"currency"`
}

// User - someone who signs in on behalf of a tenant.
type User struct {
	Base
	TenantID     string `gorm:"size:36;uniqueIndex:idx_users_tenant_email" json:"tenantId"`
	Username     string `gorm:"size:50" json:"username"`
	Email        string `gorm:"size:120;uniqueIndex:idx_users_tenant_email" json:"email"`
	FirstName    string `gorm:"size:60" json:"firstName,omitempty"`
	LastName     string `gorm:"size:60" json:"lastName,omitempty"`
	PasswordHash string `json:"-"`    // Never return this in JSON
	Role         string `json:"role"` // 'admin' or 'user'
	IsActive     bool   `json:"isActive"`

	CompanyName string `gorm:"-" json:"companyName,omitempty"`
}

// Vendor - a supplier that bills the tenant. Totals are aggregated from invoices.
type Vendor struct {
	Base
	TenantID     string `gorm:"size:36;index" json:"tenantId"`
	Name         string `gorm:"size:120" json:"name"`
	Email        string `gorm:"size:120" json:"email,omitempty"`
	Phone        string `gorm:"size:40" json:"phone,omitempty"`
	Address      string `gorm:"size:255" json:"address,omitempty"`
	TaxNumber    string `gorm:"size:60" json:"taxNumber,omitempty"`
	PaymentTerms string `gorm:"size:120" json:"paymentTerms,omitempty"`

	TotalAmount   decimal.Decimal `gorm:"-" json:"totalAmount"`
	PendingAmount decimal.Decimal `gorm:"-" json:"pendingAmount"`
}

// Invoice - a vendor bill. BalanceAmount and Status are always derived from
// BillAmount and PaidAmount.
type Invoice struct {
	Base
	TenantID      string          `gorm:"size:36;index;uniqueIndex:idx_invoices_tenant_number" json:"tenantId"`
	VendorID      string          `gorm:"size:36;index" json:"vendor"`
	InvoiceNumber string          `gorm:"size:64;uniqueIndex:idx_invoices_tenant_number" json:"invoiceNumber"`
	Date          time.Time       `gorm:"index" json:"date"`
	BillAmount    decimal.Decimal `gorm:"type:decimal(15,3)" json:"billAmount"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(15,3)" json:"paidAmount"`
	BalanceAmount decimal.Decimal `gorm:"type:decimal(15,3)" json:"balanceAmount"`
	Status        string          `gorm:"size:16;index" json:"status"`
	Currency      string          `gorm:"size:8" json:"currency"`
	Description   string          `gorm:"type:text" json:"description"`

	VendorName string `gorm:"-" json:"vendorName,omitempty"`
}

// InventoryItem - a stocked product. StockValue and LowStockAlert are computed
// on read, never stored.
type InventoryItem struct {
	Base
	TenantID     string          `gorm:"size:36;index;uniqueIndex:idx_inventory_tenant_sku" json:"tenantId"`
	Name         string          `gorm:"size:120" json:"name"`
	SKU          string          `gorm:"size:64;uniqueIndex:idx_inventory_tenant_sku" json:"sku"`
	Description  string          `gorm:"type:text" json:"description,omitempty"`
	Category     string          `gorm:"size:60;index" json:"category,omitempty"`
	BoughtPrice  decimal.Decimal `gorm:"type:decimal(15,3)" json:"boughtPrice"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(15,3)" json:"sellingPrice"`
	CurrentStock int             `json:"currentStock"`
	MinimumStock int             `json:"minimumStock"`
	Currency     string          `gorm:"size:8" json:"currency"`

	StockValue    decimal.Decimal `gorm:"-" json:"stockValue"`
	LowStockAlert bool            `gorm:"-" json:"lowStockAlert"`
}

func (InventoryItem) TableName() string { return "inventory_items" }

// Sale - a day's takings entry. TotalAmount, Status and Items are derived.
type Sale struct {
	Base
	TenantID        string          `gorm:"size:36;index" json:"tenantId"`
	Date            time.Time       `gorm:"index" json:"date"`
	CustomerName    string          `gorm:"size:120" json:"customerName"`
	CollectedAmount decimal.Decimal `gorm:"type:decimal(15,3)" json:"collectedAmount"`
	CreditAmount    decimal.Decimal `gorm:"type:decimal(15,3)" json:"creditAmount"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(15,3)" json:"totalAmount"`
	Status          string          `gorm:"size:16;index" json:"status"`
	Currency        string          `gorm:"size:8" json:"currency"`
	Items           []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items"`
}

// SaleItem - a line of a sale. Simple sales carry one synthetic line.
type SaleItem struct {
	Base
	SaleID     string          `gorm:"size:36;index" json:"-"`
	Product    *string         `gorm:"size:36" json:"product"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(15,3)" json:"unitPrice"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(15,3)" json:"totalPrice"`
}

// Expense - money paid out by the tenant.
type Expense struct {
	Base
	TenantID      string          `gorm:"size:36;index" json:"tenantId"`
	Date          time.Time       `gorm:"index" json:"date"`
	Description   string          `gorm:"size:255" json:"description"`
	Category      string          `gorm:"size:60;index" json:"category"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,3)" json:"amount"`
	PaymentMethod string          `gorm:"size:10" json:"paymentMethod"` // 'cash', 'bank' or 'card'
	Currency      string          `gorm:"size:8" json:"currency"`
}

// AuditLog - who changed what. Written by every mutating handler.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TenantID   string    `gorm:"size:36;index" json:"tenantId"`
	UserID     string    `gorm:"size:36" json:"userId"`
	Action     string    `gorm:"size:16" json:"action"` // 'create', 'update', 'delete'
	Entity     string    `gorm:"size:32" json:"entity"`
	EntityID   string    `gorm:"size:36" json:"entityId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ExpenseCategories are the values suggested by the expense form.
var ExpenseCategories = []string{
	"Office Supplies", "Utilities", "Marketing", "Travel",
	"Equipment", "Rent", "Insurance", "Other",
}

// PaymentMethods lists the accepted expense payment methods.
var PaymentMethods = []string{PaymentCash, PaymentBank, PaymentCard}

var unsafeFilename = strings.NewReplacer("/", "-", "\\", "-", "\"", "-", "..", "-")

// Filename names the PDF of the invoice. Invoice numbers are free text, so
// path separators and parent references are replaced.
func (inv Invoice) Filename() string {
	safe := unsafeFilename.Replace(strings.TrimSpace(inv.InvoiceNumber))
	if safe == "" {
		safe = inv.ID
	}
	return "invoice-" + safe + ".pdf"
}
