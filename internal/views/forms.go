package views

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"trackswift/internal/ledger"
	"trackswift/internal/models"
)

var validate = validator.New()

// Form is what a create or edit screen submits. Input validates the
// fields, derives the computed ones and returns the request payload.
type Form interface {
	Input(now time.Time) (interface{}, error)
}

// check runs the struct tags of form and maps each failure to the message
// registered for "Field.tag".
func check(form interface{}, messages map[string]string) *FormError {
	fe := &FormError{}
	err := validate.Struct(form)
	if err == nil {
		return fe
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fe.add("", err.Error())
		return fe
	}
	for _, v := range verrs {
		msg, ok := messages[v.Field()+"."+v.Tag()]
		if !ok {
			msg = v.Field() + " is invalid"
		}
		fe.add(v.Field(), msg)
	}
	return fe
}

// amount parses a form amount, recording msg against field when it is not
// a number.
func amount(fe *FormError, field, raw, msg string) decimal.Decimal {
	d, err := ledger.ParseAmount(raw)
	if err != nil {
		fe.add(field, msg)
	}
	return d
}

func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}

func orCurrency(c string) string {
	if c == "" {
		return models.DefaultCurrency
	}
	return c
}

// --- VENDOR ---

type VendorForm struct {
	Name         string `validate:"required"`
	Email        string `validate:"omitempty,email"`
	Phone        string
	Address      string
	TaxNumber    string
	PaymentTerms string
}

var vendorMessages = map[string]string{
	"Name.required": "Name is required",
	"Email.email":   "Invalid email address",
}

func VendorFormFrom(v models.Vendor) VendorForm {
	return VendorForm{Name: v.Name, Email: v.Email, Phone: v.Phone, Address: v.Address, TaxNumber: v.TaxNumber, PaymentTerms: v.PaymentTerms}
}

func (f VendorForm) Input(time.Time) (interface{}, error) {
	f.Name = strings.TrimSpace(f.Name)
	if err := check(f, vendorMessages).orNil(); err != nil {
		return nil, err
	}
	return models.VendorInput{
		Name: f.Name, Email: f.Email, Phone: f.Phone,
		Address: f.Address, TaxNumber: f.TaxNumber, PaymentTerms: f.PaymentTerms,
	}, nil
}

// --- INVOICE ---

type InvoiceForm struct {
	Vendor        string `validate:"required"`
	InvoiceNumber string `validate:"required"`
	Date          time.Time
	BillAmount    string `validate:"required"`
	PaidAmount    string
	Description   string
	Currency      string
}

var invoiceMessages = map[string]string{
	"Vendor.required":        "Please select a vendor",
	"InvoiceNumber.required": "Invoice number is required",
	"BillAmount.required":    "Bill amount is required",
}

// InvoiceFormFrom fills the edit form from a stored invoice.
func InvoiceFormFrom(inv models.Invoice) InvoiceForm {
	return InvoiceForm{
		Vendor:        inv.VendorID,
		InvoiceNumber: inv.InvoiceNumber,
		Date:          inv.Date,
		BillAmount:    ledger.Format(inv.BillAmount),
		PaidAmount:    ledger.Format(inv.PaidAmount),
		Description:   inv.Description,
		Currency:      inv.Currency,
	}
}

func (f InvoiceForm) Input(now time.Time) (interface{}, error) {
	f.InvoiceNumber = strings.TrimSpace(f.InvoiceNumber)
	fe := check(f, invoiceMessages)
	if len(fe.Fields) > 0 {
		return nil, fe
	}
	bill := amount(fe, "BillAmount", f.BillAmount, "Please enter a valid bill amount")
	paid := amount(fe, "PaidAmount", f.PaidAmount, "Please enter a valid paid amount")
	if err := fe.orNil(); err != nil {
		return nil, err
	}

	derived, err := ledger.DeriveInvoice(bill, paid)
	switch {
	case errors.Is(err, ledger.ErrInvalidBill):
		fe.add("BillAmount", "Amount must be greater than 0")
	case errors.Is(err, ledger.ErrNegativePaid):
		fe.add("PaidAmount", "Paid amount cannot be negative")
	case errors.Is(err, ledger.ErrOverpayment):
		fe.add("PaidAmount", "Paid amount cannot exceed bill amount")
	}
	if err := fe.orNil(); err != nil {
		return nil, err
	}

	return models.InvoiceInput{
		Vendor:        f.Vendor,
		InvoiceNumber: f.InvoiceNumber,
		Date:          orNow(f.Date, now),
		BillAmount:    derived.Bill,
		PaidAmount:    derived.Paid,
		BalanceAmount: derived.Balance,
		Status:        derived.Status,
		Description:   f.Description,
		Currency:      orCurrency(f.Currency),
	}, nil
}

// --- INVENTORY ---

type InventoryForm struct {
	Name         string `validate:"required"`
	SKU          string `validate:"required"`
	Description  string
	Category     string
	BoughtPrice  string `validate:"required"`
	SellingPrice string `validate:"required"`
	CurrentStock int    `validate:"min=0"`
	MinimumStock int    `validate:"min=0"`
	Currency     string
}

var inventoryMessages = map[string]string{
	"Name.required":         "Name is required",
	"SKU.required":          "SKU is required",
	"BoughtPrice.required":  "Bought price is required",
	"SellingPrice.required": "Selling price is required",
	"CurrentStock.min":      "Stock must be non-negative",
	"MinimumStock.min":      "Stock must be non-negative",
}

func InventoryFormFrom(item models.InventoryItem) InventoryForm {
	return InventoryForm{
		Name: item.Name, SKU: item.SKU, Description: item.Description, Category: item.Category,
		BoughtPrice:  ledger.Format(item.BoughtPrice),
		SellingPrice: ledger.Format(item.SellingPrice),
		CurrentStock: item.CurrentStock,
		MinimumStock: item.MinimumStock,
		Currency:     item.Currency,
	}
}

func (f InventoryForm) Input(time.Time) (interface{}, error) {
	fe := check(f, inventoryMessages)
	if len(fe.Fields) > 0 {
		return nil, fe
	}
	bought := amount(fe, "BoughtPrice", f.BoughtPrice, "Please enter a valid bought price")
	selling := amount(fe, "SellingPrice", f.SellingPrice, "Please enter a valid selling price")
	if bought.IsNegative() {
		fe.add("BoughtPrice", "Price must be positive")
	}
	if selling.IsNegative() {
		fe.add("SellingPrice", "Price must be positive")
	}
	if err := fe.orNil(); err != nil {
		return nil, err
	}
	return models.InventoryInput{
		Name: f.Name, SKU: strings.TrimSpace(f.SKU), Description: f.Description, Category: f.Category,
		BoughtPrice: bought, SellingPrice: selling,
		CurrentStock: f.CurrentStock, MinimumStock: f.MinimumStock,
		Currency: orCurrency(f.Currency),
	}, nil
}

// --- SALE ---

type SaleForm struct {
	Date            time.Time
	CustomerName    string
	CollectedAmount string `validate:"required"`
	CreditAmount    string
	Currency        string
}

var saleMessages = map[string]string{
	"CollectedAmount.required": "Collection amount is required",
}

func SaleFormFrom(s models.Sale) SaleForm {
	return SaleForm{
		Date:            s.Date,
		CustomerName:    s.CustomerName,
		CollectedAmount: ledger.Format(s.CollectedAmount),
		CreditAmount:    ledger.Format(s.CreditAmount),
		Currency:        s.Currency,
	}
}

func (f SaleForm) Input(now time.Time) (interface{}, error) {
	fe := check(f, saleMessages)
	if len(fe.Fields) > 0 {
		return nil, fe
	}
	collected := amount(fe, "CollectedAmount", f.CollectedAmount, "Please enter a valid collection amount")
	credit := amount(fe, "CreditAmount", f.CreditAmount, "Please enter a valid balance amount")
	if err := fe.orNil(); err != nil {
		return nil, err
	}

	derived, err := ledger.DeriveSale(collected, credit)
	switch {
	case errors.Is(err, ledger.ErrInvalidCollected):
		fe.add("CollectedAmount", "Amount must be greater than 0")
	case errors.Is(err, ledger.ErrNegativeCredit):
		fe.add("CreditAmount", "Balance cannot be negative")
	}
	if err := fe.orNil(); err != nil {
		return nil, err
	}

	return models.SaleInput{
		Date:            orNow(f.Date, now),
		CustomerName:    ledger.CustomerName(f.CustomerName),
		CollectedAmount: derived.Collected,
		CreditAmount:    derived.Credit,
		TotalAmount:     derived.Total,
		Status:          derived.Status,
		Currency:        orCurrency(f.Currency),
		Items:           []models.SaleItem{ledger.LineItem(derived.Total)},
	}, nil
}

// --- EXPENSE ---

type ExpenseForm struct {
	Date          time.Time
	Description   string `validate:"required"`
	Category      string `validate:"required"`
	Amount        string `validate:"required"`
	PaymentMethod string `validate:"required,oneof=cash bank card"`
	Currency      string
}

var expenseMessages = map[string]string{
	"Description.required":   "Description is required",
	"Category.required":      "Category is required",
	"Amount.required":        "Amount is required",
	"PaymentMethod.required": "Payment method is required",
	"PaymentMethod.oneof":    "Payment method must be cash, bank or card",
}

func ExpenseFormFrom(e models.Expense) ExpenseForm {
	return ExpenseForm{
		Date: e.Date, Description: e.Description, Category: e.Category,
		Amount: ledger.Format(e.Amount), PaymentMethod: e.PaymentMethod, Currency: e.Currency,
	}
}

func (f ExpenseForm) Input(now time.Time) (interface{}, error) {
	fe := check(f, expenseMessages)
	if len(fe.Fields) > 0 {
		return nil, fe
	}
	amt := amount(fe, "Amount", f.Amount, "Please enter a valid amount")
	if len(fe.Fields) == 0 && ledger.ValidateExpense(amt) != nil {
		fe.add("Amount", "Amount must be positive")
	}
	if err := fe.orNil(); err != nil {
		return nil, err
	}
	return models.ExpenseInput{
		Date:          orNow(f.Date, now),
		Description:   f.Description,
		Category:      f.Category,
		Amount:        amt,
		PaymentMethod: f.PaymentMethod,
		Currency:      orCurrency(f.Currency),
	}, nil
}

// --- USER ---

// UserForm serves both the create and the edit screen. On edit a blank
// password leaves the current one in place.
type UserForm struct {
	Username string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"omitempty,min=6"`
	Role     string `validate:"required,oneof=admin user"`
	IsActive bool
}

var userMessages = map[string]string{
	"Username.required": "Username is required",
	"Email.required":    "Email is required",
	"Email.email":       "Invalid email address",
	"Password.min":      "Password must be at least 6 characters",
	"Role.required":     "Role is required",
	"Role.oneof":        "Role must be admin or user",
}

func UserFormFrom(u models.User) UserForm {
	return UserForm{Username: u.Username, Email: u.Email, Role: u.Role, IsActive: u.IsActive}
}

func (f UserForm) input(creating bool) (models.UserInput, error) {
	fe := check(f, userMessages)
	if creating && f.Password == "" {
		fe.add("Password", "Password is required")
	}
	if err := fe.orNil(); err != nil {
		return models.UserInput{}, err
	}
	return models.UserInput{
		Username: f.Username,
		Email:    f.Email,
		Password: f.Password,
		Role:     f.Role,
		IsActive: f.IsActive,
	}, nil
}

// --- AUTH ---

type LoginForm struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required"`
	CompanyName string `validate:"required"`
}

var loginMessages = map[string]string{
	"Email.required":       "Email is required",
	"Email.email":          "Invalid email address",
	"Password.required":    "Password is required",
	"CompanyName.required": "Company name is required",
}

type RegisterForm struct {
	FirstName       string `validate:"required"`
	LastName        string
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string
	CompanyName     string `validate:"required"`
}

var registerMessages = map[string]string{
	"FirstName.required":   "First name is required",
	"Email.required":       "Email is required",
	"Email.email":          "Invalid email address",
	"Password.required":    "Password is required",
	"Password.min":         "Password must be at least 6 characters",
	"CompanyName.required": "Company name is required",
}
