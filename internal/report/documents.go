package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"trackswift/internal/ledger"
	"trackswift/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("report").Funcs(template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02")
	},
	"datetime": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04 MST")
	},
	"amount": ledger.Format,
	"money": func(currency string, d decimal.Decimal) string {
		return ledger.FormatCurrency(currency, d)
	},
}).ParseFS(templateFS, "templates/*.html"))

// Header is shared by every document.
type Header struct {
	Title       string
	Company     string
	Currency    string
	GeneratedAt time.Time
}

// InvoiceDocument is a single invoice.
type InvoiceDocument struct {
	Header
	Invoice models.Invoice
}

// InvoicesDocument lists the invoices of a period.
type InvoicesDocument struct {
	Header
	Start    time.Time
	End      time.Time
	Invoices []models.Invoice
	Totals   ledger.InvoiceTotals
}

// SalesDocument lists the sales of a period.
type SalesDocument struct {
	Header
	Start  time.Time
	End    time.Time
	Sales  []models.Sale
	Totals ledger.SaleTotals
}

func NewInvoiceDocument(company, currency string, inv models.Invoice) InvoiceDocument {
	return InvoiceDocument{
		Header: Header{
			Title:       "Invoice " + inv.InvoiceNumber,
			Company:     company,
			Currency:    currency,
			GeneratedAt: time.Now(),
		},
		Invoice: inv,
	}
}

func NewInvoicesDocument(company, currency string, start, end time.Time, invoices []models.Invoice) InvoicesDocument {
	return InvoicesDocument{
		Header: Header{
			Title:       "Invoices Report",
			Company:     company,
			Currency:    currency,
			GeneratedAt: time.Now(),
		},
		Start:    start,
		End:      end,
		Invoices: invoices,
		Totals:   ledger.SumInvoices(invoices),
	}
}

func NewSalesDocument(company, currency string, start, end time.Time, sales []models.Sale) SalesDocument {
	return SalesDocument{
		Header: Header{
			Title:       "Sales Report",
			Company:     company,
			Currency:    currency,
			GeneratedAt: time.Now(),
		},
		Start:  start,
		End:    end,
		Sales:  sales,
		Totals: ledger.SumSales(sales),
	}
}

func (d InvoiceDocument) HTML() (string, error)  { return execute("invoice.html", d) }
func (d InvoicesDocument) HTML() (string, error) { return execute("invoices.html", d) }
func (d SalesDocument) HTML() (string, error)    { return execute("sales.html", d) }

func execute(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
