package views

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"trackswift/internal/apiclient"
	"trackswift/internal/ledger"
	"trackswift/internal/models"
)

// ErrEmptyRange is returned when an export is refused because the date
// range holds nothing to report.
var ErrEmptyRange = errors.New("nothing to report in the selected date range")

// Summary is the reports screen: the invoices and sales of a date range
// and their totals.
type Summary struct {
	Start    time.Time
	End      time.Time
	Invoices []models.Invoice
	Sales    []models.Sale
	Invoice  ledger.InvoiceTotals
	Sale     ledger.SaleTotals
}

// Reports exports documents into Dir.
type Reports struct {
	env *Env
	Dir string
}

func NewReports(env *Env, dir string) *Reports {
	if dir == "" {
		dir = "."
	}
	return &Reports{env: env, Dir: dir}
}

func rangeParams(start, end time.Time) apiclient.ListParams {
	s, e := startOfDay(start), endOfDay(end)
	return apiclient.ListParams{Page: 1, Limit: ReportLimit, StartDate: &s, EndDate: &e}
}

// Summary loads both collections of the range side by side.
func (r *Reports) Summary(ctx context.Context, start, end time.Time) (*Summary, error) {
	if end.Before(start) {
		r.env.Notify.Error("End date must not be before start date")
		return nil, fmt.Errorf("end %s before start %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	params := rangeParams(start, end)
	out := &Summary{Start: start, End: end}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := NewInvoices(r.env).List(gctx, params)
		if err != nil {
			return err
		}
		out.Invoices = page.Items
		return nil
	})
	g.Go(func() error {
		page, err := NewSales(r.env).List(gctx, params)
		if err != nil {
			return err
		}
		out.Sales = page.Items
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.Invoice = ledger.SumInvoices(out.Invoices)
	out.Sale = ledger.SumSales(out.Sales)
	return out, nil
}

// ReportFilename is the name a range report is saved under.
func ReportFilename(kind string, start, end, at time.Time, ext string) string {
	return fmt.Sprintf("TrackSwift-%s-%s-to-%s-%d.%s",
		kind, start.Format(time.DateOnly), end.Format(time.DateOnly), at.UnixMilli(), ext)
}

// InvoicesPDF saves the invoice report of the range. It refuses, without
// asking the server for a document, when the range has no invoices.
func (r *Reports) InvoicesPDF(ctx context.Context, start, end time.Time) (string, error) {
	page, err := NewInvoices(r.env).List(ctx, rangeParams(start, end))
	if err != nil {
		return "", err
	}
	if len(page.Items) == 0 {
		r.env.Notify.Error("No invoices found for the selected date range")
		return "", ErrEmptyRange
	}
	return r.export(ctx, ReportFilename("Invoices", start, end, r.env.now(), "pdf"),
		"Invoice report downloaded successfully", "Failed to generate invoice report",
		func(ctx context.Context) ([]byte, error) { return r.env.API.InvoicesReportPDF(ctx, start, end) })
}

// SalesPDF saves the sales report of the range.
func (r *Reports) SalesPDF(ctx context.Context, start, end time.Time) (string, error) {
	if err := r.requireSales(ctx, start, end); err != nil {
		return "", err
	}
	return r.export(ctx, ReportFilename("Sales", start, end, r.env.now(), "pdf"),
		"Sales report downloaded successfully", "Failed to generate sales report",
		func(ctx context.Context) ([]byte, error) { return r.env.API.SalesReportPDF(ctx, start, end) })
}

// SalesXLSX saves the sales workbook of the range.
func (r *Reports) SalesXLSX(ctx context.Context, start, end time.Time) (string, error) {
	if err := r.requireSales(ctx, start, end); err != nil {
		return "", err
	}
	return r.export(ctx, ReportFilename("Sales", start, end, r.env.now(), "xlsx"),
		"Sales workbook downloaded successfully", "Failed to generate sales workbook",
		func(ctx context.Context) ([]byte, error) { return r.env.API.SalesReportXLSX(ctx, start, end) })
}

// InvoicePDF saves the document of a single invoice.
func (r *Reports) InvoicePDF(ctx context.Context, inv models.Invoice) (string, error) {
	return r.export(ctx, inv.Filename(),
		"PDF downloaded successfully", "Failed to download PDF",
		func(ctx context.Context) ([]byte, error) { return r.env.API.InvoicePDF(ctx, inv.ID) })
}

func (r *Reports) requireSales(ctx context.Context, start, end time.Time) error {
	page, err := NewSales(r.env).List(ctx, rangeParams(start, end))
	if err != nil {
		return err
	}
	if len(page.Items) == 0 {
		r.env.Notify.Error("No sales found for the selected date range")
		return ErrEmptyRange
	}
	return nil
}

func (r *Reports) export(ctx context.Context, name, success, fallback string, fetch func(context.Context) ([]byte, error)) (string, error) {
	body, err := fetch(ctx)
	if err != nil {
		r.env.Fail(err, fallback)
		return "", err
	}

	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		r.env.Notify.Error(fallback)
		return "", err
	}
	if name == "" || filepath.Base(name) != name {
		r.env.Notify.Error(fallback)
		return "", fmt.Errorf("invalid file name %q", name)
	}
	path := filepath.Join(r.Dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		r.env.Notify.Error(fallback)
		return "", err
	}

	r.env.Log.Info().Str("file", path).Int("bytes", len(body)).Msg("report saved")
	r.env.Notify.Success(success)
	return path, nil
}
