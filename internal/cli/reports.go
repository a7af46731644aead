package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"trackswift/internal/views"
)

func newReportsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Summaries and downloadable reports of a date range",
		Long: `Summaries and downloadable reports of a date range. The range defaults to the
current month up to today. Files are saved into TRACKSWIFT_DOWNLOAD_DIR.`,
	}
	cmd.PersistentFlags().String("from", "", "From date (YYYY-MM-DD, default first of this month)")
	cmd.PersistentFlags().String("to", "", "To date (YYYY-MM-DD, default today)")

	cmd.AddCommand(
		newReportsSummaryCmd(app),
		newReportsExportCmd(app, "invoices-pdf", "Download the invoice report as PDF", (*views.Reports).InvoicesPDF),
		newReportsExportCmd(app, "sales-pdf", "Download the sales report as PDF", (*views.Reports).SalesPDF),
		newReportsExportCmd(app, "sales-xlsx", "Download the sales report as an Excel workbook", (*views.Reports).SalesXLSX),
		newReportsValuationCmd(app),
	)
	return cmd
}

// reportRange reads --from/--to with the month-to-date default.
func reportRange(app *App, cmd *cobra.Command) (time.Time, time.Time, error) {
	now := app.env.Now()
	start, end := monthStart(now), now

	from, err := dayFlag(cmd, "from")
	if err != nil {
		return start, end, err
	}
	if from != nil {
		start = *from
	}
	to, err := dayFlag(cmd, "to")
	if err != nil {
		return start, end, err
	}
	if to != nil {
		end = *to
	}
	return start, end, nil
}

func newReportsSummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show invoice and sales totals of the range",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			start, end, err := reportRange(app, cmd)
			if err != nil {
				return err
			}
			sum, err := views.NewReports(app.env, app.cfg.DownloadDir).Summary(cmd.Context(), start, end)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s to %s\n\n", start.Format(time.DateOnly), end.Format(time.DateOnly))
			t := newTable(out, "", "COUNT", "AMOUNT", "PAID/COLLECTED", "BALANCE/CREDIT")
			t.row("Invoices", fmt.Sprint(sum.Invoice.Count), amt(sum.Invoice.Bill), amt(sum.Invoice.Paid), amt(sum.Invoice.Balance))
			t.row("Sales", fmt.Sprint(sum.Sale.Count), amt(sum.Sale.Total), amt(sum.Sale.Collected), amt(sum.Sale.Credit))
			t.flush()
			return nil
		},
	}
}

type exportFunc func(r *views.Reports, ctx context.Context, start, end time.Time) (string, error)

func newReportsExportCmd(app *App, use, short string, export exportFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			start, end, err := reportRange(app, cmd)
			if err != nil {
				return err
			}
			path, err := export(views.NewReports(app.env, app.cfg.DownloadDir), cmd.Context(), start, end)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newReportsValuationCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "valuation",
		Short: "Show the stock valuation by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			v, err := views.Valuation(cmd.Context(), app.env)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			t := newTable(out, "CATEGORY", "SKU", "NAME", "QTY", "COST", "TOTAL")
			for _, g := range v.Categories {
				for _, it := range g.Items {
					t.row(g.CategoryName, it.SKU, it.Name, fmt.Sprint(it.Quantity), amt(it.CostPrice), amt(it.TotalCost))
				}
				t.row(g.CategoryName, "", "Subtotal", "", "", amt(g.Subtotal))
			}
			t.flush()
			fmt.Fprintf(out, "\nGrand total: %s\n", money(v.Currency, v.GrandTotal))
			return nil
		},
	}
}
