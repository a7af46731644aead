package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"trackswift/internal/views"
)

func newDashboardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show sales, expenses and profit with what needs attention",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			d, err := views.Dashboard(cmd.Context(), app.env)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "%s\n\n", app.env.Session.CompanyName())
			t := newTable(out, "TOTAL SALES", "TOTAL EXPENSES", "PROFIT")
			t.row(money(d.Currency, d.TotalSales), money(d.Currency, d.TotalExpenses), money(d.Currency, d.Profit))
			t.flush()

			if len(d.MonthlySales) > 0 {
				fmt.Fprintln(out, "\nMonthly sales")
				t = newTable(out, "MONTH", "TOTAL")
				for _, m := range d.MonthlySales {
					month := time.Date(m.ID.Year, time.Month(m.ID.Month), 1, 0, 0, 0, 0, time.UTC)
					t.row(month.Format("Jan 2006"), amt(m.Total))
				}
				t.flush()
			}

			recent := d.RecentTransactions
			if len(recent.Sales)+len(recent.Expenses) > 0 {
				fmt.Fprintln(out, "\nRecent transactions")
				t = newTable(out, "DATE", "KIND", "DETAIL", "AMOUNT")
				for _, s := range recent.Sales {
					t.row(date(s.Date), "sale", s.CustomerName, amt(s.TotalAmount))
				}
				for _, e := range recent.Expenses {
					t.row(date(e.Date), "expense", e.Description, amt(e.Amount))
				}
				t.flush()
			}

			if len(d.LowStockAlerts) > 0 {
				fmt.Fprintln(out, "\nLow stock")
				t = newTable(out, "SKU", "NAME", "STOCK", "MIN")
				for _, it := range d.LowStockAlerts {
					t.row(it.SKU, it.Name, fmt.Sprint(it.CurrentStock), fmt.Sprint(it.MinimumStock))
				}
				t.flush()
			}

			if len(d.PendingInvoices) > 0 {
				fmt.Fprintln(out, "\nPending invoices")
				t = newTable(out, "NUMBER", "VENDOR", "DATE", "BALANCE")
				for _, inv := range d.PendingInvoices {
					t.row(inv.InvoiceNumber, inv.VendorName, date(inv.Date), amt(inv.BalanceAmount))
				}
				t.flush()
			}
			return nil
		},
	}
}
