package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"trackswift/internal/views"
)

func newSalesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Record the day's takings",
	}
	cmd.AddCommand(
		newSalesDayCmd(app),
		newSalesListCmd(app),
		newSalesAddCmd(app),
		newSalesEditCmd(app),
		newSalesDeleteCmd(app),
	)
	return cmd
}

// newSalesDayCmd prints the daily sheet: the day's sales and expenses and
// the four summary cards.
func newSalesDayCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "day",
		Short:   "Show the sales sheet of a day",
		Example: `  trackswift sales day --date 2024-03-14`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			on := app.env.Now()
			d, err := dayFlag(cmd, "date")
			if err != nil {
				return err
			}
			if d != nil {
				on = *d
			}

			day, err := views.SalesDay(cmd.Context(), app.env, on)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sales of %s\n\n", day.Date.Format("Monday, 2 January 2006"))

			t := newTable(out, "ID", "CUSTOMER", "COLLECTED", "CREDIT", "TOTAL", "STATUS")
			for _, s := range day.Sales {
				t.row(s.ID, s.CustomerName, amt(s.CollectedAmount), amt(s.CreditAmount), amt(s.TotalAmount), s.Status)
			}
			t.flush()

			if len(day.Expenses) > 0 {
				fmt.Fprintln(out)
				t = newTable(out, "ID", "EXPENSE", "CATEGORY", "METHOD", "AMOUNT")
				for _, e := range day.Expenses {
					t.row(e.ID, e.Description, e.Category, e.PaymentMethod, amt(e.Amount))
				}
				t.flush()
			}

			fmt.Fprintln(out)
			t = newTable(out, "COLLECTIONS", "PENDING CREDIT", "EXPENSES", "NET PROFIT")
			s := day.Summary
			t.row(amt(s.Collections), amt(s.PendingCredit), amt(s.Expenses), amt(s.NetProfit))
			t.flush()
			return nil
		},
	}
	cmd.Flags().String("date", "", "Day to show (YYYY-MM-DD, default today)")
	return cmd
}

func newSalesListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sales",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			params, err := listParams(cmd)
			if err != nil {
				return err
			}
			page, err := views.NewSales(app.env).List(cmd.Context(), params)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			t := newTable(out, "ID", "DATE", "CUSTOMER", "COLLECTED", "CREDIT", "TOTAL", "STATUS")
			for _, s := range page.Items {
				t.row(s.ID, date(s.Date), s.CustomerName, amt(s.CollectedAmount), amt(s.CreditAmount), amt(s.TotalAmount), s.Status)
			}
			t.flush()
			pageFooter(out, page.Pagination)
			return nil
		},
	}
	addListFlags(cmd)
	cmd.Flags().String("status", "", "paid or pending")
	cmd.Flags().String("from", "", "From date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "To date (YYYY-MM-DD)")
	return cmd
}

func saleFlags(cmd *cobra.Command) {
	cmd.Flags().String("date", "", "Sale date (YYYY-MM-DD, default today)")
	cmd.Flags().String("customer", "", "Customer name (default Walk-in Customer)")
	cmd.Flags().String("collected", "", "Amount collected")
	cmd.Flags().String("credit", "", "Amount sold on credit")
	cmd.Flags().String("currency", "", "Currency code (default OMR)")
}

func applySaleFlags(cmd *cobra.Command, f *views.SaleForm) error {
	overlay(cmd, "customer", &f.CustomerName)
	overlay(cmd, "collected", &f.CollectedAmount)
	overlay(cmd, "credit", &f.CreditAmount)
	overlay(cmd, "currency", &f.Currency)
	return overlayDate(cmd, "date", &f.Date)
}

func newSalesAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a sale",
		Long: `Add a sale. The total is collected plus credit; any credit leaves the sale pending.`,
		Example: `  trackswift sales add --collected 50 --credit 20 --customer "Saif"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			var form views.SaleForm
			if err := applySaleFlags(cmd, &form); err != nil {
				return err
			}
			s, err := views.NewSales(app.env).Create(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  total %s  %s\n", s.ID, amt(s.TotalAmount), s.Status)
			return nil
		},
	}
	saleFlags(cmd)
	return cmd
}

func newSalesEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Change a sale; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			view := views.NewSales(app.env)
			current, err := view.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			form := views.SaleFormFrom(*current)
			if err := applySaleFlags(cmd, &form); err != nil {
				return err
			}
			_, err = view.Update(cmd.Context(), args[0], form)
			return err
		},
	}
	saleFlags(cmd)
	return cmd
}

func newSalesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			return views.NewSales(app.env).Delete(cmd.Context(), args[0])
		},
	}
}
