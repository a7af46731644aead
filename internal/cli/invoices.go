package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"trackswift/internal/views"
)

func newInvoicesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Manage vendor invoices and what is still owed on them",
	}
	cmd.AddCommand(
		newInvoicesListCmd(app),
		newInvoicesAddCmd(app),
		newInvoicesEditCmd(app),
		newInvoicesDeleteCmd(app),
		newInvoicesPDFCmd(app),
	)
	return cmd
}

func newInvoicesListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		Example: `  # Unpaid invoices of March
  trackswift invoices list --status pending --from 2024-03-01 --to 2024-03-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			params, err := listParams(cmd)
			if err != nil {
				return err
			}
			page, err := views.NewInvoices(app.env).List(cmd.Context(), params)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			t := newTable(out, "ID", "NUMBER", "DATE", "VENDOR", "BILL", "PAID", "BALANCE", "STATUS")
			for _, inv := range page.Items {
				t.row(inv.ID, inv.InvoiceNumber, date(inv.Date), inv.VendorName,
					amt(inv.BillAmount), amt(inv.PaidAmount), amt(inv.BalanceAmount), inv.Status)
			}
			t.flush()
			pageFooter(out, page.Pagination)
			return nil
		},
	}
	addListFlags(cmd)
	cmd.Flags().String("vendor", "", "Only this vendor's invoices (vendor id)")
	cmd.Flags().String("status", "", "paid or pending")
	cmd.Flags().String("from", "", "From date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "To date (YYYY-MM-DD)")
	return cmd
}

func invoiceFlags(cmd *cobra.Command) {
	cmd.Flags().String("vendor", "", "Vendor id")
	cmd.Flags().String("number", "", "Invoice number")
	cmd.Flags().String("date", "", "Invoice date (YYYY-MM-DD, default today)")
	cmd.Flags().String("bill", "", "Bill amount")
	cmd.Flags().String("paid", "", "Amount paid so far")
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().String("currency", "", "Currency code (default OMR)")
}

func applyInvoiceFlags(cmd *cobra.Command, f *views.InvoiceForm) error {
	overlay(cmd, "vendor", &f.Vendor)
	overlay(cmd, "number", &f.InvoiceNumber)
	overlay(cmd, "bill", &f.BillAmount)
	overlay(cmd, "paid", &f.PaidAmount)
	overlay(cmd, "description", &f.Description)
	overlay(cmd, "currency", &f.Currency)
	return overlayDate(cmd, "date", &f.Date)
}

func newInvoicesAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a vendor invoice",
		Long: `Record a vendor invoice. The balance and the paid/pending status are worked out
from the bill and paid amounts; paying more than the bill is refused.`,
		Example: `  trackswift invoices add --vendor 5f0c... --number INV-1001 --bill 100 --paid 40`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			var form views.InvoiceForm
			if err := applyInvoiceFlags(cmd, &form); err != nil {
				return err
			}
			inv, err := views.NewInvoices(app.env).Create(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  balance %s  %s\n", inv.ID, amt(inv.BalanceAmount), inv.Status)
			return nil
		},
	}
	invoiceFlags(cmd)
	return cmd
}

func newInvoicesEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Change an invoice, e.g. record a payment",
		Example: `  # The invoice is now fully paid
  trackswift invoices edit 5f0c... --paid 100`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			view := views.NewInvoices(app.env)
			current, err := view.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			form := views.InvoiceFormFrom(*current)
			if err := applyInvoiceFlags(cmd, &form); err != nil {
				return err
			}
			_, err = view.Update(cmd.Context(), args[0], form)
			return err
		},
	}
	invoiceFlags(cmd)
	return cmd
}

func newInvoicesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			return views.NewInvoices(app.env).Delete(cmd.Context(), args[0])
		},
	}
}

func newInvoicesPDFCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pdf [id]",
		Short: "Download an invoice as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			inv, err := views.NewInvoices(app.env).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			path, err := views.NewReports(app.env, app.cfg.DownloadDir).InvoicePDF(cmd.Context(), *inv)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
