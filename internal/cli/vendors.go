package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"trackswift/internal/views"
)

func newVendorsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "Manage the suppliers that bill you",
	}
	cmd.AddCommand(
		newVendorsListCmd(app),
		newVendorsAddCmd(app),
		newVendorsEditCmd(app),
		newVendorsDeleteCmd(app),
	)
	return cmd
}

func newVendorsListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List vendors with their invoiced and outstanding totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			params, err := listParams(cmd)
			if err != nil {
				return err
			}
			page, err := views.NewVendors(app.env).List(cmd.Context(), params)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			t := newTable(out, "ID", "NAME", "EMAIL", "PHONE", "TOTAL", "PENDING")
			for _, v := range page.Items {
				t.row(v.ID, v.Name, v.Email, v.Phone, amt(v.TotalAmount), amt(v.PendingAmount))
			}
			t.flush()
			pageFooter(out, page.Pagination)
			return nil
		},
	}
	addListFlags(cmd)
	return cmd
}

func vendorFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Vendor name")
	cmd.Flags().String("email", "", "Contact email")
	cmd.Flags().String("phone", "", "Phone number")
	cmd.Flags().String("address", "", "Postal address")
	cmd.Flags().String("tax-number", "", "Tax registration number")
	cmd.Flags().String("payment-terms", "", "Payment terms, e.g. \"Net 30\"")
}

func applyVendorFlags(cmd *cobra.Command, f *views.VendorForm) {
	overlay(cmd, "name", &f.Name)
	overlay(cmd, "email", &f.Email)
	overlay(cmd, "phone", &f.Phone)
	overlay(cmd, "address", &f.Address)
	overlay(cmd, "tax-number", &f.TaxNumber)
	overlay(cmd, "payment-terms", &f.PaymentTerms)
}

func newVendorsAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a vendor",
		Example: `  trackswift vendors add --name "Gulf Supplies" --email sales@gulf.om --payment-terms "Net 30"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			var form views.VendorForm
			applyVendorFlags(cmd, &form)
			v, err := views.NewVendors(app.env).Create(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.ID)
			return nil
		},
	}
	vendorFlags(cmd)
	return cmd
}

func newVendorsEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Change a vendor; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			view := views.NewVendors(app.env)
			current, err := view.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			form := views.VendorFormFrom(*current)
			applyVendorFlags(cmd, &form)
			_, err = view.Update(cmd.Context(), args[0], form)
			return err
		},
	}
	vendorFlags(cmd)
	return cmd
}

func newVendorsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a vendor that has no invoices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			return views.NewVendors(app.env).Delete(cmd.Context(), args[0])
		},
	}
}
