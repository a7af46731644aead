package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"trackswift/internal/models"
	"trackswift/internal/views"
)

func newExpensesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Manage money paid out",
	}
	cmd.AddCommand(
		newExpensesListCmd(app),
		newExpensesAddCmd(app),
		newExpensesEditCmd(app),
		newExpensesDeleteCmd(app),
	)
	return cmd
}

func newExpensesListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			params, err := listParams(cmd)
			if err != nil {
				return err
			}
			page, err := views.NewExpenses(app.env).List(cmd.Context(), params)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			t := newTable(out, "ID", "DATE", "DESCRIPTION", "CATEGORY", "METHOD", "AMOUNT")
			for _, e := range page.Items {
				t.row(e.ID, date(e.Date), e.Description, e.Category, e.PaymentMethod, money(e.Currency, e.Amount))
			}
			t.flush()
			pageFooter(out, page.Pagination)
			return nil
		},
	}
	addListFlags(cmd)
	cmd.Flags().String("category", "", "Only this category")
	cmd.Flags().String("from", "", "From date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "To date (YYYY-MM-DD)")
	return cmd
}

func expenseFlags(cmd *cobra.Command) {
	cmd.Flags().String("date", "", "Expense date (YYYY-MM-DD, default today)")
	cmd.Flags().String("description", "", "What the money was spent on")
	cmd.Flags().String("category", "", "One of: "+strings.Join(models.ExpenseCategories, ", "))
	cmd.Flags().String("amount", "", "Amount")
	cmd.Flags().String("method", "", "Payment method: cash, bank or card")
	cmd.Flags().String("currency", "", "Currency code (default OMR)")
}

func applyExpenseFlags(cmd *cobra.Command, f *views.ExpenseForm) error {
	overlay(cmd, "description", &f.Description)
	overlay(cmd, "category", &f.Category)
	overlay(cmd, "amount", &f.Amount)
	overlay(cmd, "method", &f.PaymentMethod)
	overlay(cmd, "currency", &f.Currency)
	return overlayDate(cmd, "date", &f.Date)
}

func newExpensesAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Record an expense",
		Example: `  trackswift expenses add --description "Office rent" --category Rent --amount 30 --method bank`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			var form views.ExpenseForm
			if err := applyExpenseFlags(cmd, &form); err != nil {
				return err
			}
			e, err := views.NewExpenses(app.env).Create(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), e.ID)
			return nil
		},
	}
	expenseFlags(cmd)
	return cmd
}

func newExpensesEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Change an expense; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			view := views.NewExpenses(app.env)
			current, err := view.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			form := views.ExpenseFormFrom(*current)
			if err := applyExpenseFlags(cmd, &form); err != nil {
				return err
			}
			_, err = view.Update(cmd.Context(), args[0], form)
			return err
		},
	}
	expenseFlags(cmd)
	return cmd
}

func newExpensesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			return views.NewExpenses(app.env).Delete(cmd.Context(), args[0])
		},
	}
}
