package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"trackswift/internal/views"
)

func newInventoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Manage stocked items",
	}
	cmd.AddCommand(
		newInventoryListCmd(app),
		newInventoryAddCmd(app),
		newInventoryEditCmd(app),
		newInventoryDeleteCmd(app),
	)
	return cmd
}

func newInventoryListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List items with stock value and low-stock flags",
		Example: `  trackswift inventory list --low-stock`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			params, err := listParams(cmd)
			if err != nil {
				return err
			}
			page, err := views.NewInventory(app.env).List(cmd.Context(), params)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			t := newTable(out, "ID", "SKU", "NAME", "CATEGORY", "STOCK", "MIN", "BOUGHT", "SELLING", "VALUE", "")
			for _, it := range page.Items {
				flag := ""
				if it.LowStockAlert {
					flag = "LOW"
				}
				t.row(it.ID, it.SKU, it.Name, it.Category,
					fmt.Sprint(it.CurrentStock), fmt.Sprint(it.MinimumStock),
					amt(it.BoughtPrice), amt(it.SellingPrice), amt(it.StockValue), flag)
			}
			t.flush()
			pageFooter(out, page.Pagination)
			return nil
		},
	}
	addListFlags(cmd)
	cmd.Flags().String("category", "", "Only this category")
	cmd.Flags().Bool("low-stock", false, "Only items at or below their minimum stock")
	return cmd
}

func inventoryFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Item name")
	cmd.Flags().String("sku", "", "Stock keeping unit, unique per company")
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().String("category", "", "Category")
	cmd.Flags().String("bought", "", "Bought (cost) price")
	cmd.Flags().String("selling", "", "Selling price")
	cmd.Flags().Int("stock", 0, "Units on hand")
	cmd.Flags().Int("min-stock", 0, "Minimum stock before the item is flagged")
	cmd.Flags().String("currency", "", "Currency code (default OMR)")
}

func applyInventoryFlags(cmd *cobra.Command, f *views.InventoryForm) {
	overlay(cmd, "name", &f.Name)
	overlay(cmd, "sku", &f.SKU)
	overlay(cmd, "description", &f.Description)
	overlay(cmd, "category", &f.Category)
	overlay(cmd, "bought", &f.BoughtPrice)
	overlay(cmd, "selling", &f.SellingPrice)
	overlayInt(cmd, "stock", &f.CurrentStock)
	overlayInt(cmd, "min-stock", &f.MinimumStock)
	overlay(cmd, "currency", &f.Currency)
}

func newInventoryAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add an item",
		Example: `  trackswift inventory add --name "USB cable" --sku USB-C-1 --bought 0.8 --selling 1.5 --stock 40 --min-stock 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			var form views.InventoryForm
			applyInventoryFlags(cmd, &form)
			item, err := views.NewInventory(app.env).Create(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), item.ID)
			return nil
		},
	}
	inventoryFlags(cmd)
	return cmd
}

func newInventoryEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Change an item; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			view := views.NewInventory(app.env)
			current, err := view.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			form := views.InventoryFormFrom(*current)
			applyInventoryFlags(cmd, &form)
			_, err = view.Update(cmd.Context(), args[0], form)
			return err
		},
	}
	inventoryFlags(cmd)
	return cmd
}

func newInventoryDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			return views.NewInventory(app.env).Delete(cmd.Context(), args[0])
		},
	}
}
