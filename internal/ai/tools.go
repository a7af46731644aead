package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"trackswift/internal/database"
	"trackswift/internal/ledger"
	"trackswift/internal/models"
)

var declarations = []*genai.FunctionDeclaration{
	{
		Name:        "check_inventory",
		Description: "Get the full inventory list. Use this to find ANY item details like SKU, name, prices, stock or low stock flags.",
	},
	{
		Name:        "update_selling_price",
		Description: "Update the selling price of an inventory item identified by its SKU",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"sku":       {Type: genai.TypeString, Description: "SKU of the item"},
				"new_price": {Type: genai.TypeNumber, Description: "New selling price"},
			},
			Required: []string{"sku", "new_price"},
		},
	},
	{
		Name:        "get_sales_report",
		Description: "Get collections, credit, sales count and expenses for a date range.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
				"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
			},
			Required: []string{"start_date", "end_date"},
		},
	},
	{
		Name:        "get_dashboard",
		Description: "Get total sales, total expenses, profit and the number of low stock items.",
	},
	{
		Name:        "list_pending_invoices",
		Description: "List unpaid vendor invoices with their outstanding balance.",
	},
}

// Tools executes the assistant's function calls against one tenant.
type Tools struct {
	DB       *gorm.DB
	TenantID string
	UserID   string
}

// Call dispatches a function call by name.
func (t *Tools) Call(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error) {
	switch name {
	case "check_inventory":
		return t.checkInventory(ctx)
	case "update_selling_price":
		return t.updateSellingPrice(ctx, args)
	case "get_sales_report":
		return t.salesReport(ctx, args)
	case "get_dashboard":
		return t.dashboard(ctx)
	case "list_pending_invoices":
		return t.pendingInvoices(ctx)
	default:
		return nil, fmt.Errorf("unknown tool %q", name)
	}
}

func (t *Tools) checkInventory(ctx context.Context) (map[string]interface{}, error) {
	items, err := database.AllInventory(ctx, t.DB, t.TenantID)
	if err != nil {
		return nil, err
	}

	type simpleItem struct {
		SKU      string `json:"sku"`
		Name     string `json:"name"`
		Category string `json:"category"`
		Stock    int    `json:"stock"`
		Cost     string `json:"cost"`
		Price    string `json:"price"`
		LowStock bool   `json:"low_stock"`
	}
	list := make([]simpleItem, 0, len(items))
	for _, it := range items {
		list = append(list, simpleItem{
			SKU:      it.SKU,
			Name:     it.Name,
			Category: it.Category,
			Stock:    it.CurrentStock,
			Cost:     ledger.Format(it.BoughtPrice),
			Price:    ledger.Format(it.SellingPrice),
			LowStock: it.LowStockAlert,
		})
	}
	// Tool results cross into protobuf structs, so lists travel as JSON strings.
	jsonBytes, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"inventory": string(jsonBytes)}, nil
}

func (t *Tools) updateSellingPrice(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	sku, _ := args["sku"].(string)
	price, ok := args["new_price"].(float64)
	if strings.TrimSpace(sku) == "" || !ok {
		return nil, fmt.Errorf("sku and new_price are required")
	}
	newPrice := ledger.Round(decimal.NewFromFloat(price))
	if newPrice.IsNegative() {
		return nil, ledger.ErrNegativePrice
	}

	var item models.InventoryItem
	err := database.Scoped(ctx, t.DB, t.TenantID).Where("sku = ?", sku).First(&item).Error
	if err != nil {
		return map[string]interface{}{"status": "Item not found", "sku": sku}, nil
	}
	if err := t.DB.WithContext(ctx).Model(&item).Update("selling_price", newPrice).Error; err != nil {
		return nil, err
	}
	if err := database.Audit(ctx, t.DB, t.TenantID, t.UserID, "update", "inventory", item.ID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "Success", "sku": sku, "new_price": ledger.Format(newPrice)}, nil
}

func (t *Tools) salesReport(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	startStr, _ := args["start_date"].(string)
	endStr, _ := args["end_date"].(string)

	start, err1 := time.Parse(time.DateOnly, startStr)
	end, err2 := time.Parse(time.DateOnly, endStr)
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("dates must be in YYYY-MM-DD format")
	}
	end = end.Add(24*time.Hour - time.Millisecond)

	report, err := database.GetSalesReport(ctx, t.DB, t.TenantID, start, end)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"collected":   ledger.Format(report.Totals.Collected),
		"credit":      ledger.Format(report.Totals.Credit),
		"total":       ledger.Format(report.Totals.Total),
		"sales_count": report.Count,
		"expenses":    ledger.Format(report.Expenses),
	}, nil
}

func (t *Tools) dashboard(ctx context.Context) (map[string]interface{}, error) {
	data, err := database.Dashboard(ctx, t.DB, t.TenantID, "")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"total_sales":      ledger.Format(data.TotalSales),
		"total_expenses":   ledger.Format(data.TotalExpenses),
		"profit":           ledger.Format(data.Profit),
		"low_stock_items":  len(data.LowStockAlerts),
		"pending_invoices": len(data.PendingInvoices),
	}, nil
}

func (t *Tools) pendingInvoices(ctx context.Context) (map[string]interface{}, error) {
	invoices, _, err := database.ListInvoices(ctx, t.DB, t.TenantID, database.ListFilter{
		Status: models.StatusPending,
		Limit:  database.MaxPageSize,
	})
	if err != nil {
		return nil, err
	}

	type pending struct {
		Number  string `json:"invoice_number"`
		Vendor  string `json:"vendor"`
		Date    string `json:"date"`
		Balance string `json:"balance"`
	}
	list := make([]pending, 0, len(invoices))
	for _, inv := range invoices {
		list = append(list, pending{
			Number:  inv.InvoiceNumber,
			Vendor:  inv.VendorName,
			Date:    inv.Date.UTC().Format(time.DateOnly),
			Balance: ledger.Format(inv.BalanceAmount),
		})
	}
	jsonBytes, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"invoices": string(jsonBytes),
		"total":    ledger.Format(ledger.SumInvoices(invoices).Balance),
	}, nil
}
