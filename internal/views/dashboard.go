package views

import (
	"context"

	"trackswift/internal/events"
	"trackswift/internal/models"
	"trackswift/internal/query"
)

func allKeys() []events.Key {
	return []events.Key{
		events.Vendors, events.Invoices, events.Inventory,
		events.Sales, events.Expenses, events.Users, events.Dashboard,
	}
}

// Dashboard loads the headline figures of the tenant.
func Dashboard(ctx context.Context, env *Env) (*models.DashboardData, error) {
	data, err := query.Fetch(ctx, env.Cache, events.Dashboard, dashboardCache, env.API.Dashboard)
	if err != nil {
		env.Fail(err, "Failed to load dashboard")
		return nil, err
	}
	return data, nil
}

// Valuation loads the stock valuation grouped by category.
func Valuation(ctx context.Context, env *Env) (*models.ValuationResponse, error) {
	v, err := query.Fetch(ctx, env.Cache, events.Inventory, "valuation", env.API.Valuation)
	if err != nil {
		env.Fail(err, "Failed to load stock valuation")
		return nil, err
	}
	return v, nil
}
