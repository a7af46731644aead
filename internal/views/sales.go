package views

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"trackswift/internal/apiclient"
	"trackswift/internal/ledger"
	"trackswift/internal/models"
)

// Day is the daily sales sheet: the day's sales and expenses and the cards
// summarizing them.
type Day struct {
	Date     time.Time
	Sales    []models.Sale
	Expenses []models.Expense
	Summary  ledger.DaySummary
}

// SalesDay loads the sales and expenses of the local calendar day of date.
func SalesDay(ctx context.Context, env *Env, date time.Time) (*Day, error) {
	start, end := startOfDay(date), endOfDay(date)
	params := apiclient.ListParams{Page: 1, Limit: DayLimit, StartDate: &start, EndDate: &end}

	sales, expenses := NewSales(env), NewExpenses(env)
	day := &Day{Date: start}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := sales.List(gctx, params)
		if err != nil {
			return err
		}
		day.Sales = page.Items
		return nil
	})
	g.Go(func() error {
		page, err := expenses.List(gctx, params)
		if err != nil {
			return err
		}
		day.Expenses = page.Items
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	day.Summary = ledger.SummarizeDay(day.Sales, day.Expenses)
	return day, nil
}
