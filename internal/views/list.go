package views

import (
	"context"
	"fmt"

	"trackswift/internal/apiclient"
	"trackswift/internal/events"
	"trackswift/internal/models"
	"trackswift/internal/query"
)

// Page sizes used by the screens.
const (
	PageSize       = 10
	DropdownLimit  = 1000
	DayLimit       = 100
	ReportLimit    = 1000
	dashboardCache = "overview"
)

var pastTense = map[string]string{
	"create": "created",
	"add":    "added",
	"update": "updated",
	"delete": "deleted",
}

// ListView is the list/form flow of one collection.
type ListView[T any] struct {
	env    *Env
	res    *apiclient.Resource[T]
	key    events.Key
	noun   string // "invoice", "inventory item"
	plural string
	// createVerb is "create" for most screens and "add" for sales.
	createVerb string
}

func newListView[T any](env *Env, res *apiclient.Resource[T], key events.Key, noun, plural string) *ListView[T] {
	return &ListView[T]{env: env, res: res, key: key, noun: noun, plural: plural, createVerb: "create"}
}

func NewVendors(env *Env) *ListView[models.Vendor] {
	return newListView(env, env.API.Vendors, events.Vendors, "vendor", "vendors")
}

func NewInvoices(env *Env) *ListView[models.Invoice] {
	return newListView(env, env.API.Invoices, events.Invoices, "invoice", "invoices")
}

func NewInventory(env *Env) *ListView[models.InventoryItem] {
	return newListView(env, env.API.Inventory, events.Inventory, "inventory item", "inventory")
}

func NewSales(env *Env) *ListView[models.Sale] {
	v := newListView(env, env.API.Sales, events.Sales, "sale", "sales")
	v.createVerb = "add"
	return v
}

func NewExpenses(env *Env) *ListView[models.Expense] {
	return newListView(env, env.API.Expenses, events.Expenses, "expense", "expenses")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// List loads one page. A zero limit means the screen page size.
func (v *ListView[T]) List(ctx context.Context, p apiclient.ListParams) (*apiclient.Page[T], error) {
	if p.Limit <= 0 {
		p.Limit = PageSize
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	page, err := query.Fetch(ctx, v.env.Cache, v.key, p.Key(), func(ctx context.Context) (*apiclient.Page[T], error) {
		return v.res.List(ctx, p)
	})
	if err != nil {
		v.env.Fail(err, "Failed to load "+v.plural)
		return nil, err
	}
	return page, nil
}

func (v *ListView[T]) Get(ctx context.Context, id string) (*T, error) {
	out, err := v.res.Get(ctx, id)
	if err != nil {
		v.env.Fail(err, "Failed to load "+v.noun)
		return nil, err
	}
	return out, nil
}

func (v *ListView[T]) Create(ctx context.Context, f Form) (*T, error) {
	return v.submit(ctx, v.createVerb, f, func(in interface{}) (*T, error) {
		return v.res.Create(ctx, in)
	})
}

func (v *ListView[T]) Update(ctx context.Context, id string, f Form) (*T, error) {
	return v.submit(ctx, "update", f, func(in interface{}) (*T, error) {
		return v.res.Update(ctx, id, in)
	})
}

// submit runs the form flow: validate and derive, send, invalidate, toast.
func (v *ListView[T]) submit(ctx context.Context, verb string, f Form, send func(interface{}) (*T, error)) (*T, error) {
	// 1. Validate & derive (nothing is sent on failure)
	in, err := f.Input(v.env.now())
	if err != nil {
		return nil, err
	}

	// 2. Send
	out, err := send(in)
	if err != nil {
		v.env.Fail(err, fmt.Sprintf("Failed to %s %s", verb, v.noun))
		return nil, err
	}

	// 3. Invalidate & confirm
	v.env.Bus.Mutated(v.key)
	v.env.Notify.Success(fmt.Sprintf("%s %s successfully", capitalize(v.noun), pastTense[verb]))
	return out, nil
}

// Delete asks first; declining sends nothing and returns ErrCancelled.
func (v *ListView[T]) Delete(ctx context.Context, id string) error {
	if !v.env.Confirm.Confirm(fmt.Sprintf("Are you sure you want to delete this %s?", v.noun)) {
		return ErrCancelled
	}
	if err := v.res.Delete(ctx, id); err != nil {
		v.env.Fail(err, "Failed to delete "+v.noun)
		return err
	}
	v.env.Bus.Mutated(v.key)
	v.env.Notify.Success(fmt.Sprintf("%s deleted successfully", capitalize(v.noun)))
	return nil
}
