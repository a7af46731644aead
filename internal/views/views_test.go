package views

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackswift/internal/apiclient"
	"trackswift/internal/events"
	"trackswift/internal/models"
	"trackswift/internal/query"
	"trackswift/internal/session"
)

type toasts struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (t *toasts) Success(msg string) { t.mu.Lock(); t.successes = append(t.successes, msg); t.mu.Unlock() }
func (t *toasts) Error(msg string)   { t.mu.Lock(); t.errors = append(t.errors, msg); t.mu.Unlock() }

type answer bool

func (a answer) Confirm(string) bool { return bool(a) }

// fakeAPI records every request and answers from per-route handlers.
type fakeAPI struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string]map[string]interface{}
	mux      *http.ServeMux
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	f.mu.Lock()
	f.requests = append(f.requests, key)
	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut) {
		var body map[string]interface{}
		if json.NewDecoder(r.Body).Decode(&body) == nil {
			f.bodies[key] = body
		}
	}
	f.mu.Unlock()
	f.mux.ServeHTTP(w, r)
}

func (f *fakeAPI) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r == key {
			n++
		}
	}
	return n
}

func (f *fakeAPI) body(key string) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

func reply(status int, v interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

type fixture struct {
	env    *Env
	api    *fakeAPI
	toasts *toasts
	store  session.Storage
	stale  []events.Invalidation
}

func newFixture(t *testing.T, role string, confirm bool) *fixture {
	t.Helper()
	api := &fakeAPI{mux: http.NewServeMux(), bodies: map[string]map[string]interface{}{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	store := session.NewMemoryStorage()
	sess := session.New(store, zerolog.Nop())
	require.NoError(t, sess.Init(ctx))
	user := models.User{TenantID: "t1", Role: role, Email: "owner@example.com", CompanyName: "Acme"}
	user.ID = "u1"
	require.NoError(t, sess.Login(ctx, "token", user))

	f := &fixture{api: api, toasts: &toasts{}, store: store}
	bus := events.NewBus()
	bus.Subscribe(func(inv events.Invalidation) { f.stale = append(f.stale, inv) })
	cache := query.New(64, time.Minute, zerolog.Nop())
	cache.Attach(bus)

	f.env = &Env{
		API:     apiclient.New(srv.URL, time.Second, sess, zerolog.Nop()),
		Session: sess,
		Cache:   cache,
		Bus:     bus,
		Notify:  f.toasts,
		Confirm: answer(confirm),
		Log:     zerolog.Nop(),
		Now:     func() time.Time { return time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC) },
	}
	return f
}

func TestInvoiceFormRejectsOverpaymentWithoutSending(t *testing.T) {
	f := newFixture(t, models.RoleAdmin, true)
	_, err := NewInvoices(f.env).Create(context.Background(), InvoiceForm{
		Vendor: "v1", InvoiceNumber: "INV-1", BillAmount: "100", PaidAmount: "150",
	})

	var fe *FormError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Paid amount cannot exceed bill amount", fe.Fields[0].Message)
	assert.Equal(t, 0, f.api.count("POST /invoices"))
	assert.Empty(t, f.stale)
}

func TestInvoiceFormRequiredFields(t *testing.T) {
	_, err := InvoiceForm{}.Input(time.Now())
	var fe *FormError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []FieldError{
		{Field: "Vendor", Message: "Please select a vendor"},
		{Field: "InvoiceNumber", Message: "Invoice number is required"},
		{Field: "BillAmount", Message: "Bill amount is required"},
	}, fe.Fields)
}

func TestInvoiceCreateDerivesAndInvalidates(t *testing.T) {
	f := newFixture(t, models.RoleAdmin, true)
	f.api.mux.HandleFunc("/invoices", reply(http.StatusCreated, map[string]interface{}{"_id": "i1", "invoiceNumber": "INV-1"}))
	f.api.mux.HandleFunc("/vendors", reply(http.StatusOK, map[string]interface{}{"vendors": []interface{}{}, "pagination": models.Pagination{Page: 1}}))

	ctx := context.Background()
	vendors := NewVendors(f.env)
	_, err := vendors.List(ctx, apiclient.ListParams{Limit: DropdownLimit})
	require.NoError(t, err)
	_, err = vendors.List(ctx, apiclient.ListParams{Limit: DropdownLimit})
	require.NoError(t, err)
	assert.Equal(t, 1, f.api.count("GET /vendors"))

	_, err = NewInvoices(f.env).Create(ctx, InvoiceForm{
		Vendor: "v1", InvoiceNumber: " INV-1 ", BillAmount: "100", PaidAmount: "40",
	})
	require.NoError(t, err)

	body := f.api.body("POST /invoices")
	require.NotNil(t, body)
	assert.Equal(t, "INV-1", body["invoiceNumber"])
	assert.EqualValues(t, 60, body["balanceAmount"])
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "OMR", body["currency"])

	require.Len(t, f.stale, 1)
	assert.Equal(t, []events.Key{events.Invoices, events.Vendors, events.Dashboard}, f.stale[0].Keys)
	assert.Equal(t, []string{"Invoice created successfully"}, f.toasts.successes)

	// The vendor list was dropped from the cache and is fetched again.
	_, err = vendors.List(ctx, apiclient.ListParams{Limit: DropdownLimit})
	require.NoError(t, err)
	assert.Equal(t, 2, f.api.count("GET /vendors"))
}

func TestInvoiceEditIsIdempotent(t *testing.T) {
	inv := models.Invoice{
		VendorID:      "v1",
		InvoiceNumber: "INV-9",
		Date:          time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		BillAmount:    decimal.RequireFromString("100"),
		PaidAmount:    decimal.RequireFromString("100"),
		BalanceAmount: decimal.Zero,
		Status:        models.StatusPaid,
		Currency:      "OMR",
	}
	first, err := InvoiceFormFrom(inv).Input(time.Now())
	require.NoError(t, err)
	in := first.(models.InvoiceInput)
	assert.True(t, in.BalanceAmount.IsZero())
	assert.Equal(t, models.StatusPaid, in.Status)

	again := inv
	again.BillAmount, again.PaidAmount, again.BalanceAmount, again.Status = in.BillAmount, in.PaidAmount, in.BalanceAmount, in.Status
	second, err := InvoiceFormFrom(again).Input(time.Now())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSaleFormDerivation(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	out, err := SaleForm{CollectedAmount: "150", CreditAmount: "25.5"}.Input(now)
	require.NoError(t, err)
	in := out.(models.SaleInput)

	assert.Equal(t, "Walk-in Customer", in.CustomerName)
	assert.Equal(t, "175.5", in.TotalAmount.String())
	assert.Equal(t, models.StatusPending, in.Status)
	assert.Equal(t, now, in.Date)
	require.Len(t, in.Items, 1)
	assert.Equal(t, 1, in.Items[0].Quantity)
	assert.Nil(t, in.Items[0].Product)
	assert.True(t, in.Items[0].UnitPrice.Equal(in.TotalAmount))

	_, err = SaleForm{CollectedAmount: "0"}.Input(now)
	assert.ErrorContains(t, err, "Amount must be greater than 0")
}

func TestExpenseFormValidation(t *testing.T) {
	_, err := ExpenseForm{Description: "Rent", Category: "Rent", Amount: "10", PaymentMethod: "cheque"}.Input(time.Now())
	assert.ErrorContains(t, err, "Payment method must be cash, bank or card")

	_, err = ExpenseForm{Description: "Rent", Category: "Rent", Amount: "-1", PaymentMethod: "cash"}.Input(time.Now())
	assert.ErrorContains(t, err, "Amount must be positive")
}

func TestServerErrorsAreToasted(t *testing.T) {
	f := newFixture(t, models.RoleAdmin, true)
	f.api.mux.HandleFunc("/inventory", reply(http.StatusConflict, map[string]string{"message": "An item with this SKU already exists"}))
	f.api.mux.HandleFunc("/expenses", reply(http.StatusBadRequest, map[string]interface{}{
		"message": "Validation failed", "errors": []string{"Category is required", "Amount must be greater than 0"},
	}))

	ctx := context.Background()
	_, err := NewInventory(f.env).Create(ctx, InventoryForm{Name: "Cable", SKU: "C-1", BoughtPrice: "1", SellingPrice: "2"})
	require.Error(t, err)
	_, err = NewExpenses(f.env).Create(ctx, ExpenseForm{Description: "Fuel", Category: "Travel", Amount: "5", PaymentMethod: "cash"})
	require.Error(t, err)

	assert.Equal(t, []string{
		"An item with this SKU already exists",
		"Category is required",
		"Amount must be greater than 0",
	}, f.toasts.errors)
	assert.Empty(t, f.stale)
}

func TestFallbackMessageWhenServerSaysNothing(t *testing.T) {
	f := newFixture(t, models.RoleAdmin, true)
	f.api.mux.HandleFunc("/vendors", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err := NewVendors(f.env).Create(context.Background(), VendorForm{Name: "Acme"})
	require.Error(t, err)
	assert.Equal(t, []string{"Failed to create vendor"}, f.toasts.errors)

	f.env.Fail(context.DeadlineExceeded, "Failed to create vendor")
	assert.Equal(t, "Failed to create vendor", f.toasts.errors[1])
}

func TestUnauthorizedIsSilent(t *testing.T) {
	f := newFixture(t, models.RoleAdmin, true)
	f.api.mux.HandleFunc("/sales", reply(http.StatusUnauthorized, map[string]string{"message": "Invalid or expired token"}))

	_, err := NewSales(f.env).List(context.Background(), apiclient.ListParams{})
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
	assert.Empty(t, f.toasts.errors)
	assert.Equal(t, session.Unauthenticated, f.env.Session.State().Status)

	_, err = f.store.Get(context.Background(), session.KeyToken)
	assert.ErrorIs(t, err, session.ErrKeyNotFound)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	declined := newFixture(t, models.RoleAdmin, false)
	err := NewInvoices(declined.env).Delete(context.Background(), "i1")
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 0, declined.api.count("DELETE /invoices/i1"))

	accepted := newFixture(t, models.RoleAdmin, true)
	accepted.api.mux.HandleFunc("/invoices/i1", reply(http.StatusOK, map[string]string{"message": "Invoice deleted successfully"}))
	require.NoError(t, NewInvoices(accepted.env).Delete(context.Background(), "i1"))
	assert.Equal(t, 1, accepted.api.count("DELETE /invoices/i1"))
	assert.Equal(t, []string{"Invoice deleted successfully"}, accepted.toasts.successes)
	require.Len(t, accepted.stale, 1)
	assert.Equal(t, events.Invoices, accepted.stale[0].Source)
}

func TestSalesUseAddWording(t *testing.T) {
	f := newFixture(t, models.RoleAdmin, true)
	f.api.mux.HandleFunc("/sales", reply(http.StatusCreated, map[string]interface{}{"_id": "s1"}))
	_, err := NewSales(f.env).Create(context.Background(), SaleForm{CollectedAmount: "10"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sale added successfully"}, f.toasts.successes)
	assert.Equal(t, []events.Key{events.Sales, events.Dashboard}, f.stale[0].Keys)
}

func TestUsersRequireAdmin(t *testing.T) {
	f := newFixture(t, models.RoleUser, true)
	_, err := NewUsers(f.env).List(context.Background())
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, []string{"You need admin privileges to access this page."}, f.toasts.errors)
	assert.Equal(t, 0, f.api.count("GET /auth/users"))
}

func TestUserUpdateOmitsBlankPassword(t *testing.T) {
	f := newFixture(t, models.RoleAdmin, true)
	f.api.mux.HandleFunc("/auth/users/u2", reply(http.StatusOK, map[string]interface{}{"_id": "u2", "username": "sara"}))

	_, err := NewUsers(f.env).Update(context.Background(), "u2", UserForm{Username: "sara", Email: "sara@example.com", Role: "user", IsActive: true})
	require.NoError(t, err)
	body := f.api.body("PUT /auth/users/u2")
	require.NotNil(t, body)
	_, hasPassword := body["password"]
	assert.False(t, hasPassword)
	assert.Equal(t, []string{"User updated successfully"}, f.toasts.successes)

	_, err = NewUsers(f.env).Create(context.Background(), UserForm{Username: "x", Email: "x@example.com", Role: "user"})
	assert.ErrorContains(t, err, "Password is required")
}

func TestAdminUsersCannotBeDeleted(t *testing.T) {
	f := newFixture(t, models.RoleAdmin, true)
	target := models.User{Role: models.RoleAdmin}
	target.ID = "u9"
	err := NewUsers(f.env).Delete(context.Background(), target)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 0, f.api.count("DELETE /auth/users/u9"))
}

func TestSalesDay(t *testing.T) {
	f := newFixture(t, models.RoleAdmin, true)
	f.api.mux.HandleFunc("/sales", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "2024-03-15T00:00:00Z", r.URL.Query().Get("startDate"))
		assert.Equal(t, "2024-03-15T23:59:59.999Z", r.URL.Query().Get("endDate"))
		reply(http.StatusOK, map[string]interface{}{
			"sales": []map[string]interface{}{
				{"_id": "s1", "collectedAmount": 100, "creditAmount": 0, "totalAmount": 100},
				{"_id": "s2", "collectedAmount": 50, "creditAmount": 20, "totalAmount": 70},
			},
			"pagination": models.Pagination{Page: 1, Limit: 100, Total: 2, Pages: 1},
		})(w, r)
	})
	f.api.mux.HandleFunc("/expenses", reply(http.StatusOK, map[string]interface{}{
		"expenses":   []map[string]interface{}{{"_id": "e1", "amount": 30}},
		"pagination": models.Pagination{Page: 1, Limit: 100, Total: 1, Pages: 1},
	}))

	day, err := SalesDay(context.Background(), f.env, time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, day.Sales, 2)
	assert.Equal(t, "150", day.Summary.Collections.String())
	assert.Equal(t, "20", day.Summary.PendingCredit.String())
	assert.Equal(t, "30", day.Summary.Expenses.String())
	assert.Equal(t, "120", day.Summary.NetProfit.String())
}

func TestInvoiceReportRefusesEmptyRange(t *testing.T) {
	f := newFixture(t, models.RoleAdmin, true)
	f.api.mux.HandleFunc("/invoices", reply(http.StatusOK, map[string]interface{}{
		"invoices": []interface{}{}, "pagination": models.Pagination{Page: 1, Limit: 1000},
	}))

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	_, err := NewReports(f.env, t.TempDir()).InvoicesPDF(context.Background(), start, end)
	assert.ErrorIs(t, err, ErrEmptyRange)
	assert.Equal(t, []string{"No invoices found for the selected date range"}, f.toasts.errors)
	assert.Equal(t, 0, f.api.count("GET /reports/invoices/pdf"))
}

func TestInvoiceReportSavesFile(t *testing.T) {
	f := newFixture(t, models.RoleAdmin, true)
	f.api.mux.HandleFunc("/invoices", reply(http.StatusOK, map[string]interface{}{
		"invoices":   []map[string]interface{}{{"_id": "i1", "billAmount": 100}},
		"pagination": models.Pagination{Page: 1, Limit: 1000, Total: 1, Pages: 1},
	}))
	f.api.mux.HandleFunc("/reports/invoices/pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 report"))
	})

	dir := t.TempDir()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	path, err := NewReports(f.env, dir).InvoicesPDF(context.Background(), start, end)
	require.NoError(t, err)

	name := filepath.Base(path)
	assert.True(t, strings.HasPrefix(name, "TrackSwift-Invoices-2024-03-01-to-2024-03-31-"), name)
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 report", string(raw))
	assert.Equal(t, []string{"Invoice report downloaded successfully"}, f.toasts.successes)
}

func TestInvoicePDFStaysInDownloadDir(t *testing.T) {
	f := newFixture(t, models.RoleAdmin, true)
	f.api.mux.HandleFunc("/invoices/i1/pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 invoice"))
	})

	dir := filepath.Join(t.TempDir(), "downloads")
	reports := NewReports(f.env, dir)
	cases := map[string]string{
		"INV/2024/001": "invoice-INV-2024-001.pdf",
		"../../escape": "invoice-----escape.pdf",
		"C:\\temp\\x":  "invoice-C:-temp-x.pdf",
		"  ":           "invoice-i1.pdf",
	}
	for number, want := range cases {
		inv := models.Invoice{InvoiceNumber: number}
		inv.ID = "i1"
		path, err := reports.InvoicePDF(context.Background(), inv)
		require.NoError(t, err, number)
		assert.Equal(t, filepath.Join(dir, want), path, number)

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.7 invoice", string(raw))
	}

	entries, err := os.ReadDir(filepath.Dir(dir))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "downloads", entries[0].Name())
}

func TestReportSummaryTotals(t *testing.T) {
	f := newFixture(t, models.RoleAdmin, true)
	f.api.mux.HandleFunc("/invoices", reply(http.StatusOK, map[string]interface{}{
		"invoices": []map[string]interface{}{
			{"_id": "i1", "billAmount": 100, "paidAmount": 40, "balanceAmount": 60},
			{"_id": "i2", "billAmount": 50, "paidAmount": 50, "balanceAmount": 0},
		},
		"pagination": models.Pagination{Page: 1, Limit: 1000, Total: 2, Pages: 1},
	}))
	f.api.mux.HandleFunc("/sales", reply(http.StatusOK, map[string]interface{}{
		"sales":      []map[string]interface{}{{"_id": "s1", "collectedAmount": 150, "creditAmount": 0, "totalAmount": 150}},
		"pagination": models.Pagination{Page: 1, Limit: 1000, Total: 1, Pages: 1},
	}))

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sum, err := NewReports(f.env, "").Summary(context.Background(), start, start.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Equal(t, "150", sum.Invoice.Bill.String())
	assert.Equal(t, "60", sum.Invoice.Balance.String())
	assert.Equal(t, 2, sum.Invoice.Count)
	assert.Equal(t, "150", sum.Sale.Total.String())
}

func TestLoginFailureMovesSessionToError(t *testing.T) {
	f := newFixture(t, models.RoleAdmin, true)
	require.NoError(t, Logout(context.Background(), f.env))
	f.api.mux.HandleFunc("/auth/login", reply(http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"}))

	_, err := Login(context.Background(), f.env, LoginForm{Email: "a@example.com", Password: "bad", CompanyName: "Acme"})
	require.Error(t, err)
	assert.Equal(t, session.Error, f.env.Session.State().Status)
	assert.Equal(t, "Invalid credentials", f.env.Session.Err())

	_, err = Register(context.Background(), f.env, RegisterForm{
		FirstName: "A", Email: "a@example.com", Password: "secret1", ConfirmPassword: "secret2", CompanyName: "Acme",
	})
	assert.ErrorContains(t, err, "Passwords do not match")
}
