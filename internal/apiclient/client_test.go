package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackswift/internal/models"
	"trackswift/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func signedIn(t *testing.T) (*session.Session, session.Storage) {
	t.Helper()
	store := session.NewMemoryStorage()
	s := session.New(store, zerolog.Nop())
	require.NoError(t, s.Init(context.Background()))
	user := models.User{TenantID: "t1", Role: models.RoleAdmin, Email: "a@example.com"}
	user.ID = "u1"
	require.NoError(t, s.Login(context.Background(), "secret-token", user))
	return s, store
}

func TestBearerTokenAndList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/invoices", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "pending", r.URL.Query().Get("status"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"invoices":   []map[string]interface{}{{"_id": "i1", "invoiceNumber": "INV-1", "billAmount": 100, "status": "pending"}},
			"pagination": models.Pagination{Page: 2, Limit: 10, Total: 11, Pages: 2},
		})
	}))
	defer srv.Close()

	s, _ := signedIn(t)
	c := New(srv.URL+"/api", time.Second, s, zerolog.Nop())

	page, err := c.Invoices.List(context.Background(), ListParams{Page: 2, Status: "pending"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "INV-1", page.Items[0].InvoiceNumber)
	assert.Equal(t, "100", page.Items[0].BillAmount.String())
	assert.Equal(t, 2, page.Pagination.Pages)
}

func TestUnauthorizedClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid or expired token"})
	}))
	defer srv.Close()

	s, store := signedIn(t)
	c := New(srv.URL, time.Second, s, zerolog.Nop())

	_, err := c.Vendors.List(context.Background(), ListParams{})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, session.Unauthenticated, s.State().Status)

	_, err = store.Get(context.Background(), session.KeyToken)
	assert.ErrorIs(t, err, session.ErrKeyNotFound)
	_, err = store.Get(context.Background(), session.KeyUser)
	assert.ErrorIs(t, err, session.ErrKeyNotFound)
}

func TestLoginFailureKeepsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil, zerolog.Nop())
	_, err := c.Login(context.Background(), models.LoginRequest{Email: "a@example.com", Password: "x", CompanyName: "Acme"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
}

func TestReadsRetryOnce(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			writeJSON(w, http.StatusBadGateway, map[string]string{"message": "upstream"})
			return
		}
		writeJSON(w, http.StatusOK, models.DashboardResponse{Success: true, Data: models.DashboardData{Currency: "OMR"}})
	}))
	defer srv.Close()

	s, _ := signedIn(t)
	c := New(srv.URL, time.Second, s, zerolog.Nop())
	data, err := c.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OMR", data.Currency)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestMutationsAreNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to create vendor"})
	}))
	defer srv.Close()

	s, _ := signedIn(t)
	c := New(srv.URL, time.Second, s, zerolog.Nop())
	_, err := c.Vendors.Create(context.Background(), models.VendorInput{Name: "Acme"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Failed to create vendor", apiErr.Message)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestValidationErrorsSurface(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": "Validation failed",
			"errors":  []string{"Name is required", "Invalid email address"},
		})
	}))
	defer srv.Close()

	s, _ := signedIn(t)
	c := New(srv.URL, time.Second, s, zerolog.Nop())
	_, err := c.Vendors.Create(context.Background(), models.VendorInput{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, []string{"Name is required", "Invalid email address"}, apiErr.Messages())
}

func TestUpdateUserOmitsBlankPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasPassword := body["password"]
		assert.False(t, hasPassword)
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/auth/users/u2", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{"_id": "u2", "username": "sara", "role": "user"})
	}))
	defer srv.Close()

	s, _ := signedIn(t)
	c := New(srv.URL, time.Second, s, zerolog.Nop())
	user, err := c.UpdateUser(context.Background(), "u2", models.UserInput{Username: "sara", Email: "s@example.com", Role: "user", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "sara", user.Username)
}

func TestReportDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reports/invoices/pdf", r.URL.Path)
		assert.Equal(t, "2024-03-01", r.URL.Query().Get("startDate"))
		assert.Equal(t, "2024-03-31", r.URL.Query().Get("endDate"))
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	s, _ := signedIn(t)
	c := New(srv.URL, time.Second, s, zerolog.Nop())
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	pdf, err := c.InvoicesReportPDF(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
}

func TestIDsAreEscapedInPaths(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.EscapedPath())
		mu.Unlock()
		if r.URL.Path == "/invoices/a/b/pdf" {
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.7"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"_id": "v1", "message": "ok"})
	}))
	defer srv.Close()

	s, _ := signedIn(t)
	c := New(srv.URL, time.Second, s, zerolog.Nop())
	ctx := context.Background()

	_, err := c.Vendors.Get(ctx, "a/b")
	require.NoError(t, err)
	_, err = c.Vendors.Update(ctx, "x y", map[string]string{"name": "Paper Co"})
	require.NoError(t, err)
	require.NoError(t, c.Vendors.Delete(ctx, "../users"))
	require.NoError(t, c.DeleteUser(ctx, "u1?all=true"))
	_, err = c.InvoicePDF(ctx, "a/b")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"GET /vendors/a%2Fb",
		"PUT /vendors/x%20y",
		"DELETE /vendors/..%2Fusers",
		"DELETE /auth/users/u1%3Fall=true",
		"GET /invoices/a%2Fb/pdf",
	}, paths)
}
