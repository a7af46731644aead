package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackswift/internal/config"
	"trackswift/internal/models"
)

type server struct {
	mu    sync.Mutex
	hits  map[string]int
	mux   *http.ServeMux
	httpd *httptest.Server
}

func newServer(t *testing.T) *server {
	t.Helper()
	s := &server{hits: map[string]int{}, mux: http.NewServeMux()}
	s.httpd = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		s.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.httpd.Close)

	s.mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		user := models.User{TenantID: "t1", Email: "owner@acme.om", Role: models.RoleAdmin, CompanyName: "Acme"}
		user.ID = "u1"
		writeJSON(w, http.StatusOK, models.AuthResponse{Token: "tok", User: user})
	})
	return s
}

func (s *server) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// env is one installation: a server and a session file shared by every
// invocation.
type env struct {
	t       *testing.T
	srv     *server
	session string
}

func newEnv(t *testing.T) *env {
	return &env{t: t, srv: newServer(t), session: filepath.Join(t.TempDir(), "session.json")}
}

// run executes one command line, feeding input to prompts.
func (e *env) run(input string, args ...string) (int, string) {
	e.t.Helper()
	cfg := &config.ClientConfig{
		APIURL:         e.srv.httpd.URL,
		HTTPTimeout:    time.Second,
		SessionBackend: "file",
		SessionFile:    e.session,
		CacheTTL:       time.Minute,
		CacheSize:      16,
		DownloadDir:    e.t.TempDir(),
	}
	var out bytes.Buffer
	app := NewApp(cfg, strings.NewReader(input), &out, zerolog.Nop())
	code := Execute(context.Background(), app, args)
	return code, out.String()
}

func (e *env) login() {
	e.t.Helper()
	code, out := e.run("", "login", "--company", "Acme", "--email", "owner@acme.om", "--password", "s3cret")
	require.Equal(e.t, 0, code, out)
}

func TestCommandsRequireLogin(t *testing.T) {
	e := newEnv(t)
	code, out := e.run("", "vendors", "list")

	assert.Equal(t, 1, code)
	assert.Contains(t, out, "not logged in")
	assert.Equal(t, 0, e.srv.count("GET /vendors"))
}

func TestLoginPersistsAcrossInvocations(t *testing.T) {
	e := newEnv(t)
	e.srv.mux.HandleFunc("/vendors", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"vendors": []map[string]interface{}{
				{"_id": "v1", "name": "Gulf Supplies", "email": "sales@gulf.om", "totalAmount": 100, "pendingAmount": 60},
			},
			"pagination": models.Pagination{Page: 1, Limit: 10, Total: 1, Pages: 1},
		})
	})

	code, out := e.run("", "login", "--company", "Acme", "--email", "owner@acme.om", "--password", "s3cret")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "✔ Signed in as owner@acme.om")

	code, out = e.run("", "vendors", "list")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Gulf Supplies")
	assert.Contains(t, out, "sales@gulf.om")
	assert.Contains(t, out, "Page 1 of 1 (1 total)")
}

func TestLogoutForgetsSession(t *testing.T) {
	e := newEnv(t)
	e.login()

	code, _ := e.run("", "logout")
	require.Equal(t, 0, code)

	code, out := e.run("", "dashboard")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "not logged in")
}

func TestDeleteDeclinedSendsNothing(t *testing.T) {
	e := newEnv(t)
	e.login()
	e.srv.mux.HandleFunc("/vendors/v1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Vendor deleted"})
	})

	code, out := e.run("n\n", "vendors", "delete", "v1")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Are you sure you want to delete this vendor? [y/N]")
	assert.Contains(t, out, "Cancelled.")
	assert.Equal(t, 0, e.srv.count("DELETE /vendors/v1"))

	code, out = e.run("", "--yes", "vendors", "delete", "v1")
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "✔ Vendor deleted successfully")
	assert.Equal(t, 1, e.srv.count("DELETE /vendors/v1"))
}

func TestInvoiceOverpaymentPrintsFieldError(t *testing.T) {
	e := newEnv(t)
	e.login()

	code, out := e.run("", "invoices", "add", "--vendor", "v1", "--number", "INV-1", "--bill", "100", "--paid", "150")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "✖ Paid amount cannot exceed bill amount")
	assert.Equal(t, 0, e.srv.count("POST /invoices"))
}

func TestServerErrorIsShownOnce(t *testing.T) {
	e := newEnv(t)
	e.login()
	e.srv.mux.HandleFunc("/vendors", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Vendor name already exists"})
	})

	code, out := e.run("", "vendors", "add", "--name", "Gulf Supplies")
	assert.Equal(t, 1, code)
	assert.Equal(t, 1, strings.Count(out, "Vendor name already exists"), out)
}

func TestUnauthorizedEndsSession(t *testing.T) {
	e := newEnv(t)
	e.login()
	e.srv.mux.HandleFunc("/expenses", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token expired"})
	})

	code, out := e.run("", "expenses", "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Your session has ended")
	assert.NotContains(t, out, "Token expired")

	code, out = e.run("", "expenses", "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "not logged in")
}

func TestSalesDayPrintsSummary(t *testing.T) {
	e := newEnv(t)
	e.login()
	e.srv.mux.HandleFunc("/sales", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("startDate"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"sales": []map[string]interface{}{
				{"_id": "s1", "customerName": "Walk-in Customer", "collectedAmount": 50, "creditAmount": 20, "totalAmount": 70, "status": "pending"},
			},
			"pagination": models.Pagination{Page: 1, Limit: 100, Total: 1, Pages: 1},
		})
	})
	e.srv.mux.HandleFunc("/expenses", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"expenses":   []map[string]interface{}{},
			"pagination": models.Pagination{Page: 1, Limit: 100},
		})
	})

	code, out := e.run("", "sales", "day", "--date", "2024-03-14")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Thursday, 14 March 2024")
	assert.Contains(t, out, "Walk-in Customer")
	assert.Contains(t, out, "NET PROFIT")
}

func TestUsersDeleteRefusesAdmin(t *testing.T) {
	e := newEnv(t)
	e.login()
	e.srv.mux.HandleFunc("/auth/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"users": []map[string]interface{}{
				{"_id": "u1", "username": "owner", "email": "owner@acme.om", "role": "admin", "isActive": true},
			},
		})
	})

	code, out := e.run("", "--yes", "users", "delete", "u1")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "✖ Admin users cannot be deleted")
	assert.Equal(t, 0, e.srv.count("DELETE /auth/users/u1"))
}
