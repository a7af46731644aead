// Package handlers is the REST surface of the server: one gin handler per
// endpoint, all scoped to the tenant named in the caller's token.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"trackswift/internal/ai"
	"trackswift/internal/auth"
	"trackswift/internal/database"
	"trackswift/internal/middleware"
	"trackswift/internal/models"
	"trackswift/internal/report"
)

// Options are the server settings the handlers need.
type Options struct {
	AllowRegistration bool
	DefaultCurrency   string
	CORSOrigins       []string
	Production        bool
}

// Handler holds the dependencies shared by every endpoint.
type Handler struct {
	db     *gorm.DB
	tokens *auth.Tokens
	pdf    report.Renderer
	agent  *ai.Agent
	opts   Options
	log    zerolog.Logger
	now    func() time.Time
}

// New wires a Handler. pdf and agent may be nil; their endpoints then
// answer 503.
func New(db *gorm.DB, tokens *auth.Tokens, pdf report.Renderer, agent *ai.Agent, opts Options, log zerolog.Logger) *Handler {
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = models.DefaultCurrency
	}
	return &Handler{db: db, tokens: tokens, pdf: pdf, agent: agent, opts: opts, log: log, now: time.Now}
}

// Router builds the gin engine with every route mounted.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(h.log))
	r.Use(middleware.SecureHeaders(h.opts.Production, h.log))
	r.Use(middleware.CORS(h.opts.CORSOrigins))

	r.GET("/health", h.Health)

	api := r.Group("/api")

	// --- PUBLIC ---
	api.POST("/auth/login", h.Login)
	// --- FEATURE FLAG: Registration ---
	// Only opens if we explicitly allow it in config
	if h.opts.AllowRegistration {
		api.POST("/auth/register", h.Register)
		h.log.Warn().Msg("registration route is OPEN, disable it with ALLOW_REGISTRATION=false")
	} else {
		h.log.Info().Msg("registration route is disabled")
	}

	// --- PROTECTED ROUTES ---
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(h.tokens, h.account))
	{
		protected.GET("/auth/verify", h.Verify)
		protected.GET("/tenant/info", h.TenantInfo)
		protected.GET("/dashboard", h.Dashboard)

		protected.GET("/vendors", h.ListVendors)
		protected.POST("/vendors", h.CreateVendor)
		protected.GET("/vendors/:id", h.GetVendor)
		protected.PUT("/vendors/:id", h.UpdateVendor)
		protected.DELETE("/vendors/:id", h.DeleteVendor)

		protected.GET("/invoices", h.ListInvoices)
		protected.POST("/invoices", h.CreateInvoice)
		protected.GET("/invoices/:id", h.GetInvoice)
		protected.PUT("/invoices/:id", h.UpdateInvoice)
		protected.DELETE("/invoices/:id", h.DeleteInvoice)
		protected.GET("/invoices/:id/pdf", h.InvoicePDF)

		protected.GET("/inventory", h.ListInventory)
		protected.POST("/inventory", h.CreateItem)
		protected.GET("/inventory/:id", h.GetItem)
		protected.PUT("/inventory/:id", h.UpdateItem)
		protected.DELETE("/inventory/:id", h.DeleteItem)

		protected.GET("/sales", h.ListSales)
		protected.POST("/sales", h.CreateSale)
		protected.GET("/sales/:id", h.GetSale)
		protected.PUT("/sales/:id", h.UpdateSale)
		protected.DELETE("/sales/:id", h.DeleteSale)

		protected.GET("/expenses", h.ListExpenses)
		protected.POST("/expenses", h.CreateExpense)
		protected.GET("/expenses/:id", h.GetExpense)
		protected.PUT("/expenses/:id", h.UpdateExpense)
		protected.DELETE("/expenses/:id", h.DeleteExpense)

		protected.GET("/reports/invoices/pdf", h.InvoicesReportPDF)
		protected.GET("/reports/sales/pdf", h.SalesReportPDF)
		protected.GET("/reports/sales/xlsx", h.SalesReportXLSX)
		protected.GET("/reports/valuation", h.StockValuation)

		// ADMIN ONLY
		admin := protected.Group("")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/auth/invite", h.Invite)
			admin.GET("/auth/users", h.ListUsers)
			admin.POST("/auth/users", h.CreateUser)
			admin.PUT("/auth/users/:id", h.UpdateUser)
			admin.DELETE("/auth/users/:id", h.DeleteUser)

			admin.POST("/assistant", h.Ask)
		}
	}

	return r
}

func (h *Handler) Health(c *gin.Context) {
	status := "online"
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// --- RESPONSE HELPERS ---

func respondError(c *gin.Context, status int, message string, details ...string) {
	body := gin.H{"message": message}
	if len(details) > 0 {
		body["errors"] = details
	}
	c.AbortWithStatusJSON(status, body)
}

// internalError logs err against the request and answers with message.
func (h *Handler) internalError(c *gin.Context, err error, message string) {
	_ = c.Error(err)
	h.log.Error().Err(err).Str("path", c.FullPath()).Str("tenant_id", c.GetString(middleware.KeyTenantID)).Msg(message)
	respondError(c, http.StatusInternalServerError, message)
}

// notFoundOr answers 404 for ErrNotFound and 500 otherwise.
func (h *Handler) notFoundOr(c *gin.Context, err error, entity string) {
	if errors.Is(err, database.ErrNotFound) {
		respondError(c, http.StatusNotFound, entity+" not found")
		return
	}
	h.internalError(c, err, "Failed to fetch "+strings.ToLower(entity))
}

// bind decodes the JSON body into dst and answers 400 with one message per
// failed field.
func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, fieldMessage(fe))
			}
			respondError(c, http.StatusBadRequest, "Validation failed", details...)
			return false
		}
		respondError(c, http.StatusBadRequest, "Invalid input")
		return false
	}
	return true
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Invalid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

func (h *Handler) audit(c *gin.Context, action, entity, entityID string) {
	userID, tenantID := middleware.Identity(c)
	if err := database.Audit(c.Request.Context(), h.db, tenantID, userID, action, entity, entityID); err != nil {
		h.log.Warn().Err(err).Str("entity", entity).Str("entity_id", entityID).Msg("audit write failed")
	}
}

// --- REQUEST PARSING ---

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t.UTC(), nil
}

func listFilter(c *gin.Context) (database.ListFilter, error) {
	f := database.ListFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Category: c.Query("category"),
		Vendor:   c.Query("vendor"),
		Status:   c.Query("status"),
		LowStock: c.Query("lowStock") == "true",
	}
	var err error
	if v := c.Query("page"); v != "" {
		if f.Page, err = strconv.Atoi(v); err != nil {
			return f, fmt.Errorf("invalid page %q", v)
		}
	}
	if v := c.Query("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			return f, fmt.Errorf("invalid limit %q", v)
		}
	}
	if v := c.Query("startDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return f, err
		}
		f.StartDate = &t
	}
	if v := c.Query("endDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return f, err
		}
		// A bare date covers the whole day.
		if len(v) == len(time.DateOnly) {
			t = t.Add(24*time.Hour - time.Millisecond)
		}
		f.EndDate = &t
	}
	return f, nil
}

// dateRange reads the required startDate/endDate pair of the report routes.
func dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	f, err := listFilter(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return time.Time{}, time.Time{}, false
	}
	if f.StartDate == nil || f.EndDate == nil {
		respondError(c, http.StatusBadRequest, "startDate and endDate are required")
		return time.Time{}, time.Time{}, false
	}
	if f.EndDate.Before(*f.StartDate) {
		respondError(c, http.StatusBadRequest, "endDate must not be before startDate")
		return time.Time{}, time.Time{}, false
	}
	return *f.StartDate, *f.EndDate, true
}

// account backs the auth middleware's per-request check of the caller.
func (h *Handler) account(ctx context.Context, userID, tenantID string) (middleware.Account, error) {
	var user models.User
	err := h.db.WithContext(ctx).Select("role", "is_active").
		Where("id = ? AND tenant_id = ?", userID, tenantID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.Account{}, middleware.ErrUnknownAccount
	}
	if err != nil {
		return middleware.Account{}, err
	}
	return middleware.Account{Role: user.Role, Active: user.IsActive}, nil
}

// tenant loads the caller's tenant.
func (h *Handler) tenant(c *gin.Context) (*models.Tenant, error) {
	_, tenantID := middleware.Identity(c)
	var t models.Tenant
	if err := h.db.WithContext(c.Request.Context()).First(&t, "id = ?", tenantID).Error; err != nil {
		return nil, err
	}
	if t.Currency == "" {
		t.Currency = h.opts.DefaultCurrency
	}
	return &t, nil
}

func (h *Handler) TenantInfo(c *gin.Context) {
	t, err := h.tenant(c)
	if err != nil {
		h.internalError(c, err, "Failed to fetch tenant")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenant": t})
}
