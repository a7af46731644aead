package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"trackswift/internal/database"
	"trackswift/internal/ledger"
	"trackswift/internal/middleware"
	"trackswift/internal/models"
)

// --- GET: /api/expenses ---
func (h *Handler) ListExpenses(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	f, err := listFilter(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	expenses, page, err := database.ListExpenses(c.Request.Context(), h.db, tenantID, f)
	if err != nil {
		h.internalError(c, err, "Failed to fetch expenses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses, "pagination": page})
}

// --- GET: /api/expenses/:id ---
func (h *Handler) GetExpense(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	var expense models.Expense
	if err := database.FindOne(c.Request.Context(), h.db, tenantID, c.Param("id"), &expense); err != nil {
		h.notFoundOr(c, err, "Expense")
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *Handler) applyExpenseInput(c *gin.Context, e *models.Expense, in models.ExpenseInput) bool {
	if err := ledger.ValidateExpense(in.Amount); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", err.Error())
		return false
	}
	e.Date = in.Date.UTC()
	if in.Date.IsZero() {
		e.Date = h.now().UTC()
	}
	e.Description = strings.TrimSpace(in.Description)
	e.Category = strings.TrimSpace(in.Category)
	e.Amount = ledger.Round(in.Amount)
	e.PaymentMethod = in.PaymentMethod
	e.Currency = in.Currency
	if e.Currency == "" {
		e.Currency = h.opts.DefaultCurrency
	}
	return true
}

// --- POST: /api/expenses ---
func (h *Handler) CreateExpense(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	var input models.ExpenseInput
	if !bind(c, &input) {
		return
	}

	expense := models.Expense{TenantID: tenantID}
	if !h.applyExpenseInput(c, &expense, input) {
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&expense).Error; err != nil {
		h.internalError(c, err, "Failed to create expense")
		return
	}
	h.audit(c, "create", "expense", expense.ID)
	c.JSON(http.StatusCreated, expense)
}

// --- PUT: /api/expenses/:id ---
func (h *Handler) UpdateExpense(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	ctx := c.Request.Context()

	var expense models.Expense
	if err := database.FindOne(ctx, h.db, tenantID, c.Param("id"), &expense); err != nil {
		h.notFoundOr(c, err, "Expense")
		return
	}
	var input models.ExpenseInput
	if !bind(c, &input) {
		return
	}
	if !h.applyExpenseInput(c, &expense, input) {
		return
	}
	if err := h.db.WithContext(ctx).Save(&expense).Error; err != nil {
		h.internalError(c, err, "Failed to update expense")
		return
	}
	h.audit(c, "update", "expense", expense.ID)
	c.JSON(http.StatusOK, expense)
}

// --- DELETE: /api/expenses/:id ---
func (h *Handler) DeleteExpense(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	ctx := c.Request.Context()

	var expense models.Expense
	if err := database.FindOne(ctx, h.db, tenantID, c.Param("id"), &expense); err != nil {
		h.notFoundOr(c, err, "Expense")
		return
	}
	if err := h.db.WithContext(ctx).Delete(&expense).Error; err != nil {
		h.internalError(c, err, "Failed to delete expense")
		return
	}
	h.audit(c, "delete", "expense", expense.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}
