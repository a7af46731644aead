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

// --- GET: /api/invoices ---
func (h *Handler) ListInvoices(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	f, err := listFilter(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	invoices, page, err := database.ListInvoices(c.Request.Context(), h.db, tenantID, f)
	if err != nil {
		h.internalError(c, err, "Failed to fetch invoices")
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices, "pagination": page})
}

func (h *Handler) loadInvoice(c *gin.Context) (*models.Invoice, bool) {
	_, tenantID := middleware.Identity(c)
	ctx := c.Request.Context()

	var inv models.Invoice
	if err := database.FindOne(ctx, h.db, tenantID, c.Param("id"), &inv); err != nil {
		h.notFoundOr(c, err, "Invoice")
		return nil, false
	}
	one := []models.Invoice{inv}
	if err := database.NameInvoiceVendors(ctx, h.db, tenantID, one); err != nil {
		h.internalError(c, err, "Failed to fetch invoice")
		return nil, false
	}
	return &one[0], true
}

// --- GET: /api/invoices/:id ---
func (h *Handler) GetInvoice(c *gin.Context) {
	inv, ok := h.loadInvoice(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, inv)
}

// applyInvoiceInput copies the source fields and re-derives balance and
// status. Whatever the client sent for the derived fields is ignored.
func (h *Handler) applyInvoiceInput(c *gin.Context, inv *models.Invoice, in models.InvoiceInput) bool {
	_, tenantID := middleware.Identity(c)
	ctx := c.Request.Context()

	var vendor models.Vendor
	if err := database.FindOne(ctx, h.db, tenantID, in.Vendor, &vendor); err != nil {
		respondError(c, http.StatusBadRequest, "Vendor not found")
		return false
	}

	number := strings.TrimSpace(in.InvoiceNumber)
	taken, err := database.InvoiceNumberTaken(ctx, h.db, tenantID, number, inv.ID)
	if err != nil {
		h.internalError(c, err, "Failed to save invoice")
		return false
	}
	if taken {
		respondError(c, http.StatusConflict, "Invoice number already exists")
		return false
	}

	inv.VendorID = vendor.ID
	inv.VendorName = vendor.Name
	inv.InvoiceNumber = number
	inv.Date = in.Date.UTC()
	if in.Date.IsZero() {
		inv.Date = h.now().UTC()
	}
	inv.BillAmount = in.BillAmount
	inv.PaidAmount = in.PaidAmount
	inv.Description = strings.TrimSpace(in.Description)
	inv.Currency = in.Currency
	if inv.Currency == "" {
		inv.Currency = h.opts.DefaultCurrency
	}

	if err := ledger.ApplyInvoice(inv); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", err.Error())
		return false
	}
	return true
}

// --- POST: /api/invoices ---
func (h *Handler) CreateInvoice(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	var input models.InvoiceInput
	if !bind(c, &input) {
		return
	}

	inv := models.Invoice{TenantID: tenantID}
	if !h.applyInvoiceInput(c, &inv, input) {
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&inv).Error; err != nil {
		h.internalError(c, err, "Failed to create invoice")
		return
	}
	h.audit(c, "create", "invoice", inv.ID)
	c.JSON(http.StatusCreated, inv)
}

// --- PUT: /api/invoices/:id ---
func (h *Handler) UpdateInvoice(c *gin.Context) {
	inv, ok := h.loadInvoice(c)
	if !ok {
		return
	}
	var input models.InvoiceInput
	if !bind(c, &input) {
		return
	}
	if !h.applyInvoiceInput(c, inv, input) {
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Save(inv).Error; err != nil {
		h.internalError(c, err, "Failed to update invoice")
		return
	}
	h.audit(c, "update", "invoice", inv.ID)
	c.JSON(http.StatusOK, inv)
}

// --- DELETE: /api/invoices/:id ---
func (h *Handler) DeleteInvoice(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	ctx := c.Request.Context()

	var inv models.Invoice
	if err := database.FindOne(ctx, h.db, tenantID, c.Param("id"), &inv); err != nil {
		h.notFoundOr(c, err, "Invoice")
		return
	}
	if err := h.db.WithContext(ctx).Delete(&inv).Error; err != nil {
		h.internalError(c, err, "Failed to delete invoice")
		return
	}
	h.audit(c, "delete", "invoice", inv.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted successfully"})
}
