package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"trackswift/internal/database"
	"trackswift/internal/middleware"
	"trackswift/internal/models"
)

// --- GET: /api/vendors ---
func (h *Handler) ListVendors(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	f, err := listFilter(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	vendors, page, err := database.ListVendors(c.Request.Context(), h.db, tenantID, f)
	if err != nil {
		h.internalError(c, err, "Failed to fetch vendors")
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendors": vendors, "pagination": page})
}

// --- GET: /api/vendors/:id ---
func (h *Handler) GetVendor(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	ctx := c.Request.Context()

	var vendor models.Vendor
	if err := database.FindOne(ctx, h.db, tenantID, c.Param("id"), &vendor); err != nil {
		h.notFoundOr(c, err, "Vendor")
		return
	}
	vendors := []models.Vendor{vendor}
	if err := database.DecorateVendors(ctx, h.db, tenantID, vendors); err != nil {
		h.internalError(c, err, "Failed to fetch vendor")
		return
	}
	c.JSON(http.StatusOK, vendors[0])
}

func applyVendorInput(v *models.Vendor, in models.VendorInput) {
	v.Name = strings.TrimSpace(in.Name)
	v.Email = strings.TrimSpace(in.Email)
	v.Phone = strings.TrimSpace(in.Phone)
	v.Address = strings.TrimSpace(in.Address)
	v.TaxNumber = strings.TrimSpace(in.TaxNumber)
	v.PaymentTerms = strings.TrimSpace(in.PaymentTerms)
}

// --- POST: /api/vendors ---
func (h *Handler) CreateVendor(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	var input models.VendorInput
	if !bind(c, &input) {
		return
	}

	vendor := models.Vendor{TenantID: tenantID}
	applyVendorInput(&vendor, input)
	if err := h.db.WithContext(c.Request.Context()).Create(&vendor).Error; err != nil {
		h.internalError(c, err, "Failed to create vendor")
		return
	}
	h.audit(c, "create", "vendor", vendor.ID)
	c.JSON(http.StatusCreated, vendor)
}

// --- PUT: /api/vendors/:id ---
func (h *Handler) UpdateVendor(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	ctx := c.Request.Context()

	var vendor models.Vendor
	if err := database.FindOne(ctx, h.db, tenantID, c.Param("id"), &vendor); err != nil {
		h.notFoundOr(c, err, "Vendor")
		return
	}
	var input models.VendorInput
	if !bind(c, &input) {
		return
	}

	applyVendorInput(&vendor, input)
	if err := h.db.WithContext(ctx).Save(&vendor).Error; err != nil {
		h.internalError(c, err, "Failed to update vendor")
		return
	}
	h.audit(c, "update", "vendor", vendor.ID)
	c.JSON(http.StatusOK, vendor)
}

// --- DELETE: /api/vendors/:id ---
// A vendor that still has invoices cannot be removed.
func (h *Handler) DeleteVendor(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	ctx := c.Request.Context()

	var vendor models.Vendor
	if err := database.FindOne(ctx, h.db, tenantID, c.Param("id"), &vendor); err != nil {
		h.notFoundOr(c, err, "Vendor")
		return
	}
	n, err := database.CountVendorInvoices(ctx, h.db, tenantID, vendor.ID)
	if err != nil {
		h.internalError(c, err, "Failed to delete vendor")
		return
	}
	if n > 0 {
		respondError(c, http.StatusConflict, "Cannot delete vendor with existing invoices")
		return
	}

	if err := h.db.WithContext(ctx).Delete(&vendor).Error; err != nil {
		h.internalError(c, err, "Failed to delete vendor")
		return
	}
	h.audit(c, "delete", "vendor", vendor.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Vendor deleted successfully"})
}
