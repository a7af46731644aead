package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"trackswift/internal/database"
	"trackswift/internal/ledger"
	"trackswift/internal/middleware"
	"trackswift/internal/models"
)

// --- GET: /api/sales ---
func (h *Handler) ListSales(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	f, err := listFilter(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	sales, page, err := database.ListSales(c.Request.Context(), h.db, tenantID, f)
	if err != nil {
		h.internalError(c, err, "Failed to fetch sales")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": sales, "pagination": page})
}

func (h *Handler) loadSale(c *gin.Context) (*models.Sale, bool) {
	_, tenantID := middleware.Identity(c)
	var sale models.Sale
	err := database.FindOne(c.Request.Context(), h.db.Preload("Items"), tenantID, c.Param("id"), &sale)
	if err != nil {
		h.notFoundOr(c, err, "Sale")
		return nil, false
	}
	return &sale, true
}

// --- GET: /api/sales/:id ---
func (h *Handler) GetSale(c *gin.Context) {
	sale, ok := h.loadSale(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sale)
}

// applySaleInput copies the source fields and re-derives total, status,
// customer and the synthetic line item.
func (h *Handler) applySaleInput(c *gin.Context, sale *models.Sale, in models.SaleInput) bool {
	sale.Date = in.Date.UTC()
	if in.Date.IsZero() {
		sale.Date = h.now().UTC()
	}
	sale.CustomerName = in.CustomerName
	sale.CollectedAmount = in.CollectedAmount
	sale.CreditAmount = in.CreditAmount
	sale.Currency = in.Currency
	if sale.Currency == "" {
		sale.Currency = h.opts.DefaultCurrency
	}
	if err := ledger.ApplySale(sale); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", err.Error())
		return false
	}
	return true
}

// --- POST: /api/sales ---
func (h *Handler) CreateSale(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	var input models.SaleInput
	if !bind(c, &input) {
		return
	}

	sale := models.Sale{TenantID: tenantID}
	if !h.applySaleInput(c, &sale, input) {
		return
	}
	// GORM inserts the line item with the sale.
	if err := h.db.WithContext(c.Request.Context()).Create(&sale).Error; err != nil {
		h.internalError(c, err, "Failed to create sale")
		return
	}
	h.audit(c, "create", "sale", sale.ID)
	c.JSON(http.StatusCreated, sale)
}

// --- PUT: /api/sales/:id ---
func (h *Handler) UpdateSale(c *gin.Context) {
	sale, ok := h.loadSale(c)
	if !ok {
		return
	}
	var input models.SaleInput
	if !bind(c, &input) {
		return
	}
	if !h.applySaleInput(c, sale, input) {
		return
	}

	// Start a Database Transaction: the old line items go, the new one lands.
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error; err != nil {
			return err
		}
		if err := tx.Omit("Items").Save(sale).Error; err != nil {
			return err
		}
		for i := range sale.Items {
			sale.Items[i].SaleID = sale.ID
		}
		return tx.Create(&sale.Items).Error
	})
	if err != nil {
		h.internalError(c, err, "Failed to update sale")
		return
	}
	h.audit(c, "update", "sale", sale.ID)
	c.JSON(http.StatusOK, sale)
}

// --- DELETE: /api/sales/:id ---
func (h *Handler) DeleteSale(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	ctx := c.Request.Context()

	var sale models.Sale
	if err := database.FindOne(ctx, h.db, tenantID, c.Param("id"), &sale); err != nil {
		h.notFoundOr(c, err, "Sale")
		return
	}
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&sale).Error
	})
	if err != nil {
		h.internalError(c, err, "Failed to delete sale")
		return
	}
	h.audit(c, "delete", "sale", sale.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Sale deleted successfully"})
}
