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

// --- GET: /api/inventory ---
// Filters: search (name or SKU), category, lowStock=true.
func (h *Handler) ListInventory(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	f, err := listFilter(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	items, page, err := database.ListInventory(c.Request.Context(), h.db, tenantID, f)
	if err != nil {
		h.internalError(c, err, "Failed to fetch inventory")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "pagination": page})
}

// --- GET: /api/inventory/:id ---
func (h *Handler) GetItem(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	var item models.InventoryItem
	if err := database.FindOne(c.Request.Context(), h.db, tenantID, c.Param("id"), &item); err != nil {
		h.notFoundOr(c, err, "Item")
		return
	}
	ledger.DecorateItem(&item)
	c.JSON(http.StatusOK, item)
}

func (h *Handler) applyItemInput(c *gin.Context, item *models.InventoryItem, in models.InventoryInput) bool {
	_, tenantID := middleware.Identity(c)

	sku := strings.TrimSpace(in.SKU)
	taken, err := database.SKUTaken(c.Request.Context(), h.db, tenantID, sku, item.ID)
	if err != nil {
		h.internalError(c, err, "Failed to save item")
		return false
	}
	if taken {
		respondError(c, http.StatusConflict, "SKU already exists")
		return false
	}

	item.Name = strings.TrimSpace(in.Name)
	item.SKU = sku
	item.Description = strings.TrimSpace(in.Description)
	item.Category = strings.TrimSpace(in.Category)
	item.BoughtPrice = ledger.Round(in.BoughtPrice)
	item.SellingPrice = ledger.Round(in.SellingPrice)
	item.CurrentStock = in.CurrentStock
	item.MinimumStock = in.MinimumStock
	item.Currency = in.Currency
	if item.Currency == "" {
		item.Currency = h.opts.DefaultCurrency
	}

	if err := ledger.ValidateItem(*item); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", err.Error())
		return false
	}
	ledger.DecorateItem(item)
	return true
}

// --- POST: /api/inventory ---
func (h *Handler) CreateItem(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	var input models.InventoryInput
	if !bind(c, &input) {
		return
	}

	item := models.InventoryItem{TenantID: tenantID}
	if !h.applyItemInput(c, &item, input) {
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&item).Error; err != nil {
		h.internalError(c, err, "Failed to create item")
		return
	}
	h.audit(c, "create", "inventory", item.ID)
	c.JSON(http.StatusCreated, item)
}

// --- PUT: /api/inventory/:id ---
func (h *Handler) UpdateItem(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	ctx := c.Request.Context()

	var item models.InventoryItem
	if err := database.FindOne(ctx, h.db, tenantID, c.Param("id"), &item); err != nil {
		h.notFoundOr(c, err, "Item")
		return
	}
	var input models.InventoryInput
	if !bind(c, &input) {
		return
	}
	if !h.applyItemInput(c, &item, input) {
		return
	}
	if err := h.db.WithContext(ctx).Save(&item).Error; err != nil {
		h.internalError(c, err, "Failed to update item")
		return
	}
	h.audit(c, "update", "inventory", item.ID)
	c.JSON(http.StatusOK, item)
}

// --- DELETE: /api/inventory/:id ---
func (h *Handler) DeleteItem(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	ctx := c.Request.Context()

	var item models.InventoryItem
	if err := database.FindOne(ctx, h.db, tenantID, c.Param("id"), &item); err != nil {
		h.notFoundOr(c, err, "Item")
		return
	}
	if err := h.db.WithContext(ctx).Delete(&item).Error; err != nil {
		h.internalError(c, err, "Failed to delete item")
		return
	}
	h.audit(c, "delete", "inventory", item.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}
