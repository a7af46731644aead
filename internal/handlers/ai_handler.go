package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trackswift/internal/middleware"
	"trackswift/internal/models"
)

// --- POST: /api/assistant ---
func (h *Handler) Ask(c *gin.Context) {
	var req models.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Message is required")
		return
	}

	// 1. The assistant only runs with an API key configured
	if !h.agent.Enabled() {
		respondError(c, http.StatusServiceUnavailable, "Assistant is not configured")
		return
	}

	tenant, err := h.tenant(c)
	if err != nil {
		h.internalError(c, err, "Failed to fetch tenant")
		return
	}

	// 2. Run the agent over this tenant's data
	userID, _ := middleware.Identity(c)
	reply, err := h.agent.Ask(c.Request.Context(), tenant.ID, userID, tenant.Currency, req.Message)
	if err != nil {
		h.log.Error().Err(err).Str("tenant_id", tenant.ID).Msg("assistant failed")
		respondError(c, http.StatusBadGateway, "Assistant failed to answer")
		return
	}

	// 3. Return the Answer
	c.JSON(http.StatusOK, models.AskResponse{Reply: reply})
}
