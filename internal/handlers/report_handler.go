package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"trackswift/internal/database"
	"trackswift/internal/middleware"
	"trackswift/internal/models"
	"trackswift/internal/report"
)

const pdfContentType = "application/pdf"

// --- GET: /api/dashboard ---
func (h *Handler) Dashboard(c *gin.Context) {
	tenant, err := h.tenant(c)
	if err != nil {
		h.internalError(c, err, "Failed to fetch dashboard")
		return
	}
	data, err := database.Dashboard(c.Request.Context(), h.db, tenant.ID, tenant.Currency)
	if err != nil {
		h.internalError(c, err, "Failed to fetch dashboard")
		return
	}
	c.JSON(http.StatusOK, models.DashboardResponse{Success: true, Data: *data})
}

// --- GET: /api/reports/valuation ---
// StockValuation calculates the total monetary value of all physical
// inventory, grouped by category.
func (h *Handler) StockValuation(c *gin.Context) {
	tenant, err := h.tenant(c)
	if err != nil {
		h.internalError(c, err, "Failed to fetch inventory")
		return
	}
	resp, err := database.StockValuation(c.Request.Context(), h.db, tenant.ID, tenant.Currency)
	if err != nil {
		h.internalError(c, err, "Failed to fetch inventory")
		return
	}
	c.JSON(http.StatusOK, resp)
}

type htmlDocument interface {
	HTML() (string, error)
}

// renderPDF converts doc through Gotenberg and streams it as an attachment.
func (h *Handler) renderPDF(c *gin.Context, doc htmlDocument, filename string) {
	if h.pdf == nil {
		respondError(c, http.StatusServiceUnavailable, "PDF rendering is not configured")
		return
	}
	html, err := doc.HTML()
	if err != nil {
		h.internalError(c, err, "Failed to generate PDF")
		return
	}
	pdf, err := h.pdf.RenderHTML(c.Request.Context(), html)
	if err != nil {
		h.log.Error().Err(err).Str("file", filename).Msg("gotenberg render failed")
		respondError(c, http.StatusBadGateway, "Failed to generate PDF")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, pdfContentType, pdf)
}

// --- GET: /api/invoices/:id/pdf ---
func (h *Handler) InvoicePDF(c *gin.Context) {
	inv, ok := h.loadInvoice(c)
	if !ok {
		return
	}
	tenant, err := h.tenant(c)
	if err != nil {
		h.internalError(c, err, "Failed to generate PDF")
		return
	}
	doc := report.NewInvoiceDocument(tenant.CompanyName, inv.Currency, *inv)
	h.renderPDF(c, doc, inv.Filename())
}

// --- GET: /api/reports/invoices/pdf ---
func (h *Handler) InvoicesReportPDF(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}
	tenant, err := h.tenant(c)
	if err != nil {
		h.internalError(c, err, "Failed to generate PDF")
		return
	}
	invoices, err := database.InvoicesBetween(c.Request.Context(), h.db, tenant.ID, start, end)
	if err != nil {
		h.internalError(c, err, "Failed to fetch invoices")
		return
	}
	if len(invoices) == 0 {
		respondError(c, http.StatusNotFound, "No invoices found for the selected date range")
		return
	}
	doc := report.NewInvoicesDocument(tenant.CompanyName, tenant.Currency, start, end, invoices)
	h.renderPDF(c, doc, reportFilename("Invoices", start, end, "pdf"))
}

// --- GET: /api/reports/sales/pdf ---
func (h *Handler) SalesReportPDF(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}
	tenant, err := h.tenant(c)
	if err != nil {
		h.internalError(c, err, "Failed to generate PDF")
		return
	}
	sales, err := database.SalesBetween(c.Request.Context(), h.db, tenant.ID, start, end)
	if err != nil {
		h.internalError(c, err, "Failed to fetch sales")
		return
	}
	if len(sales) == 0 {
		respondError(c, http.StatusNotFound, "No sales found for the selected date range")
		return
	}
	doc := report.NewSalesDocument(tenant.CompanyName, tenant.Currency, start, end, sales)
	h.renderPDF(c, doc, reportFilename("Sales", start, end, "pdf"))
}

// --- GET: /api/reports/sales/xlsx ---
func (h *Handler) SalesReportXLSX(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}
	_, tenantID := middleware.Identity(c)
	sales, err := database.SalesBetween(c.Request.Context(), h.db, tenantID, start, end)
	if err != nil {
		h.internalError(c, err, "Failed to fetch sales")
		return
	}
	buf, err := report.SalesWorkbook(sales)
	if err != nil {
		h.internalError(c, err, "Failed to generate workbook")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, reportFilename("Sales", start, end, "xlsx")))
	c.Data(http.StatusOK, report.XLSXContentType, buf.Bytes())
}

func reportFilename(kind string, start, end time.Time, ext string) string {
	return fmt.Sprintf("TrackSwift-%s-%s-to-%s.%s", kind, start.Format(time.DateOnly), end.Format(time.DateOnly), ext)
}
