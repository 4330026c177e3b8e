package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wawashop/storefront/internal/domain/order"
	"github.com/wawashop/storefront/internal/pkg/pdf"
)

// ReceiptHandler handles receipt slip endpoints
type ReceiptHandler struct {
	orderService *order.Service
	pdfService   *pdf.Service
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(orderService *order.Service, pdfService *pdf.Service) *ReceiptHandler {
	return &ReceiptHandler{
		orderService: orderService,
		pdfService:   pdfService,
	}
}

// GetReceipt handles GET /orders/:number/receipt. format=html returns the
// slip as HTML for preview instead of a PDF download.
func (h *ReceiptHandler) GetReceipt(c *gin.Context) {
	user, ok := currentCustomer(c)
	if !ok {
		return
	}

	o, err := h.orderService.Get(c.Request.Context(), user.CustomerCode, c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "html" {
		page, err := h.pdfService.RenderHTML(o)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to render receipt",
			})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
		return
	}

	pdfBuffer, err := h.pdfService.GenerateReceipt(o)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate receipt",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", o.OrderNumber))
	c.Header("Content-Length", strconv.Itoa(pdfBuffer.Len()))
	c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
}
