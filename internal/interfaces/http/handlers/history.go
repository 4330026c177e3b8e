package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wawashop/storefront/internal/domain/history"
)

// HistoryHandler serves the order and document history the backend keeps
type HistoryHandler struct {
	historyService *history.Service
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(historyService *history.Service) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// GetOrderHistory handles GET /history/orders?status=
func (h *HistoryHandler) GetOrderHistory(c *gin.Context) {
	h.list(c, history.KindOrder, c.Query("status"), "Order history retrieved successfully")
}

// GetOrderDetail handles GET /history/orders/:doc_no
func (h *HistoryHandler) GetOrderDetail(c *gin.Context) {
	h.get(c, history.KindOrder, "Order retrieved successfully")
}

// GetDocuments handles GET /history/documents?trans_flag=
func (h *HistoryHandler) GetDocuments(c *gin.Context) {
	h.list(c, history.KindDocument, c.Query("trans_flag"), "Documents retrieved successfully")
}

// GetDocumentDetail handles GET /history/documents/:doc_no
func (h *HistoryHandler) GetDocumentDetail(c *gin.Context) {
	h.get(c, history.KindDocument, "Document retrieved successfully")
}

func (h *HistoryHandler) list(c *gin.Context, kind history.Kind, filter, message string) {
	user, ok := currentCustomer(c)
	if !ok {
		return
	}

	data, err := h.historyService.List(c.Request.Context(), kind, history.Query{
		CustomerCode: user.CustomerCode,
		Filter:       filter,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    data,
	})
}

func (h *HistoryHandler) get(c *gin.Context, kind history.Kind, message string) {
	user, ok := currentCustomer(c)
	if !ok {
		return
	}

	data, err := h.historyService.Get(c.Request.Context(), kind, user.CustomerCode, c.Param("doc_no"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    data,
	})
}
