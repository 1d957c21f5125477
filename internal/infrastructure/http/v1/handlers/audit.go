package handlers

import (
	"github.com/gin-gonic/gin"

	"erpdesk/internal/domain/audit"
	"erpdesk/internal/infrastructure/http/v1/dto"
)

// AuditHandler exposes the price journal.
type AuditHandler struct {
	*BaseHandler
	reader audit.Reader
}

func NewAuditHandler(base *BaseHandler, reader audit.Reader) *AuditHandler {
	return &AuditHandler{BaseHandler: base, reader: reader}
}

// ListPrices handles GET /audit/prices
func (h *AuditHandler) ListPrices(c *gin.Context) {
	var q dto.AuditQuery
	if !h.BindQuery(c, &q) {
		return
	}
	entries, err := h.reader.List(c.Request.Context(), q.Filter())
	if err != nil {
		h.Error(c, err)
		return
	}
	items := dto.FromAuditEntries(entries)
	h.OK(c, dto.NewListResponse(items, len(items)))
}
