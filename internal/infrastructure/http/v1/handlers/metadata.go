package handlers

import (
	"github.com/gin-gonic/gin"

	"erpdesk/internal/core/apperror"
	"erpdesk/internal/infrastructure/http/v1/dto"
	"erpdesk/internal/metadata"
)

// MetadataHandler serves registered doctype schemas.
type MetadataHandler struct {
	*BaseHandler
	registry *metadata.Registry
}

func NewMetadataHandler(base *BaseHandler, registry *metadata.Registry) *MetadataHandler {
	return &MetadataHandler{BaseHandler: base, registry: registry}
}

// ListDocTypes returns every registered doctype.
// GET /api/v1/meta/doctypes
func (h *MetadataHandler) ListDocTypes(c *gin.Context) {
	defs := h.registry.DocTypes()
	h.OK(c, dto.NewListResponse(defs, len(defs)))
}

// GetDocType returns one doctype schema.
// GET /api/v1/meta/doctypes/:name
func (h *MetadataHandler) GetDocType(c *gin.Context) {
	name := c.Param("name")
	def, ok := h.registry.DocType(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("doctype", name))
		return
	}
	h.OK(c, def)
}
