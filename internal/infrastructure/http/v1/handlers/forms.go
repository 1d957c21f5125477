package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"erpdesk/internal/core/apperror"
	"erpdesk/internal/domain/forms"
	"erpdesk/internal/infrastructure/http/v1/dto"
)

// FormsHandler fires client form events on documents posted by the desk.
type FormsHandler struct {
	*BaseHandler
	registry *forms.Registry
	schemas  forms.Schemas
}

// NewFormsHandler creates a new forms handler.
func NewFormsHandler(base *BaseHandler, registry *forms.Registry, schemas forms.Schemas) *FormsHandler {
	return &FormsHandler{BaseHandler: base, registry: registry, schemas: schemas}
}

// Fire handles POST /forms/:doctype/events/:event
//
// The body doctype must match the path. Events nobody registered for
// succeed without changes.
func (h *FormsHandler) Fire(c *gin.Context) {
	var req dto.FormEventRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := forms.DecodeDoc(h.schemas, req.Doc)
	if err != nil {
		h.Error(c, err)
		return
	}
	if doctype := c.Param("doctype"); doc.Doctype != doctype {
		h.Error(c, apperror.NewValidation(fmt.Sprintf("document is a %s, not a %s", doc.Doctype, doctype)))
		return
	}

	ctx := c.Request.Context()
	handle := h.registry.DispatchAsync(ctx, forms.Event(c.Param("event")), forms.NewForm(doc), req.Row)
	form, err := handle.Wait(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromForm(form))
}
