package handlers

import (
	"github.com/gin-gonic/gin"

	"erpdesk/internal/domain/itemlabel"
	"erpdesk/internal/infrastructure/http/v1/dto"
)

// LabelsHandler runs the label price sync for stored labels.
type LabelsHandler struct {
	*BaseHandler
	service  *itemlabel.Service
	defaults itemlabel.SyncOptions
}

// NewLabelsHandler creates a new labels handler.
func NewLabelsHandler(base *BaseHandler, service *itemlabel.Service, defaults itemlabel.SyncOptions) *LabelsHandler {
	return &LabelsHandler{BaseHandler: base, service: service, defaults: defaults}
}

// Sync handles POST /labels/:name/sync
func (h *LabelsHandler) Sync(c *gin.Context) {
	var req dto.SyncLabelRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	opts := h.defaults
	opts.DryRun = req.DryRun
	if req.CreateMissing != nil {
		opts.CreateMissing = *req.CreateMissing
	}

	report, err := h.service.SyncLabel(c.Request.Context(), c.Param("name"), opts)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
