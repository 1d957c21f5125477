package handlers

import (
	"github.com/gin-gonic/gin"

	"erpdesk/internal/domain/reports"
	"erpdesk/internal/infrastructure/http/v1/dto"
	"erpdesk/internal/metadata"
)

// ReportsHandler serves report filter forms and runs reports.
type ReportsHandler struct {
	*BaseHandler
	registry *metadata.Registry
	service  *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, registry *metadata.Registry, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, registry: registry, service: service}
}

// List handles GET /reports
func (h *ReportsHandler) List(c *gin.Context) {
	summaries := dto.FromReportDefs(h.registry.Reports())
	h.OK(c, dto.NewListResponse(summaries, len(summaries)))
}

// Get handles GET /reports/:name
func (h *ReportsHandler) Get(c *gin.Context) {
	def, defaults, err := h.service.Definition(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ReportDefinitionResponse{ReportDef: def, Defaults: defaults})
}

// Change handles POST /reports/:name/change
func (h *ReportsHandler) Change(c *gin.Context) {
	var req dto.ChangeFilterRequest
	if !h.BindJSON(c, &req) {
		return
	}
	state, err := h.service.Change(c.Request.Context(), c.Param("name"), req.Filters, req.Field, req.Value)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, state)
}

// Run handles POST /reports/:name/run
func (h *ReportsHandler) Run(c *gin.Context) {
	var req dto.RunReportRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.service.Run(c.Request.Context(), c.Param("name"), req.Filters)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}
