package v1

import (
	"github.com/gin-gonic/gin"
)

// ReportRouteHandler is implemented by report form handlers.
type ReportRouteHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Change(c *gin.Context)
	Run(c *gin.Context)
}

// RegisterReportRoutes wires the report form endpoints under group.
//
//	GET  ""             list of reports
//	GET  /:name         filters with defaults for the caller
//	POST /:name/change  apply one filter edit
//	POST /:name/run     run with validated filters
func RegisterReportRoutes(group *gin.RouterGroup, handler ReportRouteHandler) {
	group.GET("", handler.List)
	group.GET("/:name", handler.Get)
	group.POST("/:name/change", handler.Change)
	group.POST("/:name/run", handler.Run)
}
