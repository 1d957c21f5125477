// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"erpdesk/internal/domain/audit"
	"erpdesk/internal/domain/forms"
	"erpdesk/internal/domain/itemlabel"
	"erpdesk/internal/domain/reports"
	"erpdesk/internal/infrastructure/http/v1/handlers"
	"erpdesk/internal/infrastructure/http/v1/middleware"
	"erpdesk/internal/metadata"
	"erpdesk/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Logger   *logger.Logger
	Sessions middleware.SessionValidator
	Version  string

	// HealthChecks are pinged by /health/ready.
	HealthChecks map[string]handlers.Pinger

	Metadata *metadata.Registry
	Reports  *reports.Service
	Forms    *forms.Registry

	Labels       *itemlabel.Service
	SyncDefaults itemlabel.SyncOptions

	// AuditReader serves the price journal. Nil disables the endpoint.
	AuditReader audit.Reader
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// order matters: errors are rendered after recovery and logging saw them
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Version, cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.Sessions))
	{
		RegisterReportRoutes(v1.Group("/reports"), handlers.NewReportsHandler(base, cfg.Metadata, cfg.Reports))

		meta := handlers.NewMetadataHandler(base, cfg.Metadata)
		v1.GET("/meta/doctypes", meta.ListDocTypes)
		v1.GET("/meta/doctypes/:name", meta.GetDocType)

		formsHandler := handlers.NewFormsHandler(base, cfg.Forms, cfg.Metadata)
		v1.POST("/forms/:doctype/events/:event", formsHandler.Fire)

		if cfg.Labels != nil {
			labels := handlers.NewLabelsHandler(base, cfg.Labels, cfg.SyncDefaults)
			v1.POST("/labels/:name/sync", labels.Sync)
		}

		if cfg.AuditReader != nil {
			auditHandler := handlers.NewAuditHandler(base, cfg.AuditReader)
			v1.GET("/audit/prices", auditHandler.ListPrices)
		}
	}

	return router
}
