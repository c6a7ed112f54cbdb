package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/rosterbridge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/rosterbridge-backend/internal/http/middleware"
	"github.com/yungbote/rosterbridge-backend/internal/observability"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	Metrics         *observability.Metrics
	Tracing         bool
	ServiceName     string
	AllowOrigins    []string
	ActorMiddleware *httpMW.ActorMiddleware

	AgentHandler  *httpH.AgentHandler
	RosterHandler *httpH.RosterHandler
	UploadHandler *httpH.UploadHandler
	ExportHandler *httpH.ExportHandler
	ReportHandler *httpH.ReportHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		name := cfg.ServiceName
		if name == "" {
			name = "rosterbridge"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS(cfg.AllowOrigins))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readycheck", cfg.HealthHandler.ReadyCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	if cfg.ActorMiddleware != nil {
		api.Use(cfg.ActorMiddleware.Attach())
	}
	{
		// Agents
		if cfg.AgentHandler != nil {
			api.GET("/agents", cfg.AgentHandler.List)
			api.POST("/agents", cfg.AgentHandler.Create)
			api.DELETE("/agents/:id", cfg.AgentHandler.Delete)
			api.GET("/agents/:id/roster", cfg.AgentHandler.Roster)
		}

		// Roster
		if cfg.RosterHandler != nil {
			api.PATCH("/roster/:id", cfg.RosterHandler.Update)
			api.POST("/roster/:id/deactivate", cfg.RosterHandler.Deactivate)
			api.GET("/status-options", cfg.RosterHandler.StatusOptions)
		}

		// Uploads
		if cfg.UploadHandler != nil {
			api.POST("/uploads", cfg.UploadHandler.Upload)
			api.GET("/uploads/:id/diff", cfg.UploadHandler.Diff)
			api.POST("/uploads/:id/apply", cfg.UploadHandler.Apply)
			api.POST("/uploads/:id/apply-selected", cfg.UploadHandler.ApplySelected)
			api.POST("/uploads/:id/reject", cfg.UploadHandler.Reject)
		}

		if cfg.ExportHandler != nil {
			api.GET("/exports", cfg.ExportHandler.Export)
			api.GET("/exports/template", cfg.ExportHandler.Template)
		}

		// Reports
		if cfg.ReportHandler != nil {
			api.GET("/reports/overview", cfg.ReportHandler.Overview)
			api.GET("/reports/agents/:id", cfg.ReportHandler.ByAgent)
			api.GET("/reports/status/:key", cfg.ReportHandler.StatusBreakdown)
			api.GET("/audit", cfg.ReportHandler.Audit)
		}
	}

	return r
}
