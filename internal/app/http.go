package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/rosterbridge-backend/internal/http"
	httpH "github.com/yungbote/rosterbridge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/rosterbridge-backend/internal/http/middleware"
	"github.com/yungbote/rosterbridge-backend/internal/observability"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Agent  *httpH.AgentHandler
	Roster *httpH.RosterHandler
	Upload *httpH.UploadHandler
	Export *httpH.ExportHandler
	Report *httpH.ReportHandler
}

type Middleware struct {
	Actor *httpMW.ActorMiddleware
}

func wireHandlers(db *gorm.DB, log *logger.Logger, cfg Config, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(db),
		Agent:  httpH.NewAgentHandler(s.Agents, s.Roster),
		Roster: httpH.NewRosterHandler(s.Roster, s.Statuses),
		Upload: httpH.NewUploadHandler(log, s.Uploads, s.Diffs, s.Apply, cfg.UploadMaxBytes, cfg.UploadAutoApply),
		Export: httpH.NewExportHandler(s.Exports),
		Report: httpH.NewReportHandler(s.Reports, s.Audit),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	mw := Middleware{Actor: httpMW.NewActorMiddleware(log, cfg.JWTSecretKey)}
	if !mw.Actor.AuthEnabled() {
		log.Warn("JWT_SECRET_KEY not set; trusting X-Actor header for audit identity")
	}
	return mw
}

func wireRouter(log *logger.Logger, cfg Config, h Handlers, mw Middleware, metrics *observability.Metrics) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		Tracing:         observability.TracingEnabled(),
		ServiceName:     "rosterbridge",
		AllowOrigins:    cfg.AllowOrigins,
		ActorMiddleware: mw.Actor,
		AgentHandler:    h.Agent,
		RosterHandler:   h.Roster,
		UploadHandler:   h.Upload,
		ExportHandler:   h.Export,
		ReportHandler:   h.Report,
		HealthHandler:   h.Health,
	})
}
