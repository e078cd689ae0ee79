package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/straypaws/backend/internal/config"
	"github.com/straypaws/backend/internal/db"
	"github.com/straypaws/backend/internal/http/handlers"
	"github.com/straypaws/backend/internal/http/middleware"
	"github.com/straypaws/backend/internal/nlp"
	"github.com/straypaws/backend/internal/service"

	_ "github.com/straypaws/backend/docs"
)

func Router(cfg config.Config, store *db.Store, alerts *service.AlertService, escalator *service.Escalator, analyzer nlp.Analyzer, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     store,
		Alerts:    alerts,
		Escalator: escalator,
		NLP:       analyzer,
		Validator: validator.New(),
		Logger:    logger,
		AdminKey:  cfg.AdminKey,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/alerts", h.AlertsList)
		api.GET("/alerts/stats", h.AlertStats)
		api.GET("/alerts/:id", h.AlertGet)
		api.POST("/alerts/:id/acknowledge", h.AlertAcknowledge)
		api.POST("/alerts/:id/assign", h.AlertAssign)
		api.POST("/alerts/:id/resolve", h.AlertResolve)
		api.POST("/reports/:dogId/analyze", h.ReportAnalyze)
		api.GET("/nlp/status", h.NLPStatus)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/nlp/reset-circuit", h.NLPResetCircuit)
		admin.POST("/escalations/run", h.EscalationRun)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
