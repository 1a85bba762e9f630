// Package router provides report service routing.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/kart-io/sentinel-report/api/swagger" // swagger docs
	carbonhandler "github.com/kart-io/sentinel-report/internal/carbon/handler"
	"github.com/kart-io/sentinel-report/internal/report/handler"
)

// Register registers the report API routes. carbonHandler may be nil when the
// carbon chat is disabled.
func Register(engine gin.IRouter, reportHandler *handler.ReportHandler, carbonHandler *carbonhandler.CarbonHandler) {
	logger.Info("Registering report routes...")

	engine.Handle(http.MethodGet, "/metrics", reportHandler.Metrics)

	api := engine.Group("/api")
	{
		api.Handle(http.MethodGet, "/health", reportHandler.Health)
		api.Handle(http.MethodGet, "/stats", reportHandler.Stats)
		api.Handle(http.MethodPost, "/analyze-document", reportHandler.Analyze)
		api.Handle(http.MethodPost, "/generate-report", reportHandler.Generate)

		if carbonHandler != nil {
			carbon := api.Group("/carbon")
			{
				carbon.Handle(http.MethodPost, "/chat", carbonHandler.Chat)
				carbon.Handle(http.MethodGet, "/datasets", carbonHandler.Datasets)
			}
		}
	}

	logger.Info("HTTP routes registered")
}

// RegisterSwagger serves the Swagger UI at /swagger/index.html and the spec at
// /swagger/doc.json.
func RegisterSwagger(engine gin.IRouter) {
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logger.Info("Swagger UI available at /swagger/index.html")
}
