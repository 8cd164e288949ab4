// Package http assembles the REST API of the assessment continuity
// engine: route registration, middleware ordering, and the HTTP server
// lifecycle.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qiyas/continuity/internal/config"
	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/internal/infrastructure/monitoring/prometheus"
	"github.com/qiyas/continuity/internal/interfaces/http/handlers"
	"github.com/qiyas/continuity/internal/interfaces/http/middleware"
)

// RouterConfig aggregates everything the router needs. MetricsHandler
// and Metrics are nil when metrics are disabled; the upload limiter is
// nil when rate limiting is off.
type RouterConfig struct {
	Mode        string
	MetricsPath string

	Health         *handlers.HealthHandler
	Indices        *handlers.IndexHandler
	Requirements   *handlers.RequirementHandler
	Mappings       *handlers.MappingHandler
	Recommendation *handlers.RecommendationHandler

	AppMetrics     *prometheus.AppMetrics
	MetricsHandler http.Handler
	UploadLimiter  middleware.RateLimiter
	CORS           middleware.CORSConfig

	Logger logging.Logger
}

// NewRouter builds the gin engine with the full route table.
func NewRouter(cfg RouterConfig) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestLogger(cfg.Logger, "/healthz", "/readyz", cfg.MetricsPath))
	if cfg.AppMetrics != nil {
		r.Use(middleware.Metrics(cfg.AppMetrics))
	}

	r.GET("/healthz", cfg.Health.Liveness)
	r.GET("/readyz", cfg.Health.Readiness)
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsHandler))
	}

	v1 := r.Group("/api/v1")

	indices := v1.Group("/indices")
	{
		indices.POST("", cfg.Indices.Create)
		indices.GET("", cfg.Indices.List)
		indices.GET("/completed", cfg.Indices.ListCompleted)
		indices.GET("/:id", cfg.Indices.Get)
		indices.POST("/:id/complete", cfg.Indices.Complete)
		indices.POST("/:id/previous", cfg.Indices.LinkPrevious)
		indices.DELETE("/:id/previous", cfg.Indices.UnlinkPrevious)

		indices.POST("/:id/requirements", cfg.Requirements.Create)
		indices.GET("/:id/requirements", cfg.Requirements.List)

		indices.GET("/:id/recommendations", cfg.Recommendation.ListByIndex)

		upload := indices.Group("/:id/recommendations/upload")
		if cfg.UploadLimiter != nil {
			upload.Use(middleware.RateLimit(cfg.UploadLimiter))
		}
		upload.POST("", cfg.Recommendation.Upload)
	}

	requirements := v1.Group("/requirements")
	{
		requirements.GET("/:id", cfg.Requirements.Get)
		requirements.PUT("/:id", cfg.Requirements.Update)
		requirements.DELETE("/:id", cfg.Requirements.Delete)

		requirements.PUT("/:id/answer", cfg.Requirements.SaveAnswer)
		requirements.POST("/:id/answer/submit", cfg.Requirements.Submit())
		requirements.POST("/:id/answer/approve", cfg.Requirements.Approve())
		requirements.POST("/:id/answer/reject", cfg.Requirements.Reject())
		requirements.POST("/:id/answer/request-changes", cfg.Requirements.RequestChanges())
		requirements.POST("/:id/answer/confirm", cfg.Requirements.Confirm())

		requirements.GET("/:id/previous-context", cfg.Requirements.PreviousContext)
		requirements.GET("/:id/recommendation", cfg.Recommendation.GetByRequirement)
	}

	mappings := v1.Group("/mappings")
	{
		mappings.POST("", cfg.Mappings.Create)
		mappings.GET("", cfg.Mappings.List)
		mappings.POST("/bulk", cfg.Mappings.BulkUpsert)
		mappings.GET("/compare", cfg.Mappings.Compare)
		mappings.GET("/suggest", cfg.Mappings.Suggest)
		mappings.GET("/:id", cfg.Mappings.Get)
		mappings.PUT("/:id", cfg.Mappings.Update)
		mappings.DELETE("/:id", cfg.Mappings.Delete)
	}

	recommendations := v1.Group("/recommendations")
	{
		recommendations.POST("", cfg.Recommendation.Create)
		recommendations.GET("/:id", cfg.Recommendation.Get)
		recommendations.POST("/:id/start", cfg.Recommendation.Start)
		recommendations.POST("/:id/address", cfg.Recommendation.MarkAddressed)
		recommendations.DELETE("/:id", cfg.Recommendation.Delete)
	}

	return r
}

// ModeFromConfig maps the server config mode to a gin mode string.
func ModeFromConfig(cfg config.ServerConfig) string {
	switch cfg.Mode {
	case "release", "test":
		return cfg.Mode
	default:
		return "debug"
	}
}
