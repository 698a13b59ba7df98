package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sendit2sri/artifact-os/config"
	"github.com/sendit2sri/artifact-os/internal/api/handler"
	"github.com/sendit2sri/artifact-os/internal/api/middleware"
)

type Router struct {
	ingestHandler    *handler.IngestHandler
	projectHandler   *handler.ProjectHandler
	websocketHandler *handler.WebSocketHandler
	cfg              *config.Config
}

func NewRouter(
	ingestHandler *handler.IngestHandler,
	projectHandler *handler.ProjectHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
) *Router {
	return &Router{
		ingestHandler:    ingestHandler,
		projectHandler:   projectHandler,
		websocketHandler: websocketHandler,
		cfg:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api")
	{
		api.GET("/ws/progress", r.websocketHandler.Handle)

		ingest := api.Group("/ingest")
		{
			ingest.POST("", r.ingestHandler.SubmitURL)
			ingest.POST("/file", r.ingestHandler.SubmitFile)
			ingest.POST("/retry", r.ingestHandler.Retry)
		}

		api.GET("/jobs/:id", r.ingestHandler.GetJob)

		projects := api.Group("/projects")
		{
			projects.POST("/:id/dedup", r.projectHandler.Dedup)
			projects.GET("/:id/fact-groups", r.projectHandler.FactGroups)
		}
	}

	return engine
}
