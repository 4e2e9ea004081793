package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mistial-dev/FaceOFFx-sub000/internal/api/handlers"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/api/ws"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/auth"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/queue"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/storage"
)

type RouterConfig struct {
	APIKey   string
	DB       *storage.PostgresStore
	MinIO    *storage.MinIOStore
	Producer *queue.Producer
	Hub      *ws.Hub
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.MinIO, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.RequireKey(cfg.APIKey))

	// WebSocket status feed
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Credential jobs
	credH := handlers.NewCredentialHandler(cfg.DB, cfg.MinIO, cfg.Producer)
	v1.POST("/credentials", credH.Create)
	v1.POST("/credentials/batch", credH.Batch)
	v1.GET("/credentials", credH.List)
	v1.GET("/credentials/:id", credH.Get)
	v1.GET("/credentials/:id/image", credH.Image)
	v1.GET("/credentials/:id/roi", credH.ROI)
	v1.DELETE("/credentials/:id", credH.Delete)

	return r
}
