package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mistial-dev/FaceOFFx-sub000/internal/queue"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/storage"
)

// SystemHandler reports liveness and readiness for the credential
// issuance service: ready means the job store, the photo/credential
// object store, and the job queue are all reachable.
type SystemHandler struct {
	db       *storage.PostgresStore
	minio    *storage.MinIOStore
	producer *queue.Producer
}

func NewSystemHandler(db *storage.PostgresStore, minio *storage.MinIOStore, producer *queue.Producer) *SystemHandler {
	return &SystemHandler{db: db, minio: minio, producer: producer}
}

func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "piv-credential-api"})
}

// Readyz pings every dependency a credential job passes through. While
// any one is down, new submissions would be accepted but never
// processed, so the whole endpoint reports not ready.
func (h *SystemHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	deps := []struct {
		name string
		ping func(context.Context) error
	}{
		{"job_store", h.db.Ping},
		{"object_store", h.minio.Ping},
		{"job_queue", func(context.Context) error { return h.producer.Ping() }},
	}

	checks := map[string]string{}
	ready := true
	for _, dep := range deps {
		if err := dep.ping(ctx); err != nil {
			checks[dep.name] = err.Error()
			ready = false
		} else {
			checks[dep.name] = "ok"
		}
	}

	body := gin.H{"checks": checks}
	if ready {
		body["status"] = "ready"
		if depth, err := h.producer.QueueDepth(ctx); err == nil {
			body["pending_jobs"] = depth
		}
		c.JSON(http.StatusOK, body)
		return
	}

	body["status"] = "not ready"
	c.JSON(http.StatusServiceUnavailable, body)
}
