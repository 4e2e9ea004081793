package api

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mistial-dev/FaceOFFx-sub000/internal/observability"
)

// RequestLogger logs every credential API request through slog and
// feeds the HTTP duration histogram. The metric is labelled with the
// route template (e.g. /v1/credentials/:id/image), not the raw URL, so
// per-job ids never explode the label cardinality.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		attrs := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", duration.String(),
			"ip", c.ClientIP(),
		}
		if jobID := c.Param("id"); jobID != "" {
			attrs = append(attrs, "job_id", jobID)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		if status >= 500 {
			slog.Error("request", attrs...)
		} else {
			slog.Info("request", attrs...)
		}

		observability.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(status),
		).Observe(duration.Seconds())
	}
}
