package httpx

import (
	"net/http"
	"time"

	"github.com/Gunvolt24/cdc_ingest/internal/ports"
	"github.com/Gunvolt24/cdc_ingest/pkg/ctxmeta"
	"github.com/gin-gonic/gin"
)

// RequestLogger — middleware для логирования HTTP-запросов.
// Успешные запросы на пути из skip не логируются (пробы и scrape метрик).
func RequestLogger(log ports.Logger, skip ...string) gin.HandlerFunc {
	quiet := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		quiet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		if _, ok := quiet[path]; ok && status < http.StatusBadRequest {
			return
		}

		ctx := c.Request.Context()
		sp, _ := ctxmeta.SpanIDFromContext(ctx)
		kv := []any{
			"action", "http_request",
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"ip", c.ClientIP(),
			"duration", time.Since(start).String(),
			"size", c.Writer.Size(),
		}
		if sp != "" {
			kv = append(kv, "span_id", sp)
		}

		if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
			log.Errorw(ctx, "http request", kv...)
			return
		}
		log.Infow(ctx, "http request", kv...)
	}
}
