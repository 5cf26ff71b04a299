package rest

import (
	"net/http"

	"github.com/Gunvolt24/cdc_ingest/internal/domain"
	"github.com/Gunvolt24/cdc_ingest/internal/ports"
	"github.com/Gunvolt24/cdc_ingest/pkg/httpx"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// HealthResponse — тело ответа /health.
type HealthResponse struct {
	Status  string `json:"status"` // ok|starting|crashed
	Topic   string `json:"topic"`
	GroupID string `json:"groupId"`
	Reason  string `json:"reason,omitempty"`
}

type Handler struct {
	health ports.HealthReporter
	log    ports.Logger
}

func NewHandler(health ports.HealthReporter, log ports.Logger) *Handler {
	return &Handler{health: health, log: log}
}

// NewRouter — health-сервер. otelServiceName пустой → без трейсинга HTTP.
func NewRouter(h *Handler, otelServiceName string) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(httpx.RequestIDMiddleware())
	if otelServiceName != "" {
		r.Use(otelgin.Middleware(otelServiceName))
	}
	r.Use(httpx.RequestLogger(h.log, "/health", "/ping", "/metrics"))

	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", h.getHealth)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	return r
}

// getHealth — 200 только когда консьюмер подписан, иначе 503 с причиной.
func (h *Handler) getHealth(c *gin.Context) {
	st := h.health.Status()

	resp := HealthResponse{Topic: st.Topic, GroupID: st.GroupID}
	if st.Ready {
		resp.Status = "ok"
		c.JSON(http.StatusOK, resp)
		return
	}

	resp.Status = st.State.String()
	if st.State == domain.StateReady {
		// Ready без флага не бывает, но ответ не должен выглядеть здоровым
		resp.Status = domain.StateStarting.String()
	}
	resp.Reason = st.Reason
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusServiceUnavailable, resp)
}
