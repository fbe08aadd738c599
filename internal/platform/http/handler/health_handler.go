// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReadinessFunc reports whether the compliance agent has been set up.
type ReadinessFunc func() bool

// HealthResponse is the body of a GET health check.
type HealthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	AgentInitialized bool   `json:"agent_initialized"`
}

// NewHealth returns the /healthz handler for service. ready may be nil.
// HEAD gets 200 without a body, OPTIONS gets 204, everything else the JSON status.
func NewHealth(service string, ready ReadinessFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 明示的にキャッシュを防止
		c.Header("Cache-Control", "no-store")

		switch c.Request.Method {
		case http.MethodHead:
			c.Status(http.StatusOK)
		case http.MethodOptions:
			c.Status(http.StatusNoContent)
		default:
			c.JSON(http.StatusOK, HealthResponse{
				Status:           "ok",
				Service:          service,
				AgentInitialized: ready != nil && ready(),
			})
		}
	}
}
