// Package router builds the gin route table of the compliance server.
package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	compliancehandler "compliance_backend/internal/feature/compliance/transport/handler"
	"compliance_backend/internal/feature/compliance/transport/http/dto"
	platformhandler "compliance_backend/internal/platform/http/handler"
)

const serviceName = "compliance-assessment"

// NewRouter wires the compliance endpoints, health checks and /metrics.
// ready feeds agent_initialized in the health response.
func NewRouter(compliance *compliancehandler.ComplianceHandler, ready platformhandler.ReadinessFunc,
	gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.CustomRecovery(recoverJSON))

	// ブラウザのフロントエンドから呼ばれるため全オリジンを許可
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AddAllowHeaders(compliancehandler.SessionHeader)
	r.Use(cors.New(corsCfg))

	// 導通確認用
	health := platformhandler.NewHealth(serviceName, ready)
	for _, path := range []string{"/healthz", "/health"} {
		r.GET(path, health)
		r.HEAD(path, health)
		r.OPTIONS(path, health)
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// セッション
	r.POST("/sessions", compliance.NewSession)
	r.GET("/status", compliance.Status)
	r.POST("/reset", compliance.Reset)

	// 取り込み
	r.POST("/upload", compliance.Upload)
	r.POST("/setup_ingestion", compliance.SetupIngestion)
	r.POST("/process_files", compliance.ProcessFiles)

	// 分析・レポート
	r.POST("/analyze/:regulation", compliance.Analyze)
	r.POST("/analyze_gdpr", compliance.AnalyzeGDPR)
	r.POST("/generate_report", compliance.GenerateReport)

	r.GET("/test_agent", compliance.TestAgent)
	r.GET("/available_regulations", compliance.AvailableRegulations)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Endpoint not found"})
	})

	return r
}

func recoverJSON(c *gin.Context, recovered any) {
	slog.Error("panic while serving request", "path", c.Request.URL.Path, "panic", recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
}
