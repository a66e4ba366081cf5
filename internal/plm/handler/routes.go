package handler

import (
	"github.com/bitfantasy/nimo-baseline/internal/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册基线与对比路由（调用方负责认证中间件）
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup) {
	read := middleware.RequirePermission(middleware.PermBaselineRead)

	baselines := api.Group("/baselines")
	{
		baselines.GET("", read, h.Baseline.ListBaselines)
		baselines.GET("/template", read, h.Baseline.DownloadTemplate)
		baselines.GET("/:id", read, h.Baseline.GetBaseline)
		baselines.GET("/:id/flat", read, h.Baseline.FlattenBaseline)
		baselines.GET("/:id/archive", read, h.Baseline.DownloadArchive)

		baselines.POST("", middleware.RequirePermission(middleware.PermBaselineWrite), h.Baseline.CreateBaseline)
		baselines.POST("/import", middleware.RequirePermission(middleware.PermBaselineWrite), h.Baseline.ImportBaseline)
		baselines.DELETE("/:id", middleware.RequireRole(middleware.RoleBaselineAdmin), h.Baseline.DeleteBaseline)
	}

	api.POST("/projects/:id/boms/:bomId/baselines",
		middleware.RequirePermission(middleware.PermBaselineWrite), h.Baseline.SnapshotFromBOM)

	compare := api.Group("/compare", read)
	{
		compare.GET("", h.Compare.Compare)
		compare.GET("/navigate", h.Compare.Navigate)
		compare.GET("/export", h.Compare.Export)
	}

	api.GET("/sse/events", read, h.SSE.Stream)
}
