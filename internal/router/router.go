package router

import (
	"github.com/chastitela/meta-lv/internal/config"
	"github.com/chastitela/meta-lv/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, cfg config.AppConfig) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	r := gin.Default()

	// 配置会话中间件，草稿缓冲按会话隔离
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("metalv_session", store))

	// 本地文件桶直接挂成静态路由
	if cfg.StorageBackend == "fs" {
		r.Static(cfg.UploadURLPath, cfg.UploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// 后台管理 API
	admin := r.Group("/admin/api")
	{
		admin.GET("/pages", api.ListPages)
		admin.POST("/pages", api.CreatePage)
		admin.PUT("/pages/:id", api.UpdatePage)
		admin.DELETE("/pages/:id", api.DeletePage)

		admin.GET("/pages/:id/sections", api.ListSections)
		admin.POST("/pages/:id/sections", api.CreateSection)
		admin.POST("/pages/:id/reorder", api.ReorderSections)

		admin.GET("/section-types", api.ListSectionTypes)
		admin.GET("/sections/:id/editor", api.ShowSectionEditor)
		admin.PUT("/sections/:id", api.UpdateSection)
		admin.DELETE("/sections/:id", api.DeleteSection)
		admin.POST("/sections/:id/upload", api.UploadSectionImage)

		admin.POST("/sections/:id/draft", api.SetDraftField)
		admin.POST("/drafts/flush", api.FlushDrafts)
		admin.DELETE("/drafts", api.DiscardDrafts)
	}

	// 公开渲染路由
	r.GET("/", api.ShowHome)
	r.GET("/:slug", api.ShowPublicPage)

	return r
}
