package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	limiter := newUploadLimiter(deps.RateCounter)
	resumeHandler := NewResumeHandler(deps.Store, deps.Sessions, deps.Queue, deps.Objects, deps.Logger)
	importHandler := NewImportHandler(deps.Sessions, deps.Scanner, deps.MaxUploadBytes, deps.Logger)
	templateHandler := NewTemplateHandler(deps.Objects, deps.Queue, deps.Logger)

	v1 := router.Group("/v1")
	{
		if deps.Redis != nil {
			wsHandler := NewWsHandler(deps.Redis, deps.Store, deps.Logger, nil)
			v1.GET("/ws", wsHandler.HandleConnection)
		}

		v1.GET("/templates", templateHandler.ListTemplates)
		v1.POST("/extract", limiter.Middleware("extract"), importHandler.ExtractText)

		resumeGroup := v1.Group("/resume")
		{
			resumeGroup.GET("", resumeHandler.ListResumes)
			resumeGroup.POST("", resumeHandler.CreateResume)
			resumeGroup.GET("/:id", resumeHandler.GetResume)
			resumeGroup.PUT("/:id", resumeHandler.UpdateResume)
			resumeGroup.DELETE("/:id", resumeHandler.DeleteResume)
			resumeGroup.POST("/:id/reset", resumeHandler.ResetResume)
			resumeGroup.POST("/:id/flush", resumeHandler.FlushResume)
			resumeGroup.GET("/:id/export", resumeHandler.ExportResume)
			resumeGroup.GET("/:id/preview", resumeHandler.PreviewResume)
			resumeGroup.GET("/:id/text", resumeHandler.ResumeText)
			resumeGroup.GET("/:id/score", resumeHandler.ScoreResume)
			resumeGroup.POST("/:id/download", resumeHandler.DownloadResume)
			resumeGroup.GET("/:id/download-link", resumeHandler.GetDownloadLink)

			resumeGroup.POST("/:id/extract", limiter.Middleware("extract"), importHandler.ExtractIntoResume)
			resumeGroup.POST("/:id/import", importHandler.ImportResume)
			resumeGroup.POST("/:id/import-file", limiter.Middleware("upload"), importHandler.ImportFile)
		}
	}
}
