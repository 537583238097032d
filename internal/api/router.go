package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jsinglet/mrva_go_server/config"
	"github.com/jsinglet/mrva_go_server/internal/api/handler"
	"github.com/jsinglet/mrva_go_server/internal/api/middleware"
	"github.com/jsinglet/mrva_go_server/internal/service"
)

type Router struct {
	authHandler      *handler.AuthHandler
	vaHandler        *handler.VariantAnalysisHandler
	repoListHandler  *handler.RepoListHandler
	quotaHandler     *handler.QuotaHandler
	websocketHandler *handler.WebSocketHandler
	quotaService     *service.QuotaService
	cfg              *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	vaHandler *handler.VariantAnalysisHandler,
	repoListHandler *handler.RepoListHandler,
	quotaHandler *handler.QuotaHandler,
	websocketHandler *handler.WebSocketHandler,
	quotaService *service.QuotaService,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:      authHandler,
		vaHandler:        vaHandler,
		repoListHandler:  repoListHandler,
		quotaHandler:     quotaHandler,
		websocketHandler: websocketHandler,
		quotaService:     quotaService,
		cfg:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// 公开接口 - 认证
		api.POST("/auth/token", r.authHandler.Token)

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			authenticated.GET("/quota", r.quotaHandler.GetQuota)

			// 变体分析
			analyses := authenticated.Group("/variant-analyses")
			{
				analyses.POST("", middleware.QuotaCheck(r.quotaService), r.vaHandler.Submit)
				analyses.GET("", r.vaHandler.List)
				analyses.GET("/:id", r.vaHandler.Get)
				analyses.GET("/:id/repos", r.vaHandler.ListRepos)
				analyses.POST("/:id/cancel", r.vaHandler.Cancel)
				analyses.POST("/:id/export", r.vaHandler.Export)
			}

			// 仓库清单
			repoLists := authenticated.Group("/repo-lists")
			{
				repoLists.POST("", r.repoListHandler.Create)
				repoLists.GET("", r.repoListHandler.List)
				repoLists.PUT("/:id", r.repoListHandler.Update)
				repoLists.DELETE("/:id", r.repoListHandler.Delete)
			}
		}
	}

	return engine
}
