package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jsinglet/mrva_go_server/config"
	"github.com/jsinglet/mrva_go_server/internal/api"
	"github.com/jsinglet/mrva_go_server/internal/api/handler"
	"github.com/jsinglet/mrva_go_server/internal/database"
	"github.com/jsinglet/mrva_go_server/internal/pkg/cancel"
	"github.com/jsinglet/mrva_go_server/internal/pkg/ghapi"
	"github.com/jsinglet/mrva_go_server/internal/pkg/pubsub"
	"github.com/jsinglet/mrva_go_server/internal/pkg/queue"
	"github.com/jsinglet/mrva_go_server/internal/pkg/ws"
	"github.com/jsinglet/mrva_go_server/internal/repository"
	"github.com/jsinglet/mrva_go_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 初始化 Queue 与取消旗标
	taskQueue := queue.NewQueue(rdb, cfg.Queue.TaskQueue)
	cancels := cancel.NewStore(rdb)

	// 初始化 WebSocket Hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// 订阅变更事件并推送给在线用户
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		err := subscriber.Subscribe(context.Background(), func(msg *pubsub.UpdateMessage) {
			if !wsHub.IsOnline(msg.UserID) {
				return
			}
			if err := wsHub.SendToUser(msg.UserID, &ws.Message{Type: msg.Type, Data: msg}); err != nil {
				log.Printf("Failed to push update to user %d: %v", msg.UserID, err)
			}
		})
		if err != nil && err != context.Canceled {
			log.Printf("Update subscription stopped: %v", err)
		}
	}()

	// 初始化远程服务客户端
	gh := ghapi.NewClient(cfg.GitHub.APIBaseURL, cfg.GitHub.Token)

	// 初始化 Repository
	vaRepo := repository.NewVariantAnalysisRepository(db)
	dlRepo := repository.NewDownloadRepository(db)
	listRepo := repository.NewRepoListRepository(db)

	// 初始化 Service
	authService := service.NewAuthService(cfg)
	quotaService := service.NewQuotaService(rdb, cfg)
	vaService := service.NewVariantAnalysisService(vaRepo, dlRepo, listRepo, quotaService, gh, taskQueue, cancels, cfg)
	listService := service.NewRepoListService(listRepo)

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(authService)
	vaHandler := handler.NewVariantAnalysisHandler(vaService)
	repoListHandler := handler.NewRepoListHandler(listService)
	quotaHandler := handler.NewQuotaHandler(quotaService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret)

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		vaHandler,
		repoListHandler,
		quotaHandler,
		websocketHandler,
		quotaService,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
