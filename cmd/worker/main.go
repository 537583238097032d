package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jsinglet/mrva_go_server/config"
	"github.com/jsinglet/mrva_go_server/internal/database"
	"github.com/jsinglet/mrva_go_server/internal/export"
	"github.com/jsinglet/mrva_go_server/internal/pkg/cancel"
	"github.com/jsinglet/mrva_go_server/internal/pkg/cron"
	"github.com/jsinglet/mrva_go_server/internal/pkg/email"
	"github.com/jsinglet/mrva_go_server/internal/pkg/ghapi"
	"github.com/jsinglet/mrva_go_server/internal/pkg/oss"
	"github.com/jsinglet/mrva_go_server/internal/pkg/pubsub"
	"github.com/jsinglet/mrva_go_server/internal/pkg/queue"
	"github.com/jsinglet/mrva_go_server/internal/repository"
	"github.com/jsinglet/mrva_go_server/internal/resultcache"
	"github.com/jsinglet/mrva_go_server/internal/worker"
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

	// 初始化 OSS（可选）
	var ossClient *oss.Client
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err = oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Printf("Warning: Failed to init OSS client: %v", err)
		} else {
			log.Println("OSS client initialized")
		}
	}

	// 初始化 Queue 和 Pub/Sub
	taskQueue := queue.NewQueue(rdb, cfg.Queue.TaskQueue)
	publisher := pubsub.NewPublisher(rdb)
	cancels := cancel.NewStore(rdb)

	// 初始化 Repository 与结果缓存
	vaRepo := repository.NewVariantAnalysisRepository(db)
	dlRepo := repository.NewDownloadRepository(db)
	cache := resultcache.New(cfg.Cache.Dir)

	// 初始化远程服务客户端与邮件通知
	gh := ghapi.NewClient(cfg.GitHub.APIBaseURL, cfg.GitHub.Token)
	emails := email.NewService(&cfg.Email)

	// 导出器：导出任务的取消旗标与监控共用同一套存储
	exportCancelCheck := func(ctx context.Context, analysisID int64) (bool, bool, error) {
		set, err := cancels.IsSet(ctx, analysisID)
		if err != nil || !set {
			return false, false, err
		}
		silent, err := cancels.IsSilent(ctx, analysisID)
		return true, silent, err
	}
	exporter := export.NewExporter(vaRepo, dlRepo, cache, gh, publisher, cfg.Export.OutputDir, exportCancelCheck)

	// 创建任务执行器
	runner := worker.NewRunner(cfg, vaRepo, dlRepo, gh, cache, ossClient, publisher, cancels, emails, exporter)

	// 定时任务：缓存清理 + 卡死任务重新入队
	cronService := cron.NewService(cache, vaRepo, taskQueue, cfg.Export.OutputDir, cfg.Cache.RetentionDays)
	cronService.Start()
	defer cronService.Stop()

	// 创建 context 用于优雅关闭
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancelFn()
	}()

	log.Printf("Worker started, max workers: %d", cfg.Queue.MaxWorkers)

	// 启动 worker 循环
	for i := 0; i < cfg.Queue.MaxWorkers; i++ {
		go func(workerID int) {
			for {
				select {
				case <-ctx.Done():
					log.Printf("Worker %d shutting down", workerID)
					return
				default:
					msg, err := taskQueue.Pop(ctx, 5*time.Second)
					if err != nil {
						if ctx.Err() != nil {
							return
						}
						log.Printf("Worker %d: failed to pop task: %v", workerID, err)
						continue
					}

					if msg == nil {
						continue // 超时，继续等待
					}

					log.Printf("Worker %d: processing %s task for analysis %d", workerID, msg.Type, msg.AnalysisID)
					if err := runner.Handle(ctx, msg); err != nil {
						log.Printf("Worker %d: task %s failed: %v", workerID, msg.MessageID, err)
					}
				}
			}
		}(i)
	}

	// 等待 context 取消
	<-ctx.Done()
	log.Println("Worker shutdown complete")
}
