package cron

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jsinglet/mrva_go_server/internal/pkg/queue"
	"github.com/jsinglet/mrva_go_server/internal/repository"
	"github.com/jsinglet/mrva_go_server/internal/resultcache"
)

// Service 定时任务：结果缓存清理、过期导出目录清理、卡死任务重新入队
type Service struct {
	cache         *resultcache.Cache
	vaRepo        *repository.VariantAnalysisRepository
	taskQueue     *queue.Queue
	exportDir     string
	retentionDays int
	stopChan      chan struct{}
}

func NewService(
	cache *resultcache.Cache,
	vaRepo *repository.VariantAnalysisRepository,
	taskQueue *queue.Queue,
	exportDir string,
	retentionDays int,
) *Service {
	return &Service{
		cache:         cache,
		vaRepo:        vaRepo,
		taskQueue:     taskQueue,
		exportDir:     exportDir,
		retentionDays: retentionDays,
		stopChan:      make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runCleanup()
	go s.runStuckRequeue()
	log.Println("Cron service started (cache cleanup + stuck requeue)")
}

// Stop 停止定时任务
func (s *Service) Stop() {
	close(s.stopChan)
	log.Println("Cron service stopped")
}

// runCleanup 每小时执行一次全量清理
func (s *Service) runCleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanupAll()
		}
	}
}

// cleanupAll 执行所有清理任务
func (s *Service) cleanupAll() {
	retention := time.Duration(s.retentionDays) * 24 * time.Hour
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}

	c1 := s.cleanupResultCache(retention)
	c2 := s.cleanupExportDirs(retention)

	if c1+c2 > 0 {
		log.Printf("Cleanup summary: cache entries=%d, export dirs=%d", c1, c2)
	}
}

func (s *Service) cleanupResultCache(retention time.Duration) int {
	removed, err := s.cache.CleanupOlderThan(retention)
	if err != nil {
		log.Printf("Cleanup cache: %v", err)
	}
	return removed
}

// cleanupExportDirs 清理过期的本地导出目录（exported-results/results_*）
func (s *Service) cleanupExportDirs(retention time.Duration) int {
	if s.exportDir == "" {
		return 0
	}

	entries, err := os.ReadDir(s.exportDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Cleanup exports: failed to read dir %s: %v", s.exportDir, err)
		}
		return 0
	}

	cleaned := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "results_") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if time.Since(info.ModTime()) > retention {
			dirPath := filepath.Join(s.exportDir, entry.Name())
			if err := os.RemoveAll(dirPath); err != nil {
				log.Printf("Cleanup exports: failed to remove %s: %v", dirPath, err)
			} else {
				cleaned++
			}
		}
	}
	return cleaned
}

// runStuckRequeue 每十分钟检查长时间未更新的进行中任务，重新入队监控
func (s *Service) runStuckRequeue() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.requeueStuck()
		}
	}
}

func (s *Service) requeueStuck() {
	stuck, err := s.vaRepo.ListStuck(30*time.Minute, 50)
	if err != nil {
		log.Printf("Stuck requeue: query failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, va := range stuck {
		msg := &queue.TaskMessage{
			Type:       queue.TaskMonitor,
			AnalysisID: va.ID,
			UserID:     va.UserID,
		}
		if err := s.taskQueue.Push(ctx, msg); err != nil {
			log.Printf("Stuck requeue: failed to requeue analysis %d: %v", va.ID, err)
			continue
		}
		log.Printf("Stuck requeue: analysis %d requeued for monitoring", va.ID)
	}
}
