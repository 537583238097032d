package worker

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/jsinglet/mrva_go_server/config"
	"github.com/jsinglet/mrva_go_server/internal/export"
	"github.com/jsinglet/mrva_go_server/internal/model"
	"github.com/jsinglet/mrva_go_server/internal/monitor"
	"github.com/jsinglet/mrva_go_server/internal/pkg/cancel"
	"github.com/jsinglet/mrva_go_server/internal/pkg/email"
	"github.com/jsinglet/mrva_go_server/internal/pkg/ghapi"
	"github.com/jsinglet/mrva_go_server/internal/pkg/oss"
	"github.com/jsinglet/mrva_go_server/internal/pkg/pubsub"
	"github.com/jsinglet/mrva_go_server/internal/pkg/queue"
	"github.com/jsinglet/mrva_go_server/internal/repository"
	"github.com/jsinglet/mrva_go_server/internal/resultcache"
)

// Runner 任务执行器，消费队列里的监控与导出任务
type Runner struct {
	cfg       *config.Config
	vaRepo    *repository.VariantAnalysisRepository
	dlRepo    *repository.DownloadRepository
	gh        *ghapi.Client
	cache     *resultcache.Cache
	ossClient *oss.Client
	publisher *pubsub.Publisher
	cancels   *cancel.Store
	emails    *email.Service
	exporter  *export.Exporter
}

// NewRunner 创建执行器，ossClient 允许为空
func NewRunner(
	cfg *config.Config,
	vaRepo *repository.VariantAnalysisRepository,
	dlRepo *repository.DownloadRepository,
	gh *ghapi.Client,
	cache *resultcache.Cache,
	ossClient *oss.Client,
	publisher *pubsub.Publisher,
	cancels *cancel.Store,
	emails *email.Service,
	exporter *export.Exporter,
) *Runner {
	return &Runner{
		cfg:       cfg,
		vaRepo:    vaRepo,
		dlRepo:    dlRepo,
		gh:        gh,
		cache:     cache,
		ossClient: ossClient,
		publisher: publisher,
		cancels:   cancels,
		emails:    emails,
		exporter:  exporter,
	}
}

// Handle 执行单个任务
func (r *Runner) Handle(ctx context.Context, msg *queue.TaskMessage) error {
	switch msg.Type {
	case queue.TaskMonitor:
		return r.runMonitor(ctx, msg)
	case queue.TaskExport:
		return r.runExport(ctx, msg)
	default:
		log.Printf("Worker: unknown task type %q (message %s), dropping", msg.Type, msg.MessageID)
		return nil
	}
}

func (r *Runner) runMonitor(ctx context.Context, msg *queue.TaskMessage) error {
	va, err := r.vaRepo.GetByID(msg.AnalysisID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Monitor task: analysis %d not found, dropping", msg.AnalysisID)
			return nil
		}
		return fmt.Errorf("load analysis %d: %w", msg.AnalysisID, err)
	}
	if va.Status.IsTerminal() {
		log.Printf("Monitor task: analysis %d already %s, skipping", va.ID, va.Status)
		return nil
	}

	// worker 重启后从下载记录恢复去重集合，保证至多一次触发
	dispatched, err := r.dlRepo.ListDispatchedRepoIDs(va.ID)
	if err != nil {
		return fmt.Errorf("load dispatched repos for %d: %w", va.ID, err)
	}

	downloader := NewDownloader(r.gh, r.cache, r.dlRepo, r.ossClient)
	dispatcher := monitor.NewDispatcher(downloader, dispatched)
	events := &snapshotEvents{vaRepo: r.vaRepo, publisher: r.publisher, userID: va.UserID}
	predicate := func(ctx context.Context) (bool, error) {
		return r.cancels.IsSet(ctx, va.ID)
	}

	m := monitor.New(monitor.Config{
		PollInterval: r.cfg.Monitor.PollInterval(),
		MaxAttempts:  r.cfg.Monitor.MaxAttempts,
	}, r.gh, dispatcher, events, predicate)

	final, err := m.Run(ctx, va)
	if err != nil {
		return fmt.Errorf("monitor analysis %d: %w", va.ID, err)
	}

	if err := r.settleCancel(ctx, final); err != nil {
		return err
	}

	if final.Status.IsTerminal() && r.cfg.Email.NotifyTo != "" {
		if err := r.emails.SendAnalysisComplete(r.cfg.Email.NotifyTo, final); err != nil {
			log.Printf("Monitor task: notify email for %d failed: %v", final.ID, err)
		}
	}
	return nil
}

// settleCancel 把置位的取消旗标落成数据库终态
// 静默取消不发布变更事件，用户取消发布一次
func (r *Runner) settleCancel(ctx context.Context, va *model.VariantAnalysis) error {
	set, err := r.cancels.IsSet(ctx, va.ID)
	if err != nil {
		return fmt.Errorf("read cancel flag for %d: %w", va.ID, err)
	}
	if !set || va.Status.IsTerminal() {
		if set {
			_ = r.cancels.Clear(ctx, va.ID)
		}
		return nil
	}

	silent, err := r.cancels.IsSilent(ctx, va.ID)
	if err != nil {
		return fmt.Errorf("read cancel flag for %d: %w", va.ID, err)
	}
	if err := r.vaRepo.UpdateStatus(va.ID, model.StatusCanceled); err != nil {
		return fmt.Errorf("mark analysis %d canceled: %w", va.ID, err)
	}
	va.Status = model.StatusCanceled

	if !silent {
		if err := r.publisher.PublishAnalysisUpdate(ctx, va.UserID, va); err != nil {
			log.Printf("Monitor task: publish cancel update for %d failed: %v", va.ID, err)
		}
	}
	return r.cancels.Clear(ctx, va.ID)
}

func (r *Runner) runExport(ctx context.Context, msg *queue.TaskMessage) error {
	criteria := export.NormalizeCriteria(msg.SortKey, msg.FilterText)
	format := export.Format(msg.Format)
	if format == "" {
		format = export.FormatLocal
	}

	dest, err := r.exporter.Export(ctx, msg.AnalysisID, msg.UserID, criteria, format)
	if err != nil {
		var ce *export.CancellationError
		if errors.As(err, &ce) {
			if !ce.Silent {
				log.Printf("Export task: analysis %d canceled by user", msg.AnalysisID)
				if perr := r.publisher.PublishExportProgress(ctx, msg.UserID, msg.AnalysisID, "", "导出已取消"); perr != nil {
					log.Printf("Export task: publish cancel for %d failed: %v", msg.AnalysisID, perr)
				}
			}
			return nil
		}
		if errors.Is(err, export.ErrAnalysisNotFound) {
			log.Printf("Export task: analysis %d not found, dropping", msg.AnalysisID)
			return nil
		}
		if perr := r.publisher.PublishExportProgress(ctx, msg.UserID, msg.AnalysisID, "", "导出失败"); perr != nil {
			log.Printf("Export task: publish failure for %d failed: %v", msg.AnalysisID, perr)
		}
		return fmt.Errorf("export analysis %d: %w", msg.AnalysisID, err)
	}

	log.Printf("Export task: analysis %d exported to %s", msg.AnalysisID, dest)
	return nil
}

// snapshotEvents 把每次轮询的合并快照落库并广播
type snapshotEvents struct {
	vaRepo    *repository.VariantAnalysisRepository
	publisher *pubsub.Publisher
	userID    int64
}

func (e *snapshotEvents) AnalysisUpdated(ctx context.Context, va *model.VariantAnalysis) error {
	if err := e.vaRepo.SaveSnapshot(va); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	// 广播失败不终止监控，下一轮快照会补上
	if err := e.publisher.PublishAnalysisUpdate(ctx, e.userID, va); err != nil {
		log.Printf("Monitor %d: publish update failed: %v", va.ID, err)
	}
	return nil
}
