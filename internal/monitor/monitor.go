package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jsinglet/mrva_go_server/internal/model"
	"github.com/jsinglet/mrva_go_server/internal/pkg/ghapi"
)

// Config 轮询参数，构造时显式传入，不依赖包级可变状态
type Config struct {
	PollInterval time.Duration
	MaxAttempts  int
}

// StatusFetcher 状态快照获取，单次调用无状态
type StatusFetcher interface {
	FetchStatus(ctx context.Context, controllerRepo string, remoteID int64) (*ghapi.VariantAnalysisResponse, error)
}

// Events 每次轮询后的变更事件出口，携带完整的合并后任务状态
type Events interface {
	AnalysisUpdated(ctx context.Context, va *model.VariantAnalysis) error
}

// CancelPredicate 外部取消判定，每次轮询前求值
type CancelPredicate func(ctx context.Context) (bool, error)

// Monitor 变体分析监控循环
type Monitor struct {
	cfg        Config
	fetcher    StatusFetcher
	dispatcher *Dispatcher
	events     Events
	canceled   CancelPredicate
}

func New(cfg Config, fetcher StatusFetcher, dispatcher *Dispatcher, events Events, canceled CancelPredicate) *Monitor {
	return &Monitor{
		cfg:        cfg,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		events:     events,
		canceled:   canceled,
	}
}

// Run 轮询直到任务终态、取消判定为真或达到尝试上限
// 返回最后一份合并后的任务状态；取消与尝试上限都是静默结束
func (m *Monitor) Run(ctx context.Context, va *model.VariantAnalysis) (*model.VariantAnalysis, error) {
	current := va

	for attempt := 0; attempt < m.cfg.MaxAttempts; attempt++ {
		// 取消时立即返回，不发出任何变更事件，取消 UI 由调用方负责
		canceled, err := m.canceled(ctx)
		if err != nil {
			return current, fmt.Errorf("cancellation check failed: %w", err)
		}
		if canceled {
			log.Printf("Monitor %d: canceled, stopping", current.ID)
			return current, nil
		}

		raw, err := m.fetcher.FetchStatus(ctx, current.ControllerRepo, current.RemoteID)
		if err != nil {
			// 单次轮询内不重试，拉取失败直接结束监控
			return current, fmt.Errorf("status fetch failed: %w", err)
		}

		updated := ProcessUpdatedVariantAnalysis(current, raw)

		// 顶层失败：分类失败原因，发出一次事件后终止，不再轮询
		if updated.Status == model.StatusFailed {
			log.Printf("Monitor %d: remote failure (%s)", current.ID, updated.FailureReason)
			if err := m.events.AnalysisUpdated(ctx, updated); err != nil {
				return updated, fmt.Errorf("event emit failed: %w", err)
			}
			return updated, nil
		}

		// 新到达 succeeded 的仓库按快照顺序逐个触发下载，顺序执行
		delta := RepoResultsDelta(current, updated)
		for i := range delta.Succeeded {
			repo := &delta.Succeeded[i]
			if err := m.dispatcher.Dispatch(ctx, repo, updated); err != nil {
				return updated, fmt.Errorf("download dispatch for %s failed: %w", repo.FullName, err)
			}
		}

		// 每次轮询恰好一次变更事件，即使差分为空
		if err := m.events.AnalysisUpdated(ctx, updated); err != nil {
			return updated, fmt.Errorf("event emit failed: %w", err)
		}

		current = updated

		if current.Status.IsTerminal() {
			log.Printf("Monitor %d: reached terminal status %s", current.ID, current.Status)
			return current, nil
		}

		select {
		case <-ctx.Done():
			return current, ctx.Err()
		case <-time.After(m.cfg.PollInterval):
		}
	}

	// 尝试上限是安全阀：静默结束，不把任务标记为失败
	log.Printf("Monitor %d: attempt ceiling reached, stopping", current.ID)
	return current, nil
}
