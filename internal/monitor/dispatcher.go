package monitor

import (
	"context"

	"github.com/jsinglet/mrva_go_server/internal/model"
)

// DownloadTrigger 下载触发器，实际的字节下载与缓存写入由实现方负责
type DownloadTrigger interface {
	Download(ctx context.Context, repo *model.ScannedRepository, analysis *model.VariantAnalysis) error
}

// Dispatcher 保证每个仓库在任务生命周期内最多触发一次下载
// 快照重复报告同一仓库 succeeded 时幂等
type Dispatcher struct {
	trigger    DownloadTrigger
	dispatched map[int64]struct{}
}

// NewDispatcher 创建分发器
// alreadyDispatched 为已有下载记录的仓库 id，worker 重启后从数据库加载
func NewDispatcher(trigger DownloadTrigger, alreadyDispatched []int64) *Dispatcher {
	dispatched := make(map[int64]struct{}, len(alreadyDispatched))
	for _, id := range alreadyDispatched {
		dispatched[id] = struct{}{}
	}
	return &Dispatcher{
		trigger:    trigger,
		dispatched: dispatched,
	}
}

// Dispatch 触发单仓库下载并等待完成，重复调用只生效一次
func (d *Dispatcher) Dispatch(ctx context.Context, repo *model.ScannedRepository, analysis *model.VariantAnalysis) error {
	if _, ok := d.dispatched[repo.RepoID]; ok {
		return nil
	}
	d.dispatched[repo.RepoID] = struct{}{}

	return d.trigger.Download(ctx, repo, analysis)
}

// DispatchedCount 已触发的仓库数量
func (d *Dispatcher) DispatchedCount() int {
	return len(d.dispatched)
}
