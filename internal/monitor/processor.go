package monitor

import (
	"time"

	"github.com/jsinglet/mrva_go_server/internal/model"
	"github.com/jsinglet/mrva_go_server/internal/pkg/ghapi"
)

// 本文件为纯函数：快照归一化、合并与差分，不产生任何副作用

// ProcessScannedRepository 归一化单仓库条目的线上表示
func ProcessScannedRepository(raw *ghapi.ScannedRepoTask) model.ScannedRepository {
	repo := model.ScannedRepository{
		RepoID:         raw.Repository.ID,
		FullName:       raw.Repository.FullName,
		Private:        raw.Repository.Private,
		StarCount:      raw.Repository.StargazersCount,
		AnalysisStatus: processRepoTaskStatus(raw.AnalysisStatus),
		FailureMessage: raw.FailureMessage,
	}
	if raw.ResultCount != nil {
		repo.ResultCount = *raw.ResultCount
	}
	if raw.ArtifactSizeInBytes != nil {
		repo.ArtifactSizeBytes = *raw.ArtifactSizeInBytes
	}
	if raw.Repository.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339, raw.Repository.UpdatedAt); err == nil {
			repo.RepoUpdatedAt = &t
		}
	}
	return repo
}

// ProcessFailureReason 将线上失败原因码映射为有界枚举
func ProcessFailureReason(raw string) model.FailureReason {
	switch raw {
	case "no_repos_queried":
		return model.FailureNoReposQueried
	case "internal_error", "actions_workflow_run_failed":
		return model.FailureInternalError
	case "rate_limited":
		return model.FailureRateLimited
	default:
		return model.FailureUnknown
	}
}

// ProcessUpdatedVariantAnalysis 将原始快照合并到上一份内存任务上，产生新值
// 不修改任何输入；raw 中缺失的仓库保留 prev 中的条目
func ProcessUpdatedVariantAnalysis(prev *model.VariantAnalysis, raw *ghapi.VariantAnalysisResponse) *model.VariantAnalysis {
	updated := prev.Clone()
	updated.Status = processOverallStatus(raw.Status)
	if updated.Status == model.StatusFailed {
		updated.FailureReason = ProcessFailureReason(raw.FailureReason)
	}
	if updated.Status.IsTerminal() && updated.CompletedAt == nil {
		now := time.Now()
		updated.CompletedAt = &now
	}

	// 快照中的仓库按出现顺序归一化，按 repo id 回填上一份中已有的计数
	repos := make([]model.ScannedRepository, 0, len(raw.ScannedRepositories))
	seen := make(map[int64]struct{}, len(raw.ScannedRepositories))
	for i := range raw.ScannedRepositories {
		task := &raw.ScannedRepositories[i]
		repo := ProcessScannedRepository(task)
		repo.VariantAnalysisID = prev.ID
		if previous := prev.RepoByID(repo.RepoID); previous != nil {
			repo.ID = previous.ID
			if task.ResultCount == nil {
				repo.ResultCount = previous.ResultCount
			}
			if task.ArtifactSizeInBytes == nil {
				repo.ArtifactSizeBytes = previous.ArtifactSizeBytes
			}
		}
		repos = append(repos, repo)
		seen[repo.RepoID] = struct{}{}
	}

	// 快照缺失的仓库保留原条目
	for i := range prev.Repos {
		if _, ok := seen[prev.Repos[i].RepoID]; !ok {
			repos = append(repos, prev.Repos[i])
		}
	}

	updated.Repos = repos
	return updated
}

// Delta 相对上一份快照新到达终态的仓库，保持快照顺序
type Delta struct {
	Succeeded []model.ScannedRepository
	Failed    []model.ScannedRepository
}

// RepoResultsDelta 按仓库 id 差分前后两份任务状态
// 只判断"现在是终态且之前未报告过终态"，不假设状态单调
func RepoResultsDelta(prev, next *model.VariantAnalysis) Delta {
	prevTerminal := make(map[int64]bool, len(prev.Repos))
	for i := range prev.Repos {
		repo := &prev.Repos[i]
		prevTerminal[repo.RepoID] = repo.AnalysisStatus.IsTerminal()
	}

	var delta Delta
	for i := range next.Repos {
		repo := next.Repos[i]
		if !repo.AnalysisStatus.IsTerminal() || prevTerminal[repo.RepoID] {
			continue
		}
		switch repo.AnalysisStatus {
		case model.RepoStatusSucceeded:
			delta.Succeeded = append(delta.Succeeded, repo)
		case model.RepoStatusFailed:
			delta.Failed = append(delta.Failed, repo)
		}
	}
	return delta
}

func processOverallStatus(raw string) model.VariantAnalysisStatus {
	switch raw {
	case "succeeded":
		return model.StatusSucceeded
	case "failed":
		return model.StatusFailed
	case "cancelled", "canceled":
		return model.StatusCanceled
	default:
		return model.StatusInProgress
	}
}

func processRepoTaskStatus(raw string) model.RepoTaskStatus {
	switch raw {
	case "in_progress":
		return model.RepoStatusInProgress
	case "succeeded":
		return model.RepoStatusSucceeded
	case "failed", "canceled", "cancelled", "timed_out":
		return model.RepoStatusFailed
	default:
		return model.RepoStatusPending
	}
}
