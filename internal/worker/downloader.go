package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jsinglet/mrva_go_server/internal/model"
	"github.com/jsinglet/mrva_go_server/internal/pkg/ghapi"
	"github.com/jsinglet/mrva_go_server/internal/pkg/oss"
	"github.com/jsinglet/mrva_go_server/internal/repository"
	"github.com/jsinglet/mrva_go_server/internal/resultcache"
)

// Downloader 结果工件下载器
// 单仓库下载失败只记入下载状态，不中断整个监控循环
type Downloader struct {
	gh        *ghapi.Client
	cache     *resultcache.Cache
	dlRepo    *repository.DownloadRepository
	ossClient *oss.Client // 可选，为空时不镜像到对象存储
}

// NewDownloader 创建下载器，ossClient 允许为空
func NewDownloader(gh *ghapi.Client, cache *resultcache.Cache, dlRepo *repository.DownloadRepository, ossClient *oss.Client) *Downloader {
	return &Downloader{gh: gh, cache: cache, dlRepo: dlRepo, ossClient: ossClient}
}

// Download 拉取单仓库的结果工件并写入结果缓存
func (d *Downloader) Download(ctx context.Context, repo *model.ScannedRepository, analysis *model.VariantAnalysis) error {
	if _, err := d.dlRepo.Start(analysis.ID, repo.RepoID, repo.FullName); err != nil {
		return fmt.Errorf("start download record: %w", err)
	}

	task, err := d.gh.FetchRepoTask(ctx, analysis.ControllerRepo, analysis.RemoteID, repo.FullName)
	if err != nil {
		return d.fail(ctx, analysis.ID, repo, fmt.Sprintf("fetch repo task: %v", err))
	}
	if task.ArtifactURL == "" {
		return d.fail(ctx, analysis.ID, repo, "repo task has no artifact url")
	}

	data, err := d.gh.DownloadArtifact(ctx, task.ArtifactURL)
	if err != nil {
		return d.fail(ctx, analysis.ID, repo, fmt.Sprintf("download artifact: %v", err))
	}

	var results []resultcache.Result
	if err := json.Unmarshal(data, &results); err != nil {
		return d.fail(ctx, analysis.ID, repo, fmt.Sprintf("decode artifact: %v", err))
	}

	rs := &resultcache.ResultSet{FullName: repo.FullName, Results: results}
	path, err := d.cache.Store(analysis.ID, repo.FullName, rs)
	if err != nil {
		return d.fail(ctx, analysis.ID, repo, fmt.Sprintf("store results: %v", err))
	}

	var ossURL string
	if d.ossClient != nil {
		ossURL, err = d.ossClient.UploadArtifact(analysis.ID, repo.FullName, data)
		if err != nil {
			// 镜像失败不算下载失败，本地缓存已经可用
			log.Printf("Download %d/%s: oss mirror failed: %v", analysis.ID, repo.FullName, err)
			ossURL = ""
		}
	}

	if err := d.dlRepo.MarkSucceeded(analysis.ID, repo.RepoID, path, ossURL, int64(len(data))); err != nil {
		return fmt.Errorf("mark download succeeded: %w", err)
	}
	log.Printf("Download %d/%s: stored %d results (%d bytes)", analysis.ID, repo.FullName, len(results), len(data))
	return nil
}

// fail 记录失败并吞掉错误，上下文取消除外
func (d *Downloader) fail(ctx context.Context, analysisID int64, repo *model.ScannedRepository, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("Download %d/%s: %s", analysisID, repo.FullName, msg)
	if err := d.dlRepo.MarkFailed(analysisID, repo.RepoID, msg); err != nil {
		return fmt.Errorf("mark download failed: %w", err)
	}
	return nil
}
