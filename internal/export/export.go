package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/jsinglet/mrva_go_server/internal/model"
	"github.com/jsinglet/mrva_go_server/internal/pkg/ghapi"
	"github.com/jsinglet/mrva_go_server/internal/pkg/pubsub"
	"github.com/jsinglet/mrva_go_server/internal/repository"
	"github.com/jsinglet/mrva_go_server/internal/resultcache"
)

// Format 导出目标
type Format string

const (
	FormatGist  Format = "gist"
	FormatLocal Format = "local"
)

// GistCreator 创建 Gist 的最小接口
type GistCreator interface {
	CreateGist(ctx context.Context, description string, files map[string]ghapi.GistFile) (string, error)
}

// CancelCheck 按任务查询取消旗标，canceled 为 true 时 silent 指示是否静默终止
type CancelCheck func(ctx context.Context, analysisID int64) (canceled bool, silent bool, err error)

// Exporter 结果导出器
// 从结果缓存逐仓库加载结果并渲染 Markdown，写本地目录或创建私有 Gist
type Exporter struct {
	vaRepo    *repository.VariantAnalysisRepository
	dlRepo    *repository.DownloadRepository
	cache     *resultcache.Cache
	gist      GistCreator
	publisher *pubsub.Publisher
	outputDir string
	canceled  CancelCheck
	now       func() time.Time
}

// NewExporter 创建导出器，publisher 和 canceled 允许为空
func NewExporter(
	vaRepo *repository.VariantAnalysisRepository,
	dlRepo *repository.DownloadRepository,
	cache *resultcache.Cache,
	gist GistCreator,
	publisher *pubsub.Publisher,
	outputDir string,
	canceled CancelCheck,
) *Exporter {
	return &Exporter{
		vaRepo:    vaRepo,
		dlRepo:    dlRepo,
		cache:     cache,
		gist:      gist,
		publisher: publisher,
		outputDir: outputDir,
		canceled:  canceled,
		now:       time.Now,
	}
}

// Export 执行导出，返回目标位置（本地目录路径或 Gist URL）
// 在每个阶段边界检查取消标志，取消时返回 *CancellationError
func (e *Exporter) Export(ctx context.Context, analysisID, userID int64, criteria Criteria, format Format) (string, error) {
	va, err := e.vaRepo.GetByID(analysisID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrAnalysisNotFound
		}
		return "", fmt.Errorf("load variant analysis: %w", err)
	}

	if err := e.checkCancel(ctx, va.ID); err != nil {
		return "", err
	}
	e.progress(ctx, userID, analysisID, pubsub.StepDeterminingFormat)

	downloads, err := e.dlRepo.ListByAnalysis(analysisID)
	if err != nil {
		return "", fmt.Errorf("list downloads: %w", err)
	}
	statuses := make(map[int64]model.DownloadStatus, len(downloads))
	for _, d := range downloads {
		statuses[d.RepoID] = d.Status
	}
	selected := SelectRepos(va.Repos, statuses, criteria)
	seq := NewRepoResults(e.cache, analysisID, selected)

	if err := e.checkCancel(ctx, va.ID); err != nil {
		return "", err
	}
	e.progress(ctx, userID, analysisID, pubsub.StepGenerating)

	switch format {
	case FormatGist:
		return e.exportGist(ctx, va, seq)
	case FormatLocal:
		return e.exportLocal(ctx, va, seq)
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
}

func (e *Exporter) exportLocal(ctx context.Context, va *model.VariantAnalysis, seq *RepoResults) (string, error) {
	dir := filepath.Join(e.outputDir, ExportDirName(e.now()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	var entries []SummaryEntry
	totalResults := 0
	for {
		if err := e.checkCancel(ctx, va.ID); err != nil {
			return "", err
		}
		repo, rs, ok, err := seq.Next()
		if err != nil {
			return "", fmt.Errorf("load results for export: %w", err)
		}
		if !ok {
			break
		}
		name := RepoFileName(repo.FullName)
		content := RenderRepoMarkdown(repo, rs)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", name, err)
		}
		count := len(rs.Results)
		totalResults += count
		entries = append(entries, SummaryEntry{FullName: repo.FullName, ResultCount: count, FileName: name})
	}

	description := BuildDescription(va, totalResults, len(entries))
	summary := RenderSummary(description, entries)
	if err := os.WriteFile(filepath.Join(dir, "_summary.md"), []byte(summary), 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	log.Printf("Export %d: wrote %d repository files to %s", va.ID, len(entries), dir)
	return dir, nil
}

func (e *Exporter) exportGist(ctx context.Context, va *model.VariantAnalysis, seq *RepoResults) (string, error) {
	if e.gist == nil {
		return "", errors.New("gist export is not configured")
	}

	files := make(map[string]ghapi.GistFile)
	var entries []SummaryEntry
	totalResults := 0
	for {
		if err := e.checkCancel(ctx, va.ID); err != nil {
			return "", err
		}
		repo, rs, ok, err := seq.Next()
		if err != nil {
			return "", fmt.Errorf("load results for export: %w", err)
		}
		if !ok {
			break
		}
		name := RepoFileName(repo.FullName)
		files[name] = ghapi.GistFile{Content: RenderRepoMarkdown(repo, rs)}
		count := len(rs.Results)
		totalResults += count
		entries = append(entries, SummaryEntry{FullName: repo.FullName, ResultCount: count, FileName: name})
	}

	description := BuildDescription(va, totalResults, len(entries))
	files["_summary.md"] = ghapi.GistFile{Content: RenderSummary(description, entries)}

	if err := e.checkCancel(ctx, va.ID); err != nil {
		return "", err
	}
	url, err := e.gist.CreateGist(ctx, description, files)
	if err != nil {
		return "", fmt.Errorf("create gist: %w", err)
	}
	log.Printf("Export %d: created gist with %d repository files", va.ID, len(entries))
	return url, nil
}

func (e *Exporter) checkCancel(ctx context.Context, analysisID int64) error {
	if err := ctx.Err(); err != nil {
		return &CancellationError{Silent: true}
	}
	if e.canceled == nil {
		return nil
	}
	canceled, silent, err := e.canceled(ctx, analysisID)
	if err != nil {
		return fmt.Errorf("check cancel flag: %w", err)
	}
	if canceled {
		return &CancellationError{Silent: silent}
	}
	return nil
}

func (e *Exporter) progress(ctx context.Context, userID, analysisID int64, step string) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishExportProgress(ctx, userID, analysisID, step, ""); err != nil {
		log.Printf("Export %d: publish progress failed: %v", analysisID, err)
	}
}
