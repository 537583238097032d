package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jsinglet/mrva_go_server/config"
	"github.com/jsinglet/mrva_go_server/internal/model"
	"github.com/jsinglet/mrva_go_server/internal/model/dto"
	"github.com/jsinglet/mrva_go_server/internal/monitor"
	"github.com/jsinglet/mrva_go_server/internal/pkg/cancel"
	"github.com/jsinglet/mrva_go_server/internal/pkg/ghapi"
	"github.com/jsinglet/mrva_go_server/internal/pkg/queue"
	"github.com/jsinglet/mrva_go_server/internal/repository"
)

var (
	ErrAnalysisNotFound   = errors.New("变体分析不存在")
	ErrAnalysisPermission = errors.New("无权操作此变体分析")
	ErrAnalysisTerminal   = errors.New("变体分析已结束")
	ErrNoRepos            = errors.New("未指定目标仓库")
	ErrRepoListNotFound   = errors.New("仓库清单不存在")
)

type VariantAnalysisService struct {
	vaRepo       *repository.VariantAnalysisRepository
	dlRepo       *repository.DownloadRepository
	listRepo     *repository.RepoListRepository
	quotaService *QuotaService
	gh           *ghapi.Client
	taskQueue    *queue.Queue
	cancels      *cancel.Store
	cfg          *config.Config
}

func NewVariantAnalysisService(
	vaRepo *repository.VariantAnalysisRepository,
	dlRepo *repository.DownloadRepository,
	listRepo *repository.RepoListRepository,
	quotaService *QuotaService,
	gh *ghapi.Client,
	taskQueue *queue.Queue,
	cancels *cancel.Store,
	cfg *config.Config,
) *VariantAnalysisService {
	return &VariantAnalysisService{
		vaRepo:       vaRepo,
		dlRepo:       dlRepo,
		listRepo:     listRepo,
		quotaService: quotaService,
		gh:           gh,
		taskQueue:    taskQueue,
		cancels:      cancels,
		cfg:          cfg,
	}
}

// Submit 提交变体分析并入队监控任务
func (s *VariantAnalysisService) Submit(ctx context.Context, userID int64, req *dto.SubmitVariantAnalysisRequest) (*dto.SubmitVariantAnalysisResponse, error) {
	repos, err := s.resolveRepos(userID, req)
	if err != nil {
		return nil, err
	}

	hasQuota, err := s.quotaService.CheckQuota(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !hasQuota {
		return nil, ErrQuotaExceeded
	}
	if err := s.quotaService.UseQuota(ctx, userID); err != nil {
		return nil, err
	}

	resp, err := s.gh.Submit(ctx, req.ControllerRepo, &ghapi.SubmitRequest{
		Language:     req.QueryLanguage,
		QueryPack:    req.QueryPack,
		Repositories: repos,
	})
	if err != nil {
		s.quotaService.RefundQuota(ctx, userID)
		return nil, err
	}

	va := &model.VariantAnalysis{
		RemoteID:       resp.ID,
		UserID:         userID,
		ControllerRepo: req.ControllerRepo,
		QueryName:      req.QueryName,
		QueryID:        req.QueryID,
		QueryLanguage:  req.QueryLanguage,
		Status:         model.StatusInProgress,
	}
	for i := range resp.ScannedRepositories {
		va.Repos = append(va.Repos, monitor.ProcessScannedRepository(&resp.ScannedRepositories[i]))
	}

	if err := s.vaRepo.Create(va); err != nil {
		s.quotaService.RefundQuota(ctx, userID)
		return nil, err
	}

	msg := &queue.TaskMessage{
		Type:       queue.TaskMonitor,
		AnalysisID: va.ID,
		UserID:     userID,
	}
	if err := s.taskQueue.Push(ctx, msg); err != nil {
		return nil, err
	}

	return &dto.SubmitVariantAnalysisResponse{
		AnalysisID: va.ID,
		RemoteID:   va.RemoteID,
	}, nil
}

// GetByID 获取变体分析详情
func (s *VariantAnalysisService) GetByID(userID, analysisID int64) (*model.VariantAnalysis, error) {
	return s.getOwned(userID, analysisID)
}

// List 获取变体分析列表
func (s *VariantAnalysisService) List(userID int64, page, pageSize int, status string) ([]*dto.VariantAnalysisListItem, int64, error) {
	analyses, total, err := s.vaRepo.ListByUserID(userID, page, pageSize, status)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.VariantAnalysisListItem, len(analyses))
	for i, va := range analyses {
		items[i] = &dto.VariantAnalysisListItem{
			ID:            va.ID,
			QueryName:     va.QueryName,
			QueryLanguage: va.QueryLanguage,
			Status:        string(va.Status),
			RepoCount:     len(va.Repos),
			CreatedAt:     va.CreatedAt.Format(time.RFC3339),
			UpdatedAt:     va.UpdatedAt.Format(time.RFC3339),
		}
		if va.FailureReason != model.FailureNone {
			items[i].FailureReason = string(va.FailureReason)
		}
	}
	return items, total, nil
}

// ListRepos 获取仓库级状态，附带下载状态
func (s *VariantAnalysisService) ListRepos(userID, analysisID int64) ([]*dto.ScannedRepoItem, error) {
	va, err := s.getOwned(userID, analysisID)
	if err != nil {
		return nil, err
	}

	downloads, err := s.dlRepo.ListByAnalysis(analysisID)
	if err != nil {
		return nil, err
	}
	dlStatus := make(map[int64]model.DownloadStatus, len(downloads))
	for _, d := range downloads {
		dlStatus[d.RepoID] = d.Status
	}

	items := make([]*dto.ScannedRepoItem, len(va.Repos))
	for i := range va.Repos {
		repo := &va.Repos[i]
		status := dlStatus[repo.RepoID]
		if status == "" {
			status = model.DownloadNone
		}
		items[i] = &dto.ScannedRepoItem{
			RepoID:            repo.RepoID,
			FullName:          repo.FullName,
			StarCount:         repo.StarCount,
			AnalysisStatus:    string(repo.AnalysisStatus),
			ResultCount:       repo.ResultCount,
			ArtifactSizeBytes: repo.ArtifactSizeBytes,
			DownloadStatus:    string(status),
		}
	}
	return items, nil
}

// Cancel 置位取消旗标，监控循环在下一次轮询边界停止
func (s *VariantAnalysisService) Cancel(ctx context.Context, userID, analysisID int64, silent bool) error {
	va, err := s.getOwned(userID, analysisID)
	if err != nil {
		return err
	}
	if va.Status.IsTerminal() {
		return ErrAnalysisTerminal
	}
	return s.cancels.Set(ctx, analysisID, silent)
}

// Export 入队导出任务
func (s *VariantAnalysisService) Export(ctx context.Context, userID, analysisID int64, req *dto.ExportRequest) (*dto.ExportResponse, error) {
	if _, err := s.getOwned(userID, analysisID); err != nil {
		return nil, err
	}

	msg := &queue.TaskMessage{
		Type:       queue.TaskExport,
		AnalysisID: analysisID,
		UserID:     userID,
		Format:     req.Format,
		SortKey:    req.SortKey,
		FilterText: req.FilterText,
	}
	if err := s.taskQueue.Push(ctx, msg); err != nil {
		return nil, err
	}
	return &dto.ExportResponse{TaskID: msg.MessageID}, nil
}

func (s *VariantAnalysisService) getOwned(userID, analysisID int64) (*model.VariantAnalysis, error) {
	va, err := s.vaRepo.GetByID(analysisID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	if va.UserID != userID {
		return nil, ErrAnalysisPermission
	}
	return va, nil
}

// resolveRepos 解析目标仓库：显式列表优先，否则取仓库清单
func (s *VariantAnalysisService) resolveRepos(userID int64, req *dto.SubmitVariantAnalysisRequest) ([]string, error) {
	if len(req.Repos) > 0 {
		return req.Repos, nil
	}
	if req.RepoListID <= 0 {
		return nil, ErrNoRepos
	}

	list, err := s.listRepo.GetByID(req.RepoListID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRepoListNotFound
		}
		return nil, err
	}
	if list.UserID != userID {
		return nil, ErrRepoListNotFound
	}
	if len(list.Repos) == 0 {
		return nil, ErrNoRepos
	}
	return list.Repos, nil
}
