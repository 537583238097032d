package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jsinglet/mrva_go_server/internal/model"
)

type DownloadRepository struct {
	db *gorm.DB
}

func NewDownloadRepository(db *gorm.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Start 标记下载开始，按 (variant_analysis_id, repo_id) upsert
func (r *DownloadRepository) Start(analysisID, repoID int64, fullName string) (*model.RepoDownload, error) {
	now := time.Now()
	dl := &model.RepoDownload{
		VariantAnalysisID: analysisID,
		RepoID:            repoID,
		FullName:          fullName,
		Status:            model.DownloadInProgress,
		StartedAt:         &now,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "variant_analysis_id"}, {Name: "repo_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "started_at", "error_message",
		}),
	}).Create(dl).Error
	if err != nil {
		return nil, err
	}
	return dl, nil
}

// MarkSucceeded 标记下载成功
func (r *DownloadRepository) MarkSucceeded(analysisID, repoID int64, artifactPath, ossURL string, sizeBytes int64) error {
	now := time.Now()
	return r.db.Model(&model.RepoDownload{}).
		Where("variant_analysis_id = ? AND repo_id = ?", analysisID, repoID).
		Updates(map[string]interface{}{
			"status":           model.DownloadSucceeded,
			"artifact_path":    artifactPath,
			"artifact_oss_url": ossURL,
			"size_bytes":       sizeBytes,
			"error_message":    "",
			"completed_at":     &now,
		}).Error
}

// MarkFailed 标记下载失败
func (r *DownloadRepository) MarkFailed(analysisID, repoID int64, errMsg string) error {
	now := time.Now()
	return r.db.Model(&model.RepoDownload{}).
		Where("variant_analysis_id = ? AND repo_id = ?", analysisID, repoID).
		Updates(map[string]interface{}{
			"status":        model.DownloadFailed,
			"error_message": errMsg,
			"completed_at":  &now,
		}).Error
}

func (r *DownloadRepository) GetByAnalysisAndRepo(analysisID, repoID int64) (*model.RepoDownload, error) {
	var dl model.RepoDownload
	err := r.db.Where("variant_analysis_id = ? AND repo_id = ?", analysisID, repoID).First(&dl).Error
	if err != nil {
		return nil, err
	}
	return &dl, nil
}

func (r *DownloadRepository) ListByAnalysis(analysisID int64) ([]*model.RepoDownload, error) {
	var downloads []*model.RepoDownload
	err := r.db.Where("variant_analysis_id = ?", analysisID).Find(&downloads).Error
	return downloads, err
}

// ListDispatchedRepoIDs 已触发过下载的仓库 ID 集合，worker 重启后用于去重
func (r *DownloadRepository) ListDispatchedRepoIDs(analysisID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&model.RepoDownload{}).
		Where("variant_analysis_id = ?", analysisID).
		Pluck("repo_id", &ids).Error
	return ids, err
}

// ListSucceededByAnalysis 下载成功的仓库，导出管线的筛选基础
func (r *DownloadRepository) ListSucceededByAnalysis(analysisID int64) ([]*model.RepoDownload, error) {
	var downloads []*model.RepoDownload
	err := r.db.Where("variant_analysis_id = ? AND status = ?", analysisID, model.DownloadSucceeded).
		Find(&downloads).Error
	return downloads, err
}
