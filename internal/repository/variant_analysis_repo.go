package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jsinglet/mrva_go_server/internal/model"
)

type VariantAnalysisRepository struct {
	db *gorm.DB
}

func NewVariantAnalysisRepository(db *gorm.DB) *VariantAnalysisRepository {
	return &VariantAnalysisRepository{db: db}
}

func (r *VariantAnalysisRepository) Create(va *model.VariantAnalysis) error {
	return r.db.Create(va).Error
}

// GetByID 获取变体分析，含仓库集合
func (r *VariantAnalysisRepository) GetByID(id int64) (*model.VariantAnalysis, error) {
	var va model.VariantAnalysis
	err := r.db.Preload("Repos").Where("id = ?", id).First(&va).Error
	if err != nil {
		return nil, err
	}
	return &va, nil
}

func (r *VariantAnalysisRepository) GetByRemoteID(remoteID int64) (*model.VariantAnalysis, error) {
	var va model.VariantAnalysis
	err := r.db.Preload("Repos").Where("remote_id = ?", remoteID).First(&va).Error
	if err != nil {
		return nil, err
	}
	return &va, nil
}

// ListByUserID 分页获取用户的变体分析
func (r *VariantAnalysisRepository) ListByUserID(userID int64, page, pageSize int, status string) ([]*model.VariantAnalysis, int64, error) {
	query := r.db.Model(&model.VariantAnalysis{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var analyses []*model.VariantAnalysis
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&analyses).Error
	return analyses, total, err
}

func (r *VariantAnalysisRepository) UpdateStatus(id int64, status model.VariantAnalysisStatus) error {
	return r.db.Model(&model.VariantAnalysis{}).Where("id = ?", id).Update("status", status).Error
}

// SaveSnapshot 持久化监控循环合并后的任务状态
// 仓库行按 (variant_analysis_id, repo_id) upsert，快照可能新增或重排条目
func (r *VariantAnalysisRepository) SaveSnapshot(va *model.VariantAnalysis) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":         va.Status,
			"failure_reason": va.FailureReason,
			"completed_at":   va.CompletedAt,
		}
		if err := tx.Model(&model.VariantAnalysis{}).Where("id = ?", va.ID).Updates(updates).Error; err != nil {
			return err
		}

		for i := range va.Repos {
			repo := &va.Repos[i]
			repo.VariantAnalysisID = va.ID
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "variant_analysis_id"}, {Name: "repo_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"full_name", "private", "star_count", "repo_updated_at",
					"analysis_status", "result_count", "artifact_size_bytes", "failure_message",
				}),
			}).Create(repo).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ListStuck 获取长时间未更新的进行中任务，用于重新入队
func (r *VariantAnalysisRepository) ListStuck(olderThan time.Duration, limit int) ([]*model.VariantAnalysis, error) {
	cutoff := time.Now().Add(-olderThan)
	var analyses []*model.VariantAnalysis
	err := r.db.Where("status = ? AND updated_at < ?", model.StatusInProgress, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&analyses).Error
	return analyses, err
}
