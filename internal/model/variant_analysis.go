package model

import (
	"time"
)

// VariantAnalysisStatus 变体分析任务整体状态
type VariantAnalysisStatus string

const (
	StatusInProgress VariantAnalysisStatus = "in_progress"
	StatusSucceeded  VariantAnalysisStatus = "succeeded"
	StatusFailed     VariantAnalysisStatus = "failed"
	StatusCanceled   VariantAnalysisStatus = "canceled"
)

// IsTerminal 是否为终态（不再轮询）
func (s VariantAnalysisStatus) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCanceled
}

// FailureReason 远程失败原因的有界分类
type FailureReason string

const (
	FailureNone           FailureReason = ""
	FailureNoReposQueried FailureReason = "no_repos_queried"
	FailureInternalError  FailureReason = "internal_error"
	FailureRateLimited    FailureReason = "rate_limited"
	FailureUnknown        FailureReason = "unknown"
)

// RepoTaskStatus 单仓库分析状态
type RepoTaskStatus string

const (
	RepoStatusPending    RepoTaskStatus = "pending"
	RepoStatusInProgress RepoTaskStatus = "in_progress"
	RepoStatusSucceeded  RepoTaskStatus = "succeeded"
	RepoStatusFailed     RepoTaskStatus = "failed"
)

// IsTerminal 单仓库分析是否已结束
func (s RepoTaskStatus) IsTerminal() bool {
	return s == RepoStatusSucceeded || s == RepoStatusFailed
}

// VariantAnalysis 一次针对多仓库的查询运行
// 状态与失败原因只由监控循环修改；仓库集合通过快照合并更新
type VariantAnalysis struct {
	ID             int64                 `gorm:"primaryKey" json:"id"`
	RemoteID       int64                 `gorm:"not null;uniqueIndex" json:"remote_id"`
	UserID         int64                 `gorm:"not null;index" json:"user_id"`
	ControllerRepo string                `gorm:"size:200;not null" json:"controller_repo"`
	QueryName      string                `gorm:"size:200;not null" json:"query_name"`
	QueryID        string                `gorm:"size:200" json:"query_id,omitempty"`
	QueryLanguage  string                `gorm:"size:50;not null" json:"query_language"`
	Status         VariantAnalysisStatus `gorm:"size:20;default:in_progress;index" json:"status"`
	FailureReason  FailureReason         `gorm:"size:50" json:"failure_reason,omitempty"`
	CreatedAt      time.Time             `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	CompletedAt    *time.Time            `json:"completed_at,omitempty"`

	// 关联
	Repos []ScannedRepository `gorm:"foreignKey:VariantAnalysisID" json:"scanned_repositories,omitempty"`
}

func (VariantAnalysis) TableName() string {
	return "variant_analyses"
}

// Clone 深拷贝，快照合并产生新值时使用
func (v *VariantAnalysis) Clone() *VariantAnalysis {
	dup := *v
	if v.CompletedAt != nil {
		t := *v.CompletedAt
		dup.CompletedAt = &t
	}
	dup.Repos = make([]ScannedRepository, len(v.Repos))
	copy(dup.Repos, v.Repos)
	return &dup
}

// RepoByID 按仓库 ID 查找，快照可能重排所以不能按下标
func (v *VariantAnalysis) RepoByID(repoID int64) *ScannedRepository {
	for i := range v.Repos {
		if v.Repos[i].RepoID == repoID {
			return &v.Repos[i]
		}
	}
	return nil
}

// ScannedRepository 任务内的单个目标仓库，按 (analysis, repo id) 唯一
type ScannedRepository struct {
	ID                int64          `gorm:"primaryKey" json:"-"`
	VariantAnalysisID int64          `gorm:"not null;index:idx_va_repo,unique" json:"variant_analysis_id"`
	RepoID            int64          `gorm:"not null;index:idx_va_repo,unique" json:"repo_id"`
	FullName          string         `gorm:"size:200;not null" json:"full_name"`
	Private           bool           `json:"private"`
	StarCount         int            `json:"star_count"`
	RepoUpdatedAt     *time.Time     `json:"repo_updated_at,omitempty"`
	AnalysisStatus    RepoTaskStatus `gorm:"size:20;default:pending" json:"analysis_status"`
	ResultCount       int            `json:"result_count"`
	ArtifactSizeBytes int64          `json:"artifact_size_bytes"`
	FailureMessage    string         `gorm:"type:text" json:"failure_message,omitempty"`
}

func (ScannedRepository) TableName() string {
	return "scanned_repositories"
}

// DownloadStatus 结果工件下载状态，与分析状态相互独立
type DownloadStatus string

const (
	DownloadNone       DownloadStatus = "none"
	DownloadInProgress DownloadStatus = "in_progress"
	DownloadSucceeded  DownloadStatus = "succeeded"
	DownloadFailed     DownloadStatus = "failed"
)

// RepoDownload 按 (analysis, repo) 记录工件下载进度
type RepoDownload struct {
	ID                int64          `gorm:"primaryKey" json:"id"`
	VariantAnalysisID int64          `gorm:"not null;index:idx_va_dl,unique" json:"variant_analysis_id"`
	RepoID            int64          `gorm:"not null;index:idx_va_dl,unique" json:"repo_id"`
	FullName          string         `gorm:"size:200;not null" json:"full_name"`
	Status            DownloadStatus `gorm:"size:20;default:none;index" json:"status"`
	ArtifactPath      string         `gorm:"size:500" json:"artifact_path,omitempty"`
	ArtifactOSSURL    string         `gorm:"size:500" json:"artifact_oss_url,omitempty"`
	SizeBytes         int64          `json:"size_bytes"`
	ErrorMessage      string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	StartedAt         *time.Time     `json:"started_at,omitempty"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
}

func (RepoDownload) TableName() string {
	return "repo_downloads"
}
