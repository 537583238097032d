package dto

// SubmitVariantAnalysisRequest 提交变体分析请求
type SubmitVariantAnalysisRequest struct {
	ControllerRepo string   `json:"controller_repo" binding:"required,max=200"`
	QueryName      string   `json:"query_name" binding:"required,max=200"`
	QueryID        string   `json:"query_id,omitempty" binding:"omitempty,max=200"`
	QueryLanguage  string   `json:"query_language" binding:"required,max=50"`
	QueryPack      string   `json:"query_pack" binding:"required"` // base64 编码的查询包
	Repos          []string `json:"repos,omitempty" binding:"omitempty,dive,max=200"`
	RepoListID     int64    `json:"repo_list_id,omitempty"`
}

// SubmitVariantAnalysisResponse 提交变体分析响应
type SubmitVariantAnalysisResponse struct {
	AnalysisID int64 `json:"analysis_id"`
	RemoteID   int64 `json:"remote_id"`
}

// VariantAnalysisListItem 变体分析列表项
type VariantAnalysisListItem struct {
	ID            int64  `json:"id"`
	QueryName     string `json:"query_name"`
	QueryLanguage string `json:"query_language"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	RepoCount     int    `json:"repo_count"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// ScannedRepoItem 仓库详情项，带下载状态
type ScannedRepoItem struct {
	RepoID            int64  `json:"repo_id"`
	FullName          string `json:"full_name"`
	StarCount         int    `json:"star_count"`
	AnalysisStatus    string `json:"analysis_status"`
	ResultCount       int    `json:"result_count"`
	ArtifactSizeBytes int64  `json:"artifact_size_bytes"`
	DownloadStatus    string `json:"download_status"`
}
