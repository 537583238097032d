package dto

// ExportRequest 导出请求
// format: gist 或 local；sort_key: name/results/stars/updated
type ExportRequest struct {
	Format     string `json:"format" binding:"required,oneof=gist local"`
	SortKey    string `json:"sort_key,omitempty" binding:"omitempty,oneof=name results stars updated"`
	FilterText string `json:"filter_text,omitempty" binding:"omitempty,max=200"`
}

// ExportResponse 导出响应
type ExportResponse struct {
	TaskID string `json:"task_id"`
}

// RepoListRequest 创建/更新仓库清单请求
type RepoListRequest struct {
	Name  string   `json:"name" binding:"required,max=200"`
	Repos []string `json:"repos" binding:"required,min=1,dive,max=200"`
}

// TokenRequest API Key 换取 JWT 请求
type TokenRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// TokenResponse 令牌响应
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // 秒
}
