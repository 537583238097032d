package dto

// QuotaInfo 配额信息
type QuotaInfo struct {
	DailyLimit  int    `json:"daily_limit"`
	DailyUsed   int    `json:"daily_used"`
	DailyRemain int    `json:"daily_remain"`
	ResetAt     string `json:"reset_at"`
}

// RepoListItem 仓库清单列表项
type RepoListItem struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Repos     []string `json:"repos"`
	RepoCount int      `json:"repo_count"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}
