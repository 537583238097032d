package export

import (
	"sort"
	"strings"

	"github.com/jsinglet/mrva_go_server/internal/model"
)

// SortKey 仓库排序维度
type SortKey string

const (
	SortByName    SortKey = "name"
	SortByResults SortKey = "results"
	SortByStars   SortKey = "stars"
	SortByUpdated SortKey = "updated"
)

// Criteria 导出筛选与排序条件
type Criteria struct {
	SortKey    SortKey
	FilterText string
}

// NormalizeCriteria 校正非法排序键，空值回退到按名称排序
func NormalizeCriteria(sortKey, filterText string) Criteria {
	key := SortKey(sortKey)
	switch key {
	case SortByName, SortByResults, SortByStars, SortByUpdated:
	default:
		key = SortByName
	}
	return Criteria{SortKey: key, FilterText: filterText}
}

// SelectRepos 按条件挑选可导出的仓库并排序
// 仅保留有结果且结果文件已成功落盘的仓库，原切片不被修改
func SelectRepos(repos []model.ScannedRepository, downloads map[int64]model.DownloadStatus, c Criteria) []model.ScannedRepository {
	filter := strings.ToLower(strings.TrimSpace(c.FilterText))
	selected := make([]model.ScannedRepository, 0, len(repos))
	for _, repo := range repos {
		if repo.ResultCount <= 0 {
			continue
		}
		if downloads[repo.RepoID] != model.DownloadSucceeded {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(repo.FullName), filter) {
			continue
		}
		selected = append(selected, repo)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		a, b := selected[i], selected[j]
		switch c.SortKey {
		case SortByResults:
			if a.ResultCount != b.ResultCount {
				return a.ResultCount > b.ResultCount
			}
		case SortByStars:
			if a.StarCount != b.StarCount {
				return a.StarCount > b.StarCount
			}
		case SortByUpdated:
			au, bu := a.RepoUpdatedAt, b.RepoUpdatedAt
			switch {
			case au == nil && bu != nil:
				return false
			case au != nil && bu == nil:
				return true
			case au != nil && bu != nil && !au.Equal(*bu):
				return au.After(*bu)
			}
		}
		return a.FullName < b.FullName
	})
	return selected
}
