package export

import (
	"github.com/jsinglet/mrva_go_server/internal/model"
	"github.com/jsinglet/mrva_go_server/internal/resultcache"
)

// RepoResults 惰性结果序列
// 每次 Next 只加载一个仓库的结果文件，整个导出过程中内存里至多持有一份结果集
type RepoResults struct {
	cache      *resultcache.Cache
	analysisID int64
	repos      []model.ScannedRepository
	next       int
}

// NewRepoResults 创建序列，repos 应为已筛选排序后的仓库列表
func NewRepoResults(cache *resultcache.Cache, analysisID int64, repos []model.ScannedRepository) *RepoResults {
	return &RepoResults{cache: cache, analysisID: analysisID, repos: repos}
}

// Len 序列包含的仓库数
func (s *RepoResults) Len() int {
	return len(s.repos)
}

// Next 返回下一个 (仓库, 结果集)，序列耗尽时 ok 为 false
func (s *RepoResults) Next() (repo *model.ScannedRepository, rs *resultcache.ResultSet, ok bool, err error) {
	if s.next >= len(s.repos) {
		return nil, nil, false, nil
	}
	r := &s.repos[s.next]
	s.next++
	set, err := s.cache.LoadResults(s.analysisID, r.FullName, true)
	if err != nil {
		return nil, nil, false, err
	}
	return r, set, true, nil
}
