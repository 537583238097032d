package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/jsinglet/mrva_go_server/internal/model"
)

// TestVariantAnalysis 创建测试变体分析
func TestVariantAnalysis(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.VariantAnalysis)) *model.VariantAnalysis {
	t.Helper()

	va := &model.VariantAnalysis{
		RemoteID:       time.Now().UnixNano(),
		UserID:         userID,
		ControllerRepo: "octo-org/controller",
		QueryName:      "FindSqlInjection.ql",
		QueryID:        "js/sql-injection",
		QueryLanguage:  "javascript",
		Status:         model.StatusInProgress,
	}

	for _, opt := range opts {
		opt(va)
	}

	if err := db.Create(va).Error; err != nil {
		t.Fatalf("Failed to create test variant analysis: %v", err)
	}

	return va
}

// WithStatus 设置整体状态
func WithStatus(status model.VariantAnalysisStatus) func(*model.VariantAnalysis) {
	return func(va *model.VariantAnalysis) {
		va.Status = status
	}
}

// WithQuery 设置查询信息
func WithQuery(name, language string) func(*model.VariantAnalysis) {
	return func(va *model.VariantAnalysis) {
		va.QueryName = name
		va.QueryLanguage = language
	}
}

// WithRemoteID 设置远程任务 ID
func WithRemoteID(remoteID int64) func(*model.VariantAnalysis) {
	return func(va *model.VariantAnalysis) {
		va.RemoteID = remoteID
	}
}

// TestScannedRepo 创建测试目标仓库
func TestScannedRepo(t *testing.T, db *gorm.DB, analysisID, repoID int64, status model.RepoTaskStatus, opts ...func(*model.ScannedRepository)) *model.ScannedRepository {
	t.Helper()

	repo := &model.ScannedRepository{
		VariantAnalysisID: analysisID,
		RepoID:            repoID,
		FullName:          fmt.Sprintf("octo-org/repo-%d", repoID),
		AnalysisStatus:    status,
	}

	for _, opt := range opts {
		opt(repo)
	}

	if err := db.Create(repo).Error; err != nil {
		t.Fatalf("Failed to create test scanned repository: %v", err)
	}

	return repo
}

// WithResultCount 设置结果数量
func WithResultCount(count int) func(*model.ScannedRepository) {
	return func(r *model.ScannedRepository) {
		r.ResultCount = count
	}
}

// WithStars 设置星标数量
func WithStars(stars int) func(*model.ScannedRepository) {
	return func(r *model.ScannedRepository) {
		r.StarCount = stars
	}
}

// WithFullName 设置仓库全名
func WithFullName(fullName string) func(*model.ScannedRepository) {
	return func(r *model.ScannedRepository) {
		r.FullName = fullName
	}
}

// TestDownload 创建测试下载记录
func TestDownload(t *testing.T, db *gorm.DB, analysisID, repoID int64, status model.DownloadStatus) *model.RepoDownload {
	t.Helper()

	dl := &model.RepoDownload{
		VariantAnalysisID: analysisID,
		RepoID:            repoID,
		FullName:          fmt.Sprintf("octo-org/repo-%d", repoID),
		Status:            status,
	}

	if err := db.Create(dl).Error; err != nil {
		t.Fatalf("Failed to create test download: %v", err)
	}

	return dl
}

// TestRepoList 创建测试仓库清单
func TestRepoList(t *testing.T, db *gorm.DB, userID int64, name string, repos []string) *model.RepoList {
	t.Helper()

	list := &model.RepoList{
		UserID: userID,
		Name:   name,
		Repos:  repos,
	}

	if err := db.Create(list).Error; err != nil {
		t.Fatalf("Failed to create test repo list: %v", err)
	}

	return list
}
