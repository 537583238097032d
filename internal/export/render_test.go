package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jsinglet/mrva_go_server/internal/model"
	"github.com/jsinglet/mrva_go_server/internal/resultcache"
)

func testAnalysis() *model.VariantAnalysis {
	return &model.VariantAnalysis{
		ID:            1,
		QueryName:     "FindSqlInjection.ql",
		QueryLanguage: "javascript",
	}
}

func TestBuildDescription(t *testing.T) {
	va := testAnalysis()

	tests := []struct {
		name    string
		results int
		repos   int
		want    string
	}{
		{"plural", 42, 3, "FindSqlInjection.ql (javascript) 42 results (3 repositories)"},
		{"singular", 1, 1, "FindSqlInjection.ql (javascript) 1 result (1 repository)"},
		{"zero results omits repos", 0, 0, "FindSqlInjection.ql (javascript) 0 results"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildDescription(va, tt.results, tt.repos))
		})
	}
}

func TestRepoFileName(t *testing.T) {
	assert.Equal(t, "octo-org-widgets.md", RepoFileName("octo-org/widgets"))
}

func TestExportDirName(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 30, 45, 0, time.UTC)
	assert.Equal(t, "results_20240601T123045Z", ExportDirName(now))

	// 非 UTC 时间按 UTC 归一化
	loc := time.FixedZone("UTC+8", 8*3600)
	assert.Equal(t, "results_20240601T123045Z", ExportDirName(time.Date(2024, 6, 1, 20, 30, 45, 0, loc)))
}

func TestRenderRepoMarkdown(t *testing.T) {
	repo := &model.ScannedRepository{FullName: "octo-org/widgets"}
	rs := &resultcache.ResultSet{
		FullName: "octo-org/widgets",
		Results: []resultcache.Result{
			{Message: "Tainted input reaches query", Path: "src/db.js", StartLine: 10, EndLine: 12, Link: "https://example.com/blob"},
			{Message: "Second finding", Path: "src/api.js", StartLine: 3},
		},
	}

	md := RenderRepoMarkdown(repo, rs)
	assert.Contains(t, md, "### octo-org/widgets")
	assert.Contains(t, md, "[src/db.js:10-12](https://example.com/blob)")
	assert.Contains(t, md, "src/api.js:3")
	assert.Contains(t, md, "Tainted input reaches query")
	assert.Contains(t, md, "----------------------------------------")
}

func TestRenderRepoMarkdown_Empty(t *testing.T) {
	repo := &model.ScannedRepository{FullName: "octo-org/widgets"}
	md := RenderRepoMarkdown(repo, &resultcache.ResultSet{FullName: "octo-org/widgets"})
	assert.Contains(t, md, "No results.")
}

func TestRenderSummary(t *testing.T) {
	entries := []SummaryEntry{
		{FullName: "octo-org/a", ResultCount: 5, FileName: "octo-org-a.md"},
		{FullName: "octo-org/b", ResultCount: 2, FileName: "octo-org-b.md"},
	}

	md := RenderSummary("FindSqlInjection.ql (javascript) 7 results (2 repositories)", entries)
	assert.Contains(t, md, "## FindSqlInjection.ql (javascript) 7 results (2 repositories)")
	assert.Contains(t, md, "| [octo-org/a](./octo-org-a.md) | 5 |")
	assert.Contains(t, md, "| [octo-org/b](./octo-org-b.md) | 2 |")
}

func TestRenderSummary_NoEntries(t *testing.T) {
	md := RenderSummary("FindSqlInjection.ql (javascript) 0 results", nil)
	assert.Contains(t, md, "No repositories with results.")
}
