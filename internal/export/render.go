package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jsinglet/mrva_go_server/internal/model"
	"github.com/jsinglet/mrva_go_server/internal/resultcache"
)

// SummaryEntry 汇总文件中的一行
type SummaryEntry struct {
	FullName    string
	ResultCount int
	FileName    string
}

// BuildDescription 生成导出描述
// 形如 "FindSqlInjection.ql (javascript) 42 results (3 repositories)"
// 没有可导出仓库时省略括号部分
func BuildDescription(va *model.VariantAnalysis, totalResults, repoCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) %d %s", va.QueryName, va.QueryLanguage, totalResults, plural(totalResults, "result", "results"))
	if repoCount > 0 {
		fmt.Fprintf(&b, " (%d %s)", repoCount, plural(repoCount, "repository", "repositories"))
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// RepoFileName 仓库结果文件名，斜杠替换为连字符
func RepoFileName(fullName string) string {
	return strings.ReplaceAll(fullName, "/", "-") + ".md"
}

// ExportDirName 本地导出目录名，UTC 紧凑时间戳保证可排序且不冲突
func ExportDirName(now time.Time) string {
	return "results_" + now.UTC().Format("20060102T150405Z")
}

// RenderRepoMarkdown 渲染单个仓库的结果 Markdown
func RenderRepoMarkdown(repo *model.ScannedRepository, rs *resultcache.ResultSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", repo.FullName)
	if rs == nil || len(rs.Results) == 0 {
		b.WriteString("No results.\n")
		return b.String()
	}
	for i, r := range rs.Results {
		if i > 0 {
			b.WriteString("\n----------------------------------------\n\n")
		}
		location := r.Path
		if r.StartLine > 0 {
			location = fmt.Sprintf("%s:%d", r.Path, r.StartLine)
			if r.EndLine > r.StartLine {
				location = fmt.Sprintf("%s:%d-%d", r.Path, r.StartLine, r.EndLine)
			}
		}
		if r.Link != "" {
			fmt.Fprintf(&b, "[%s](%s)\n\n", location, r.Link)
		} else {
			fmt.Fprintf(&b, "%s\n\n", location)
		}
		b.WriteString(r.Message)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderSummary 渲染 _summary.md
func RenderSummary(description string, entries []SummaryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", description)
	if len(entries) == 0 {
		b.WriteString("No repositories with results.\n")
		return b.String()
	}
	b.WriteString("| Repository | Results |\n")
	b.WriteString("| --- | --- |\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "| [%s](./%s) | %d |\n", e.FullName, e.FileName, e.ResultCount)
	}
	return b.String()
}
