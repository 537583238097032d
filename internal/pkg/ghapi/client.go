package ghapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Repository 目标仓库的线上表示
type Repository struct {
	ID              int64  `json:"id"`
	FullName        string `json:"full_name"`
	Private         bool   `json:"private"`
	StargazersCount int    `json:"stargazers_count"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// ScannedRepoTask 单仓库分析条目的线上表示
type ScannedRepoTask struct {
	Repository          Repository `json:"repository"`
	AnalysisStatus      string     `json:"analysis_status"`
	ResultCount         *int       `json:"result_count,omitempty"`
	ArtifactSizeInBytes *int64     `json:"artifact_size_in_bytes,omitempty"`
	FailureMessage      string     `json:"failure_message,omitempty"`
}

// VariantAnalysisResponse 任务状态快照的线上表示
type VariantAnalysisResponse struct {
	ID                  int64             `json:"id"`
	ControllerRepo      Repository        `json:"controller_repo"`
	QueryLanguage       string            `json:"query_language"`
	QueryPackURL        string            `json:"query_pack_url,omitempty"`
	Status              string            `json:"status"` // in_progress, succeeded, failed, cancelled
	FailureReason       string            `json:"failure_reason,omitempty"`
	ScannedRepositories []ScannedRepoTask `json:"scanned_repositories"`
	CreatedAt           string            `json:"created_at,omitempty"`
	UpdatedAt           string            `json:"updated_at,omitempty"`
	CompletedAt         string            `json:"completed_at,omitempty"`
}

// RepoTaskResponse 单仓库任务详情，含工件下载地址
type RepoTaskResponse struct {
	Repository          Repository `json:"repository"`
	AnalysisStatus      string     `json:"analysis_status"`
	ArtifactSizeInBytes *int64     `json:"artifact_size_in_bytes,omitempty"`
	ArtifactURL         string     `json:"artifact_url,omitempty"`
}

// SubmitRequest 提交变体分析请求体
type SubmitRequest struct {
	Language     string   `json:"language"`
	QueryPack    string   `json:"query_pack"` // base64 编码的 tarball
	Repositories []string `json:"repositories"`
}

// GistFile 上传到 Gist 的单个文件
type GistFile struct {
	Content string `json:"content"`
}

// Client 远程变体分析服务客户端
type Client struct {
	baseURL string
	http    *http.Client
	// 工件 URL 带签名，附加 Authorization 头会被对象存储拒绝
	plain *http.Client
}

// NewClient 创建客户端，token 通过 oauth2 静态令牌源注入
func NewClient(baseURL, token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{
		baseURL: baseURL,
		http:    oauth2.NewClient(context.Background(), ts),
		plain:   &http.Client{Timeout: 5 * time.Minute},
	}
}

// FetchStatus 获取任务状态快照
// GET /repositories/{controller}/code-scanning/codeql/variant-analyses/{id}
func (c *Client) FetchStatus(ctx context.Context, controllerRepo string, remoteID int64) (*VariantAnalysisResponse, error) {
	url := fmt.Sprintf("%s/repos/%s/code-scanning/codeql/variant-analyses/%d", c.baseURL, controllerRepo, remoteID)

	var resp VariantAnalysisResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch variant analysis %d: %w", remoteID, err)
	}
	return &resp, nil
}

// Submit 提交变体分析
func (c *Client) Submit(ctx context.Context, controllerRepo string, req *SubmitRequest) (*VariantAnalysisResponse, error) {
	url := fmt.Sprintf("%s/repos/%s/code-scanning/codeql/variant-analyses", c.baseURL, controllerRepo)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submit request: %w", err)
	}

	var resp VariantAnalysisResponse
	if err := c.postJSON(ctx, url, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to submit variant analysis: %w", err)
	}
	return &resp, nil
}

// FetchRepoTask 获取单仓库任务详情（含 artifact_url）
func (c *Client) FetchRepoTask(ctx context.Context, controllerRepo string, remoteID int64, repoFullName string) (*RepoTaskResponse, error) {
	url := fmt.Sprintf("%s/repos/%s/code-scanning/codeql/variant-analyses/%d/repositories/%s",
		c.baseURL, controllerRepo, remoteID, repoFullName)

	var resp RepoTaskResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch repo task for %s: %w", repoFullName, err)
	}
	return &resp, nil
}

// DownloadArtifact 下载结果工件，URL 来自 FetchRepoTask
func (c *Client) DownloadArtifact(ctx context.Context, artifactURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artifactURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.plain.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("artifact download error (%d): %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// CreateGist 创建 Gist 并返回访问 URL
func (c *Client) CreateGist(ctx context.Context, description string, files map[string]GistFile) (string, error) {
	payload := struct {
		Description string              `json:"description"`
		Public      bool                `json:"public"`
		Files       map[string]GistFile `json:"files"`
	}{
		Description: description,
		Public:      false,
		Files:       files,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal gist request: %w", err)
	}

	var resp struct {
		HTMLURL string `json:"html_url"`
	}
	if err := c.postJSON(ctx, c.baseURL+"/gists", body, &resp); err != nil {
		return "", fmt.Errorf("failed to create gist: %w", err)
	}
	return resp.HTMLURL, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("github api error (%d): %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(ctx context.Context, url string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("github api error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
