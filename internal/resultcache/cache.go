package resultcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Result 单条查询结果行
type Result struct {
	Message   string `json:"message"`
	Path      string `json:"path,omitempty"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
	Link      string `json:"link,omitempty"`
}

// ResultSet 单仓库的已解码结果工件
type ResultSet struct {
	FullName string   `json:"full_name"`
	Results  []Result `json:"results"`
}

// Cache 结果工件本地缓存
// 按 (analysis id, repo full name) 取键，条目只写一次不原地更新，
// 所以监控写入与导出读取可以安全并发
type Cache struct {
	dir string

	mu   sync.RWMutex
	hot  map[string]*ResultSet // 进程内热缓存
}

func New(dir string) *Cache {
	return &Cache{
		dir: dir,
		hot: make(map[string]*ResultSet),
	}
}

// Store 写入一个仓库的工件，已存在时为无操作
func (c *Cache) Store(analysisID int64, fullName string, rs *ResultSet) (string, error) {
	path := c.entryPath(analysisID, fullName)

	if _, err := os.Stat(path); err == nil {
		return path, nil // 追加写一次语义：已有条目不覆盖
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create cache dir: %w", err)
	}

	data, err := json.Marshal(rs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result set: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write cache entry: %w", err)
	}

	return path, nil
}

// LoadResults 读取一个仓库的已解码工件
// skipCacheStore 为 true 时不放入进程内热缓存（大批量导出时约束内存）
func (c *Cache) LoadResults(analysisID int64, fullName string, skipCacheStore bool) (*ResultSet, error) {
	key := c.entryKey(analysisID, fullName)

	c.mu.RLock()
	if rs, ok := c.hot[key]; ok {
		c.mu.RUnlock()
		return rs, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(c.entryPath(analysisID, fullName))
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry for %s: %w", fullName, err)
	}

	var rs ResultSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry for %s: %w", fullName, err)
	}

	if !skipCacheStore {
		c.mu.Lock()
		c.hot[key] = &rs
		c.mu.Unlock()
	}

	return &rs, nil
}

// Has 条目是否存在
func (c *Cache) Has(analysisID int64, fullName string) bool {
	_, err := os.Stat(c.entryPath(analysisID, fullName))
	return err == nil
}

// EntryPath 条目的磁盘路径
func (c *Cache) EntryPath(analysisID int64, fullName string) string {
	return c.entryPath(analysisID, fullName)
}

// CleanupOlderThan 删除超过保留期的缓存条目，返回删除数量
func (c *Cache) CleanupOlderThan(retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	deleted := 0

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dirPath := filepath.Join(c.dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.RemoveAll(dirPath); err == nil {
				deleted++
			}
		}
	}

	// 热缓存整体失效，下次读取回源磁盘
	if deleted > 0 {
		c.mu.Lock()
		c.hot = make(map[string]*ResultSet)
		c.mu.Unlock()
	}

	return deleted, nil
}

func (c *Cache) entryKey(analysisID int64, fullName string) string {
	return fmt.Sprintf("%d/%s", analysisID, fullName)
}

func (c *Cache) entryPath(analysisID int64, fullName string) string {
	name := strings.ReplaceAll(fullName, "/", "-") + ".json"
	return filepath.Join(c.dir, fmt.Sprintf("%d", analysisID), name)
}
