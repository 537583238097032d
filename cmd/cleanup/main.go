package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jsinglet/mrva_go_server/config"
)

var (
	dryRun       = flag.Bool("dry-run", true, "Dry run mode, don't actually delete files")
	cacheExpire  = flag.Int("cache-expire", 7, "Days to keep cached result artifacts")
	exportExpire = flag.Int("export-expire", 30, "Days to keep local export directories")
	cleanCache   = flag.Bool("clean-cache", true, "Clean expired result cache entries")
	cleanExports = flag.Bool("clean-exports", true, "Clean expired export directories")
)

func main() {
	flag.Parse()

	log.Println("🧹 Starting cleanup task...")
	log.Printf("Mode: dry-run=%v", *dryRun)

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	totalSize := int64(0)
	deletedSize := int64(0)
	totalFiles := 0
	deletedFiles := 0

	// 1. 清理过期的结果缓存
	if *cleanCache {
		log.Printf("\n📦 Cleaning result cache entries (older than %d days)...", *cacheExpire)
		size, count := cleanExpiredDirs(cfg.Cache.Dir, "", *cacheExpire, *dryRun)
		deletedSize += size
		deletedFiles += count
	}

	// 2. 清理过期的导出目录
	if *cleanExports {
		log.Printf("\n📄 Cleaning export directories (older than %d days)...", *exportExpire)
		size, count := cleanExpiredDirs(cfg.Export.OutputDir, "results_", *exportExpire, *dryRun)
		deletedSize += size
		deletedFiles += count
	}

	// 3. 统计当前占用
	log.Println("\n📈 Scanning current disk usage...")
	for _, dir := range []string{cfg.Cache.Dir, cfg.Export.OutputDir} {
		filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err == nil && !info.IsDir() {
				totalSize += info.Size()
				totalFiles++
			}
			return nil
		})
	}

	// 输出统计
	log.Println("\n" + strings.Repeat("=", 60))
	log.Println("📊 Cleanup Summary")
	log.Println(strings.Repeat("=", 60))
	log.Printf("Total files: %d", totalFiles)
	log.Printf("Total size: %s", formatSize(totalSize))
	log.Printf("Deleted dirs: %d", deletedFiles)
	log.Printf("Freed space: %s", formatSize(deletedSize))
	if *dryRun {
		log.Println("\n⚠️  DRY RUN MODE - No files were actually deleted")
		log.Println("   Run with -dry-run=false to actually delete files")
	} else {
		log.Println("\n✅ Cleanup completed!")
	}
	log.Println(strings.Repeat("=", 60))
}

// cleanExpiredDirs 清理根目录下超过保留期的子目录，prefix 为空时不过滤
func cleanExpiredDirs(root, prefix string, expireDays int, dryRun bool) (int64, int) {
	expireTime := time.Now().Add(-time.Duration(expireDays) * 24 * time.Hour)
	var totalSize int64
	var count int

	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Failed to read dir %s: %v", root, err)
		}
		return 0, 0
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if prefix != "" && !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}

		dirPath := filepath.Join(root, entry.Name())
		info, err := entry.Info()
		if err != nil || info.ModTime().After(expireTime) {
			continue
		}

		size := dirSize(dirPath)
		if dryRun {
			log.Printf("[DRY RUN] Would delete %s (%s)", dirPath, formatSize(size))
		} else {
			if err := os.RemoveAll(dirPath); err != nil {
				log.Printf("Failed to remove %s: %v", dirPath, err)
				continue
			}
			log.Printf("Deleted %s (%s)", dirPath, formatSize(size))
		}
		totalSize += size
		count++
	}
	return totalSize, count
}

func dirSize(dir string) int64 {
	var size int64
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGT"[exp])
}
