package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	OSS      OSSConfig      `mapstructure:"oss"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Export   ExportConfig   `mapstructure:"export"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Quota    QuotaConfig    `mapstructure:"quota"`
	Email    EmailConfig    `mapstructure:"email"`
	APIKeys  []APIKeyConfig `mapstructure:"api_keys"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

// GitHubConfig 远程变体分析服务的访问配置
type GitHubConfig struct {
	APIBaseURL string `mapstructure:"api_base_url"` // 默认 https://api.github.com
	Token      string `mapstructure:"token"`
}

// MonitorConfig 监控轮询配置，测试可覆盖为接近零的值
type MonitorConfig struct {
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
	MaxAttempts         int `mapstructure:"max_attempts"`
}

// PollInterval 轮询间隔
func (m MonitorConfig) PollInterval() time.Duration {
	return time.Duration(m.PollIntervalSeconds) * time.Second
}

type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"` // exported-results 根目录
}

type CacheConfig struct {
	Dir           string `mapstructure:"dir"` // 结果工件本地缓存目录
	RetentionDays int    `mapstructure:"retention_days"`
}

type QueueConfig struct {
	TaskQueue  string `mapstructure:"task_queue"`
	MaxWorkers int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type QuotaConfig struct {
	DailySubmissions int `mapstructure:"daily_submissions"`
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	NotifyTo string `mapstructure:"notify_to"` // 分析完成通知收件人，为空则不发送
}

// APIKeyConfig 预置 API Key（bcrypt 哈希），用于换取 JWT
type APIKeyConfig struct {
	UserID  int64  `mapstructure:"user_id"`
	KeyHash string `mapstructure:"key_hash"`
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	// 检查 config.local.yaml 是否存在
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 环境变量覆盖
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GitHub.APIBaseURL == "" {
		cfg.GitHub.APIBaseURL = "https://api.github.com"
	}
	if cfg.Monitor.PollIntervalSeconds <= 0 {
		cfg.Monitor.PollIntervalSeconds = 5
	}
	if cfg.Monitor.MaxAttempts <= 0 {
		cfg.Monitor.MaxAttempts = 17280 // 5 秒间隔约 24 小时
	}
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = "exported-results"
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "artifact-cache"
	}

	return &cfg, nil
}
