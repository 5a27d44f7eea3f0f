package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Log       LogConfig        `mapstructure:"log"`
	DataDir   string           `mapstructure:"data_dir"  validate:"required"`
	Schedules []ScheduleConfig `mapstructure:"schedules" validate:"required,min=1,dive"`
	Cache     CacheConfig      `mapstructure:"cache"`
	Backup    BackupConfig     `mapstructure:"backup"`
	Verify    VerifyConfig     `mapstructure:"verify"`
	Display   DisplayConfig    `mapstructure:"display"`
	TimeSync  TimeSyncConfig   `mapstructure:"timesync"`
	Remote    RemoteConfig     `mapstructure:"remote"`
	Redis     RedisConfig      `mapstructure:"redis"`
	Database  DatabaseConfig   `mapstructure:"db"`
	Auth      AuthConfig       `mapstructure:"auth"`
	Bot       BotConfig        `mapstructure:"bot"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port int        `mapstructure:"port" validate:"gte=1,lte=65535"`
	CORS CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// ScheduleConfig 单个课表来源
type ScheduleConfig struct {
	Name       string `mapstructure:"name"        validate:"required"`
	RemotePath string `mapstructure:"remote_path" validate:"required"`
	// LocalPath 为空时为 <data_dir>/<name>.xlsx
	LocalPath string `mapstructure:"local_path"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// BackupConfig 备份保留策略
type BackupConfig struct {
	RetentionDays int `mapstructure:"retention_days" validate:"gte=1"`
}

// VerifyConfig 下载文件校验模式
type VerifyConfig struct {
	Mode string `mapstructure:"mode" validate:"oneof=strict lenient"`
}

// DisplayConfig 屏幕展示参数
type DisplayConfig struct {
	ShowBeforeStartMin int `mapstructure:"show_before_start_min" validate:"gte=0"`
	ShowAfterEndMin    int `mapstructure:"show_after_end_min"    validate:"gte=0"`
	CarouselInterval   int `mapstructure:"carousel_interval"     validate:"gte=1"`
}

// TimeSyncConfig 网络校时
type TimeSyncConfig struct {
	URL               string        `mapstructure:"url"`
	RegionOffsetHours int           `mapstructure:"region_offset_hours" validate:"gte=-12,lte=14"`
	Timeout           time.Duration `mapstructure:"timeout"             validate:"gt=0"`
}

// RemoteConfig 远端存储
type RemoteConfig struct {
	Kind      string        `mapstructure:"kind"       validate:"oneof=yadisk local"`
	Token     string        `mapstructure:"token"`
	BaseURL   string        `mapstructure:"base_url"`
	LocalRoot string        `mapstructure:"local_root"`
	Timeout   time.Duration `mapstructure:"timeout"    validate:"gt=0"`
}

// RedisConfig Redis 配置（跨进程刷新锁、管理接口限流）
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl" validate:"gt=0"`
}

// DatabaseConfig PostgreSQL 配置（课表变更审计）
type DatabaseConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Name         string `mapstructure:"name"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	SSLMode      string `mapstructure:"sslmode"`
	Timezone     string `mapstructure:"timezone"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// AuthConfig 管理接口 JWT 配置；JWTSecret 为空时不挂载管理路由
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	AdminTokenTTL time.Duration `mapstructure:"admin_token_ttl" validate:"gt=0"`
}

// BotConfig Telegram 管理机器人
type BotConfig struct {
	Token    string  `mapstructure:"token"`
	AdminIDs []int64 `mapstructure:"admin_ids"`
}

// ScheduleByName 按名称查找课表配置
func (c *Config) ScheduleByName(name string) (ScheduleConfig, bool) {
	for _, s := range c.Schedules {
		if s.Name == name {
			return s, true
		}
	}
	return ScheduleConfig{}, false
}

// Load 从配置文件与环境变量加载配置
// 优先级：旧版 .env 变量 > SCHOOL_ 环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// .env 不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("SCHOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := applyLegacyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.fillLocalPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("data_dir", "data")

	v.SetDefault("cache.ttl", "600s")
	v.SetDefault("backup.retention_days", 7)
	v.SetDefault("verify.mode", "strict")

	v.SetDefault("display.show_before_start_min", 75)
	v.SetDefault("display.show_after_end_min", 30)
	v.SetDefault("display.carousel_interval", 7)

	v.SetDefault("timesync.url", "https://yandex.com/time/sync.json")
	v.SetDefault("timesync.region_offset_hours", 7)
	v.SetDefault("timesync.timeout", "5s")

	v.SetDefault("remote.kind", "yadisk")
	v.SetDefault("remote.timeout", "60s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", "2m")

	v.SetDefault("db.enabled", false)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "school_schedule")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Novosibirsk")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)

	v.SetDefault("auth.admin_token_ttl", "720h")
}

// applyLegacyEnv 兼容旧部署的 .env 变量名
func applyLegacyEnv(cfg *Config) error {
	for i := 1; ; i++ {
		remote := os.Getenv(fmt.Sprintf("YANDEX_FILE_PATH_%d", i))
		name := os.Getenv(fmt.Sprintf("FILE_NAME_%d", i))
		if remote == "" || name == "" {
			break
		}
		if _, exists := cfg.ScheduleByName(name); exists {
			continue
		}
		cfg.Schedules = append(cfg.Schedules, ScheduleConfig{Name: name, RemotePath: remote})
	}

	if v := os.Getenv("YANDEX_TOKEN"); v != "" {
		cfg.Remote.Token = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("TELEGRAM_ADMIN_IDS"); v != "" {
		ids, err := parseIDs(v)
		if err != nil {
			return fmt.Errorf("配置校验失败: TELEGRAM_ADMIN_IDS: %w", err)
		}
		cfg.Bot.AdminIDs = ids
	}

	ints := []struct {
		env  string
		dest *int
	}{
		{"SHOW_BEFORE_START_MIN", &cfg.Display.ShowBeforeStartMin},
		{"SHOW_AFTER_END_MIN", &cfg.Display.ShowAfterEndMin},
		{"CAROUSEL_INTERVAL", &cfg.Display.CarouselInterval},
		{"REGION_TIMEDELTA", &cfg.TimeSync.RegionOffsetHours},
		{"BACKUP_RETENTION_DAYS", &cfg.Backup.RetentionDays},
	}
	for _, it := range ints {
		if v := os.Getenv(it.env); v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("配置校验失败: %s 必须为整数: %w", it.env, err)
			}
			*it.dest = n
		}
	}
	if v := os.Getenv("CACHE_DURATION"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("配置校验失败: CACHE_DURATION 必须为秒数: %w", err)
		}
		cfg.Cache.TTL = time.Duration(n) * time.Second
	}
	return nil
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Config) fillLocalPaths() {
	for i := range c.Schedules {
		if c.Schedules[i].LocalPath == "" {
			c.Schedules[i].LocalPath = filepath.Join(c.DataDir, c.Schedules[i].Name+".xlsx")
		}
	}
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	seen := make(map[string]bool, len(c.Schedules))
	for _, s := range c.Schedules {
		if seen[s.Name] {
			return fmt.Errorf("配置校验失败: 课表名 %q 重复", s.Name)
		}
		seen[s.Name] = true
	}
	if c.Remote.Kind == "yadisk" && c.Remote.Token == "" {
		return fmt.Errorf("配置校验失败: remote.kind=yadisk 时 remote.token 不能为空")
	}
	if c.Remote.Kind == "local" && c.Remote.LocalRoot == "" {
		return fmt.Errorf("配置校验失败: remote.kind=local 时 remote.local_root 不能为空")
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	return nil
}
