package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Relay transports
const (
	TransportBroadcast = "broadcast"
	TransportRedis     = "redis"
)

// Word store backends
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Relay    RelayConfig    `yaml:"relay"`
	Words    WordsConfig    `yaml:"words"`
	Timer    TimerConfig    `yaml:"timer"`
	Log      LogConfig      `yaml:"log"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig HTTP / WebSocket 服务器配置
type ServerConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	PublicURL       string   `yaml:"public_url"`       // used in room QR codes
	AllowedOrigins  []string `yaml:"allowed_origins"`  // empty allows any origin
	ShutdownTimeout int      `yaml:"shutdown_timeout"` // seconds
	MaxConnections  int      `yaml:"max_connections"`
}

// Addr returns host:port.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ShutdownTimeoutDuration 返回优雅关闭超时时长
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Mirror saves room snapshots to Redis for operators.
	Mirror bool `yaml:"mirror"`
}

// RelayConfig selects the event relay adapter.
type RelayConfig struct {
	Transport  string `yaml:"transport"`   // broadcast | redis
	SendBuffer int    `yaml:"send_buffer"` // per-connection outbound queue
}

// WordsConfig selects the word bank backend.
type WordsConfig struct {
	Backend string `yaml:"backend"` // file | postgres | sqlite
	File    string `yaml:"file"`
	DSN     string `yaml:"dsn"`
}

// TimerConfig 倒计时阶段阈值（秒）
type TimerConfig struct {
	TotalTime        int `yaml:"total_time"`
	YellowPhaseStart int `yaml:"yellow_phase_start"`
	RedPhaseStart    int `yaml:"red_phase_start"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
	File   string `yaml:"file"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit MessageLimitConfig `yaml:"message_limit"`
}

// RateLimitConfig limits new connections and HTTP triggers per IP.
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // seconds
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// MessageLimitConfig limits websocket messages per connection.
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to Default.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	d := Default()

	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = d.Server.MaxConnections
	}
	if c.Security.RateLimit.MaxPerSecond == 0 {
		c.Security.RateLimit.MaxPerSecond = d.Security.RateLimit.MaxPerSecond
	}
	if c.Security.RateLimit.MaxPerMinute == 0 {
		c.Security.RateLimit.MaxPerMinute = d.Security.RateLimit.MaxPerMinute
	}
	if c.Security.RateLimit.BanDuration == 0 {
		c.Security.RateLimit.BanDuration = d.Security.RateLimit.BanDuration
	}
	if c.Security.MessageLimit.MaxPerSecond == 0 {
		c.Security.MessageLimit.MaxPerSecond = d.Security.MessageLimit.MaxPerSecond
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = d.Redis.Addr
	}
	if c.Relay.Transport == "" {
		c.Relay.Transport = d.Relay.Transport
	}
	if c.Relay.SendBuffer == 0 {
		c.Relay.SendBuffer = d.Relay.SendBuffer
	}
	if c.Words.Backend == "" {
		c.Words.Backend = d.Words.Backend
	}
	if c.Words.File == "" {
		c.Words.File = d.Words.File
	}
	if c.Timer.TotalTime == 0 {
		c.Timer.TotalTime = d.Timer.TotalTime
	}
	if c.Timer.YellowPhaseStart == 0 {
		c.Timer.YellowPhaseStart = d.Timer.YellowPhaseStart
	}
	if c.Timer.RedPhaseStart == 0 {
		c.Timer.RedPhaseStart = d.Timer.RedPhaseStart
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			ShutdownTimeout: 10,
			MaxConnections:  1000,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Relay: RelayConfig{
			Transport:  TransportBroadcast,
			SendBuffer: 64,
		},
		Words: WordsConfig{
			Backend: BackendFile,
			File:    "data/words.json",
		},
		Timer: TimerConfig{
			TotalTime:        90,
			YellowPhaseStart: 60,
			RedPhaseStart:    30,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			RateLimit:    RateLimitConfig{MaxPerSecond: 10, MaxPerMinute: 120, BanDuration: 60},
			MessageLimit: MessageLimitConfig{MaxPerSecond: 20},
		},
	}
}

// NeedsRedis reports whether any component requires a Redis client.
func (c *Config) NeedsRedis() bool {
	return c.Relay.Transport == TransportRedis || c.Redis.Mirror
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Server.Port)
	}
	if !slices.Contains([]string{TransportBroadcast, TransportRedis}, c.Relay.Transport) {
		return fmt.Errorf("invalid relay transport %q (want %s or %s)", c.Relay.Transport, TransportBroadcast, TransportRedis)
	}
	if c.Server.MaxConnections < 1 {
		return fmt.Errorf("server max_connections must be positive: %d", c.Server.MaxConnections)
	}
	if c.Relay.SendBuffer < 1 {
		return fmt.Errorf("relay send_buffer must be positive: %d", c.Relay.SendBuffer)
	}
	switch c.Words.Backend {
	case BackendFile:
		if c.Words.File == "" {
			return errors.New("words.file is required for the file backend")
		}
	case BackendPostgres, BackendSQLite:
		if c.Words.DSN == "" {
			return fmt.Errorf("words.dsn is required for the %s backend", c.Words.Backend)
		}
	default:
		return fmt.Errorf("invalid words backend %q", c.Words.Backend)
	}
	t := c.Timer
	if t.RedPhaseStart <= 0 || t.RedPhaseStart > t.YellowPhaseStart || t.YellowPhaseStart > t.TotalTime {
		return fmt.Errorf("timer thresholds must satisfy 0 < red (%d) <= yellow (%d) <= total (%d)",
			t.RedPhaseStart, t.YellowPhaseStart, t.TotalTime)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("invalid log format %q (want json or console)", c.Log.Format)
	}
	return nil
}
