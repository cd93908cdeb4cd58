// Package config holds the runtime configuration of the complaint backend
// together with the fixed tunables used by the complaint and analytics code.
package config

import (
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	CORS     CORSConfig     `yaml:"cors"`
	Log      LogConfig      `yaml:"log"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Telegram TelegramConfig `yaml:"telegram"`
	Backup   BackupConfig   `yaml:"backup"`
	Domains  DomainsConfig  `yaml:"domains"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"5000"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	Mode            string        `yaml:"mode"             env:"GIN_MODE"                env-default:"release"`
}

// StoreConfig selects and configures the complaint store backend.
type StoreConfig struct {
	Driver        string `yaml:"driver"         env:"STORE_DRIVER"   env-default:"file"`
	Path          string `yaml:"path"           env:"STORE_PATH"     env-default:"data/complaints.json"`
	PostgresDSN   string `yaml:"postgres_dsn"   env:"DATABASE_DSN"`
	MongoURI      string `yaml:"mongo_uri"      env:"MONGODB_URI"`
	MongoDatabase string `yaml:"mongo_database" env:"MONGODB_DATABASE" env-default:"complaintsdb"`
}

// RedisConfig enables event fan-out and the analytics cache. An empty Addr disables both.
type RedisConfig struct {
	Addr     string        `yaml:"addr"      env:"REDIS_ADDR"`
	Password string        `yaml:"password"  env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db"        env:"REDIS_DB"        env-default:"0"`
	Channel  string        `yaml:"channel"   env:"REDIS_CHANNEL"   env-default:"complaints:events"`
	CacheKey string        `yaml:"cache_key" env:"REDIS_CACHE_KEY" env-default:"analytics:summary"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"REDIS_CACHE_TTL" env-default:"30s"`
}

// AuthConfig holds the shared secret of the external auth service.
// Mutating routes are open when JWTSecret is empty.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	JWTIssuer string `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string        `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowCredentials bool          `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           time.Duration `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"12h"`
}

// Origins splits AllowedOrigins on commas.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// AllowAll reports whether any origin is accepted.
func (c CORSConfig) AllowAll() bool {
	origins := c.Origins()
	return len(origins) == 0 || (len(origins) == 1 && origins[0] == "*")
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// AnalyzerConfig points at the external text-classification service.
type AnalyzerConfig struct {
	URL     string        `yaml:"url"     env:"ANALYZER_URL"`
	Timeout time.Duration `yaml:"timeout" env:"ANALYZER_TIMEOUT" env-default:"10s"`
}

// TelegramConfig enables notifications for new high-priority complaints.
type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"    env:"TELEGRAM_BOT_TOKEN"`
	ChatID      int64  `yaml:"chat_id"      env:"TELEGRAM_CHAT_ID"`
	MinPriority string `yaml:"min_priority" env:"NOTIFY_MIN_PRIORITY" env-default:"High"`
}

// BackupConfig configures scheduled store snapshots. An empty Schedule disables them.
type BackupConfig struct {
	Schedule        string `yaml:"schedule"         env:"BACKUP_SCHEDULE"`
	Dir             string `yaml:"dir"              env:"BACKUP_DIR"              env-default:"data/backups"`
	Keep            int    `yaml:"keep"             env:"BACKUP_KEEP"             env-default:"10"`
	GCSBucket       string `yaml:"gcs_bucket"       env:"BACKUP_GCS_BUCKET"`
	GCSPrefix       string `yaml:"gcs_prefix"       env:"BACKUP_GCS_PREFIX"       env-default:"backups/"`
	CredentialsFile string `yaml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS"`
}

// DomainsConfig points at an optional directory of domain vocabulary overrides.
type DomainsConfig struct {
	Dir string `yaml:"dir" env:"DOMAINS_DIR"`
}
