package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// AppConfig holds the console configuration, grouped by concern.
// Secrets have no defaults and must come from config/config.json or the environment.
type AppConfig struct {
	App      AppSection      `mapstructure:"app"`
	Log      LogSection      `mapstructure:"log"`
	Auth     AuthSection     `mapstructure:"auth"`
	Store    StoreSection    `mapstructure:"store"`
	Mongo    MongoSection    `mapstructure:"mongo"`
	Database DatabaseSection `mapstructure:"database"`
	Redis    RedisSection    `mapstructure:"redis"`
	Storage  StorageSection  `mapstructure:"storage"`
	Media    MediaSection    `mapstructure:"media"`
	Ugc      UgcSection      `mapstructure:"ugc"`
}

type AppSection struct {
	Port               string   `mapstructure:"port"`
	GinMode            string   `mapstructure:"gin_mode"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute"`
}

type LogSection struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	GinPath    string `mapstructure:"gin_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// AuthSection configures bearer token verification. PublicKeyPath wins over JWTSecret.
type AuthSection struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	PublicKeyPath string `mapstructure:"public_key_path"`
	Issuer        string `mapstructure:"issuer"`
	Audience      string `mapstructure:"audience"`
}

// StoreSection selects the metadata backend: "mongo", "mysql" or "memory".
type StoreSection struct {
	Driver string `mapstructure:"driver"`
}

type MongoSection struct {
	URI         string      `mapstructure:"uri"`
	Database    string      `mapstructure:"database"`
	Collections Collections `mapstructure:"collections"`
}

// Collections names the five document collections (or SQL tables).
type Collections struct {
	Roster     string `mapstructure:"roster"`
	Media      string `mapstructure:"media"`
	Ugc        string `mapstructure:"ugc"`
	Activity   string `mapstructure:"activity"`
	Properties string `mapstructure:"properties"`
}

type DatabaseSection struct {
	URI      string `mapstructure:"uri"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type RedisSection struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

// StorageSection configures the object store. Driver is "s3" or "memory".
// Endpoint points the S3 client at R2 or MinIO; empty means AWS.
type StorageSection struct {
	Driver            string `mapstructure:"driver"`
	Region            string `mapstructure:"region"`
	Bucket            string `mapstructure:"bucket"`
	Endpoint          string `mapstructure:"endpoint"`
	UsePathStyle      bool   `mapstructure:"use_path_style"`
	AccessKeyID       string `mapstructure:"access_key_id"`
	SecretAccessKey   string `mapstructure:"secret_access_key"`
	PublicBaseURL     string `mapstructure:"public_base_url"`
	DeliveryBaseURL   string `mapstructure:"delivery_base_url"`
	Account           string `mapstructure:"account"`
	PresignTTLSeconds int    `mapstructure:"presign_ttl_seconds"`
}

type MediaSection struct {
	MaxBodyMB int `mapstructure:"max_body_mb"`
}

type UgcSection struct {
	Eager string `mapstructure:"eager"`
}

var (
	cfg    AppConfig
	loaded bool
	mu     sync.Mutex
)

// Load reads the configuration once during boot.
// Precedence: defaults -> config/config.json (or CONFIG_FILE) -> environment.
func Load() AppConfig {
	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return cfg
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = filepath.Join("config", "config.json")
	}
	c, err := LoadFrom(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg = c
	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	mu.Lock()
	ready := loaded
	mu.Unlock()
	if !ready {
		return Load()
	}
	return cfg
}

// Set replaces the cached configuration. Intended for tests and the seed command.
func Set(c AppConfig) {
	mu.Lock()
	cfg = c
	loaded = true
	mu.Unlock()
}

// LoadFrom builds a configuration from the given file. A missing file is not an error.
func LoadFrom(path string) (AppConfig, error) {
	v := viper.New()
	applyDefaults(v)
	bindEnv(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return AppConfig{}, fmt.Errorf("read %s: %w", path, err)
			}
		}
	}

	var out AppConfig
	if err := v.Unmarshal(&out); err != nil {
		return AppConfig{}, fmt.Errorf("decode: %w", err)
	}
	if out.Auth.JWTSecret == "" && out.Auth.PublicKeyPath == "" {
		return AppConfig{}, errors.New("auth.jwt_secret (JWT_SECRET) or auth.public_key_path (JWT_PUBLIC_KEY_PATH) must be set")
	}
	if len(out.App.AllowedOrigins) == 1 {
		out.App.AllowedOrigins = splitAndTrim(out.App.AllowedOrigins[0])
	}
	return out, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.gin_mode", "release")
	v.SetDefault("app.allowed_origins", []string{"*"})
	v.SetDefault("app.rate_limit_per_minute", 120)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "logs/mediadesk.log")
	v.SetDefault("log.gin_path", "logs/go_gin.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.compress", false)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.public_key_path", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")

	v.SetDefault("store.driver", "mongo")

	v.SetDefault("mongo.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongo.database", "mediadesk")
	v.SetDefault("mongo.collections.roster", "users-roster")
	v.SetDefault("mongo.collections.media", "media-metadata")
	v.SetDefault("mongo.collections.ugc", "ugc-videos")
	v.SetDefault("mongo.collections.activity", "activity-logs")
	v.SetDefault("mongo.collections.properties", "properties")

	v.SetDefault("database.uri", "")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "mediadesk")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")

	v.SetDefault("storage.driver", "s3")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.use_path_style", false)
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("storage.delivery_base_url", "https://res.cloudinary.com")
	v.SetDefault("storage.account", "")
	v.SetDefault("storage.presign_ttl_seconds", 600)

	v.SetDefault("media.max_body_mb", 51)
	v.SetDefault("ugc.eager", "sp_hd/m3u8")
}

// bindEnv maps APP_PORT style variables onto nested keys, plus a few
// short aliases kept for deploy scripts.
func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	aliases := map[string][]string{
		"auth.jwt_secret":           {"JWT_SECRET"},
		"auth.public_key_path":      {"JWT_PUBLIC_KEY_PATH"},
		"app.gin_mode":              {"GIN_MODE"},
		"log.gin_path":              {"GIN_PATH", "GIN_LOG_PATH"},
		"database.uri":              {"DATABASE_URI"},
		"storage.bucket":            {"S3_BUCKET"},
		"storage.endpoint":          {"S3_ENDPOINT"},
		"storage.access_key_id":     {"AWS_ACCESS_KEY_ID"},
		"storage.secret_access_key": {"AWS_SECRET_ACCESS_KEY"},
	}
	for key, envs := range aliases {
		_ = v.BindEnv(append([]string{key, strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, envs...)...)
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
