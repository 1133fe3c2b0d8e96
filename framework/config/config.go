package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the central typed configuration struct.
// Every section can also be overridden by the YAML file named in CONFIG_FILE.
type Config struct {
	App      AppConfig      `yaml:"app"`
	DB       DBConfig       `yaml:"db"`
	Security SecurityConfig `yaml:"security"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
}

type AppConfig struct {
	Name  string `yaml:"name"`
	Env   string `yaml:"env"` // local | production | testing
	Debug bool   `yaml:"debug"`
	URL   string `yaml:"url"`
	Port  string `yaml:"port"`
	Key   string `yaml:"key"`
}

type DBConfig struct {
	Driver         string `yaml:"driver"`
	Host           string `yaml:"host"`
	Port           string `yaml:"port"`
	Database       string `yaml:"database"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	SSLMode        string `yaml:"sslmode"`
	URL            string `yaml:"url"` // DATABASE_URL wins over the discrete fields
	MaxOpenConns   int    `yaml:"max_open_conns"`
	MaxIdleConns   int    `yaml:"max_idle_conns"`
	MigrationsPath string `yaml:"migrations_path"`
}

// DSN returns URL when set, otherwise a postgres URL built from the parts.
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   c.Driver,
		User:     url.UserPassword(c.Username, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

type SecurityConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	JWTAlgorithm string        `yaml:"jwt_algorithm"`
	JWTTTL       time.Duration `yaml:"jwt_ttl"`
	BcryptCost   int           `yaml:"bcrypt_cost"`
}

type HTTPConfig struct {
	APIPrefix         string        `yaml:"api_prefix"`
	CORSOrigins       []string      `yaml:"cors_origins"`
	RateLimitRequests int           `yaml:"rate_limit_requests"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	CacheSize         int           `yaml:"cache_size"`
	APIVersions       []string      `yaml:"api_versions"`
	DefaultAPIVersion string        `yaml:"default_api_version"`
	MaxRequestSize    int64         `yaml:"max_request_size"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

// Load reads .env (if present), populates a Config from environment variables
// and finally applies the YAML overlay named by CONFIG_FILE.
// Call once at bootstrap: cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	cfg := &Config{
		App: AppConfig{
			Name:  env("APP_NAME", "Fastie"),
			Env:   env("APP_ENV", "local"),
			Debug: envBool("APP_DEBUG", true),
			URL:   env("APP_URL", "http://localhost"),
			Port:  env("APP_PORT", "8000"),
			Key:   env("APP_KEY", ""),
		},
		DB: DBConfig{
			Driver:         env("DB_DRIVER", "postgres"),
			Host:           env("DB_HOST", "127.0.0.1"),
			Port:           env("DB_PORT", "5432"),
			Database:       env("DB_DATABASE", "fastie"),
			Username:       env("DB_USERNAME", "postgres"),
			Password:       env("DB_PASSWORD", ""),
			SSLMode:        env("DB_SSLMODE", "disable"),
			URL:            env("DATABASE_URL", ""),
			MaxOpenConns:   GetInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:   GetInt("DB_MAX_IDLE_CONNS", 5),
			MigrationsPath: env("DB_MIGRATIONS_PATH", "database/migrations"),
		},
		Security: SecurityConfig{
			JWTSecret:    env("JWT_SECRET", ""),
			JWTAlgorithm: env("JWT_ALGORITHM", "HS256"),
			JWTTTL:       envDuration("JWT_TTL", 30*time.Minute),
			BcryptCost:   GetInt("BCRYPT_COST", 10),
		},
		HTTP: HTTPConfig{
			APIPrefix:         env("API_PREFIX", "/api/v1"),
			CORSOrigins:       envList("CORS_ORIGINS", []string{"*"}),
			RateLimitRequests: GetInt("RATE_LIMIT_REQUESTS", 100),
			RateLimitWindow:   envDuration("RATE_LIMIT_WINDOW", time.Hour),
			CacheTTL:          envDuration("CACHE_TTL", 5*time.Minute),
			CacheSize:         GetInt("CACHE_SIZE", 1000),
			APIVersions:       envList("API_VERSIONS", []string{"v1", "v2"}),
			DefaultAPIVersion: env("API_DEFAULT_VERSION", "v1"),
			MaxRequestSize:    int64(GetInt("MAX_REQUEST_SIZE", 10<<20)),
			ShutdownTimeout:   envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", "json"),
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.Overlay(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Overlay merges the YAML file at path into c. Keys absent from the file keep
// their current value.
func (c *Config) Overlay(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read overlay: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("config: parse overlay %s: %w", path, err)
	}
	return nil
}

// ErrMissingSecret is returned by Validate in production without JWT_SECRET.
var ErrMissingSecret = errors.New("config: JWT_SECRET must be set outside local and testing environments")

// Validate reports settings that are unusable for the current environment.
func (c *Config) Validate() error {
	if c.Security.JWTSecret == "" && c.App.Env != "local" && c.App.Env != "testing" {
		return ErrMissingSecret
	}
	if c.HTTP.RateLimitRequests <= 0 || c.HTTP.RateLimitWindow <= 0 {
		return fmt.Errorf("config: rate limit must be positive, got %d per %s",
			c.HTTP.RateLimitRequests, c.HTTP.RateLimitWindow)
	}
	return nil
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// envDuration accepts Go durations ("90s") or a bare number of minutes.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if m, err := strconv.Atoi(v); err == nil {
		return time.Duration(m) * time.Minute
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
