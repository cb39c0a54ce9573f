package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"logLevel"`

	Server struct {
		Port            int           `yaml:"port"`
		MaxUploadMB     int64         `yaml:"maxUploadMB"`
		MaxJSONBytes    int64         `yaml:"maxJSONBytes"`
		CORSOrigins     []string      `yaml:"corsOrigins"`
		RateLimit       int           `yaml:"rateLimit"` // requests per minute per IP, 0 = off
		ReadTimeout     time.Duration `yaml:"readTimeout"`
		WriteTimeout    time.Duration `yaml:"writeTimeout"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	} `yaml:"server"`

	AI struct {
		Provider string        `yaml:"provider"` // gemini | openai
		Model    string        `yaml:"model"`
		APIKey   string        `yaml:"apiKey"`
		BaseURL  string        `yaml:"baseURL"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"ai"`

	Storage struct {
		Backend string `yaml:"backend"` // local | minio
		Dir     string `yaml:"dir"`

		Minio struct {
			Endpoint   string `yaml:"endpoint"`
			AccessKey  string `yaml:"accessKey"`
			SecretKey  string `yaml:"secretKey"`
			BucketName string `yaml:"bucketName"`
			Region     string `yaml:"region"`
			UseSSL     bool   `yaml:"useSSL"`
		} `yaml:"minio"`
	} `yaml:"storage"`

	Report struct {
		Title          string  `yaml:"title"`
		Fit            string  `yaml:"fit"` // contain | stretch
		BoxSize        float64 `yaml:"boxSize"`
		FilenamePrefix string  `yaml:"filenamePrefix"`
		Compress       bool    `yaml:"compress"`
	} `yaml:"report"`

	// Database is the optional usage journal. Empty driver disables it.
	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	var c Config
	c.Env = "development"
	c.LogLevel = "info"

	c.Server.Port = 3000
	c.Server.MaxUploadMB = 10
	c.Server.MaxJSONBytes = 10 << 20
	c.Server.ReadTimeout = 30 * time.Second
	c.Server.ShutdownTimeout = 15 * time.Second

	c.AI.Provider = "gemini"

	c.Storage.Backend = "local"
	c.Storage.Dir = "."
	c.Storage.Minio.BucketName = "workoutwise"

	c.Report.Title = "Workout Info"
	c.Report.Fit = "contain"
	c.Report.BoxSize = 300
	c.Report.FilenamePrefix = "workout_info"
	c.Report.Compress = true
	return &c
}

// Load baca .env (kalau ada), lalu file YAML (kalau ada), lalu override dari env.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if path == "" {
		path = getEnv("CONFIG_PATH", "config.yaml")
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Env = getEnv("ENV", c.Env)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Server.Port = getEnvInt("PORT", c.Server.Port)
	c.Server.MaxUploadMB = int64(getEnvInt("MAX_UPLOAD_MB", int(c.Server.MaxUploadMB)))
	c.Server.RateLimit = getEnvInt("RATE_LIMIT_PER_MINUTE", c.Server.RateLimit)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	c.AI.Provider = strings.ToLower(getEnv("AI_PROVIDER", c.AI.Provider))
	c.AI.Model = getEnv("AI_MODEL", c.AI.Model)
	switch c.AI.Provider {
	case "gemini":
		c.AI.APIKey = getEnv("GEMINI_API_KEY", c.AI.APIKey)
	case "openai":
		c.AI.APIKey = getEnv("OPENAI_API_KEY", c.AI.APIKey)
		c.AI.BaseURL = getEnv("OPENAI_BASE_URL", c.AI.BaseURL)
	}

	c.Storage.Backend = strings.ToLower(getEnv("STORAGE_BACKEND", c.Storage.Backend))
	c.Storage.Dir = getEnv("STORAGE_DIR", c.Storage.Dir)
	m := &c.Storage.Minio
	m.Endpoint = getEnv("MINIO_ENDPOINT", m.Endpoint)
	m.AccessKey = getEnv("MINIO_ACCESS_KEY", m.AccessKey)
	m.SecretKey = getEnv("MINIO_SECRET_KEY", m.SecretKey)
	m.BucketName = getEnv("MINIO_BUCKET", m.BucketName)
	m.Region = getEnv("MINIO_REGION", m.Region)
	m.UseSSL = getEnvBool("MINIO_USE_SSL", m.UseSSL)

	c.Report.Fit = strings.ToLower(getEnv("REPORT_FIT", c.Report.Fit))

	c.Database.Driver = strings.ToLower(getEnv("DATABASE_DRIVER", c.Database.Driver))
	c.Database.DSN = getEnv("DATABASE_DSN", c.Database.DSN)
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port %d", c.Server.Port))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("server.maxUploadMB must be positive"))
	}
	if c.Server.MaxJSONBytes <= 0 {
		errs = append(errs, errors.New("server.maxJSONBytes must be positive"))
	}

	switch c.AI.Provider {
	case "gemini", "openai":
		if c.AI.APIKey == "" {
			errs = append(errs, fmt.Errorf("missing API key for provider %q", c.AI.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ai provider %q", c.AI.Provider))
	}

	switch c.Storage.Backend {
	case "local":
	case "minio":
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.BucketName == "" {
			errs = append(errs, errors.New("minio backend needs endpoint and bucketName"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	if c.Report.Fit != "contain" && c.Report.Fit != "stretch" {
		errs = append(errs, fmt.Errorf("unknown report fit %q", c.Report.Fit))
	}
	if c.Report.BoxSize <= 0 {
		errs = append(errs, errors.New("report.boxSize must be positive"))
	}

	switch c.Database.Driver {
	case "", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// DSN returns the explicit DSN or builds one for the configured driver.
func (c *Config) DSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	switch c.Database.Driver {
	case "postgres":
		return c.PostgresDSN()
	default:
		return c.MySQLDSN()
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
