package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds configuration sourced from config/config.json with
// environment variable overrides. Secrets have no in-code defaults.
type AppConfig struct {
	AppPort   string `json:"AppPort"`
	JWTSecret string `json:"JWTSecret"`
	GinMode   string `json:"GinMode"`

	DatabaseURI string `json:"DatabaseURI"`
	DBHost      string `json:"DBHost"`
	DBPort      string `json:"DBPort"`
	DBUser      string `json:"DBUser"`
	DBPassword  string `json:"DBPassword"`
	DBName      string `json:"DBName"`

	RedisHost     string `json:"RedisHost"`
	RedisPort     int    `json:"RedisPort"`
	RedisDB       int    `json:"RedisDB"`
	RedisPassword string `json:"RedisPassword"`

	RateLimitPerMinute int      `json:"RateLimitPerMinute"`
	AllowedOrigins     []string `json:"AllowedOrigins"`
	UploadDir          string   `json:"UploadDir"`

	LogLevel      string `json:"LogLevel"`
	LogPath       string `json:"LogPath"`
	LogMaxSizeMB  int    `json:"LogMaxSizeMB"`
	LogMaxBackups int    `json:"LogMaxBackups"`
	LogMaxAgeDays int    `json:"LogMaxAgeDays"`
	LogCompress   bool   `json:"LogCompress"`
}

var (
	cfg    AppConfig
	loaded bool
)

// Load reads the configuration once during boot.
// Precedence: config/config.json -> defaults -> environment overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in the environment or config file")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

func loadJSONConfig(path string, out *AppConfig) {
	f, err := os.Open(path)
	if err != nil {
		return // missing file is fine; env and defaults cover everything
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(out); err != nil {
		log.Fatalf("invalid config file %s: %v", path, err)
	}
}

func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "inkpress"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.UploadDir == "" {
		c.UploadDir = filepath.Join("static", "uploads")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

func applyEnvOverrides(c *AppConfig) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				log.Fatalf("invalid integer for %s: %v", key, err)
			}
			*dst = i
		}
	}

	setString("APP_PORT", &c.AppPort)
	setString("JWT_SECRET", &c.JWTSecret)
	setString("GIN_MODE", &c.GinMode)
	setString("DATABASE_URI", &c.DatabaseURI)
	setString("DB_HOST", &c.DBHost)
	setString("DB_PORT", &c.DBPort)
	setString("DB_USER", &c.DBUser)
	setString("DB_PASSWORD", &c.DBPassword)
	setString("DB_NAME", &c.DBName)
	setString("REDIS_HOST", &c.RedisHost)
	setInt("REDIS_PORT", &c.RedisPort)
	setInt("REDIS_DB", &c.RedisDB)
	setString("REDIS_PASSWORD", &c.RedisPassword)
	setInt("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	setString("UPLOAD_DIR", &c.UploadDir)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("LOG_PATH", &c.LogPath)
	setInt("LOG_MAX_SIZE_MB", &c.LogMaxSizeMB)
	setInt("LOG_MAX_BACKUPS", &c.LogMaxBackups)
	setInt("LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays)
	if v := os.Getenv("LOG_COMPRESS"); v != "" {
		c.LogCompress = v == "true"
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		parts := []string{}
		for _, p := range strings.Split(v, ",") {
			if t := strings.TrimSpace(p); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) > 0 {
			c.AllowedOrigins = parts
		}
	}
}
