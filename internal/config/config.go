package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RenderConfig holds video render defaults and worker settings.
// Individual render requests can override the output shape.
type RenderConfig struct {
	FPS         int
	DurationSec int
	Width       int
	Height      int
	FadeMS      int64
	Workers     int
	FFmpegPath  string
}

// TilesConfig holds the map tile source settings. An empty BaseURL
// disables the terrain layer.
type TilesConfig struct {
	BaseURL     string
	Radius      int
	CachePrefix string
	TimeoutSec  int
}

// PlaybackConfig holds interactive playback session settings.
type PlaybackConfig struct {
	SessionTTLSec int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Render   RenderConfig
	Tiles    TilesConfig
	Playback PlaybackConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Render: RenderConfig{
			FPS:         getEnvInt("RENDER_FPS", 30),
			DurationSec: getEnvInt("RENDER_DURATION_SEC", 10),
			Width:       getEnvInt("RENDER_WIDTH", 800),
			Height:      getEnvInt("RENDER_HEIGHT", 800),
			FadeMS:      getEnvInt64("RENDER_FADE_MS", 300000),
			Workers:     getEnvInt("RENDER_WORKERS", 0), // 0 means one per CPU
			FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
		},
		Tiles: TilesConfig{
			BaseURL:     getEnv("TILES_BASE_URL", ""),
			Radius:      getEnvInt("TILES_RADIUS", 40),
			CachePrefix: getEnv("TILES_CACHE_PREFIX", "tiles"),
			TimeoutSec:  getEnvInt("TILES_TIMEOUT_SEC", 10),
		},
		Playback: PlaybackConfig{
			SessionTTLSec: getEnvInt("PLAYBACK_SESSION_TTL_SEC", 1800),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}
