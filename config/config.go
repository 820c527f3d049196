package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	HTTPAddr      string
	PublicBaseURL string

	LogLevel      string
	LogFile       string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int

	// Upstream music metadata service (search, lyrics, up next).
	MetadataAPIURL string
	MetadataRPS    int
	LyricsTimeout  time.Duration
	LyricsCacheTTL time.Duration
	UpNextLimit    int
	YtdlpFallback  bool

	// Playback engine tunables.
	PollInterval     time.Duration
	FadeInterval     time.Duration
	AdvanceDelay     time.Duration
	LoadTimeout      time.Duration
	DefaultVolume    int
	DefaultCrossfade int
	SessionIdleTTL   time.Duration

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	PartyTTL      time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool accepts the usual strconv spellings.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("500ms", "20s") or bare seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() does not override variables that are already set.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}
	return fromEnv()
}

// Reload re-reads the given env file with override semantics so edits to the
// file win over values loaded at startup.
func Reload(path string) (*Config, error) {
	if err := godotenv.Overload(path); err != nil {
		return nil, err
	}
	return fromEnv(), nil
}

func fromEnv() *Config {
	return &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAge:     getEnvInt("LOG_MAX_AGE", 30),

		MetadataAPIURL: strings.TrimRight(getEnv("METADATA_API_URL", "http://localhost:3000"), "/"),
		MetadataRPS:    getEnvInt("METADATA_RPS", 8),
		LyricsTimeout:  getEnvDuration("LYRICS_TIMEOUT", 20*time.Second),
		LyricsCacheTTL: getEnvDuration("LYRICS_CACHE_TTL", 24*time.Hour),
		UpNextLimit:    getEnvInt("UPNEXT_LIMIT", 25),
		YtdlpFallback:  getEnvBool("YTDLP_FALLBACK", true),

		PollInterval:     getEnvDuration("POLL_INTERVAL", 500*time.Millisecond),
		FadeInterval:     getEnvDuration("FADE_INTERVAL", 100*time.Millisecond),
		AdvanceDelay:     getEnvDuration("ADVANCE_DELAY", 50*time.Millisecond),
		LoadTimeout:      getEnvDuration("LOAD_TIMEOUT", 30*time.Second),
		DefaultVolume:    getEnvInt("DEFAULT_VOLUME", 80),
		DefaultCrossfade: getEnvInt("DEFAULT_CROSSFADE", 0),
		SessionIdleTTL:   getEnvDuration("SESSION_IDLE_TTL", 2*time.Hour),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		PartyTTL:      getEnvDuration("PARTY_TTL", 6*time.Hour),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "player"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "bt1qplayer"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
	}
}
