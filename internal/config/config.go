package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Storage backends understood by kvstore.Open
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

type StorageConfig struct {
	Backend       string
	DataDir       string
	RedisURL      string
	RedisPrefix   string
	MongoURI      string
	MongoDatabase string
	PostgresDSN   string
}

type GitHubConfig struct {
	DefaultAPIURL string
	HTTPTimeout   time.Duration
}

type Config struct {
	Port              string
	LogLevel          string
	CORSOrigins       []string
	PRRefreshInterval time.Duration
	Storage           StorageConfig
	GitHub            GitHubConfig
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getduration(key string, def time.Duration) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// Load reads .env (if present) and the process environment
func Load(logger zerolog.Logger) Config {
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg(".env file not found, using process environment")
	}

	origins := []string{}
	for _, o := range strings.Split(getenv("CORS_ORIGINS", "chrome-extension://*,http://localhost:*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return Config{
		Port:              getenv("PORT", "8787"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		CORSOrigins:       origins,
		PRRefreshInterval: getduration("PR_REFRESH_INTERVAL", 5*time.Minute),
		Storage: StorageConfig{
			Backend:       strings.ToLower(getenv("STORAGE_BACKEND", BackendFile)),
			DataDir:       getenv("DATA_DIR", defaultDataDir()),
			RedisURL:      getenv("REDIS_URL", "redis://localhost:6379/0"),
			RedisPrefix:   getenv("REDIS_PREFIX", "glance:"),
			MongoURI:      getenv("MONGODB_URI", "mongodb://localhost:27017"),
			MongoDatabase: getenv("MONGODB_DATABASE", "glance"),
			PostgresDSN:   getenv("DATABASE_URL", ""),
		},
		GitHub: GitHubConfig{
			DefaultAPIURL: getenv("GITHUB_API_URL", "https://api.github.com"),
			HTTPTimeout:   getduration("GITHUB_HTTP_TIMEOUT", 10*time.Second),
		},
	}
}

// NewLogger builds the process logger at level (falls back to info)
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "glance"
	}
	return ".glance"
}
