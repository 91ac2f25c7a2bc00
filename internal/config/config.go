package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppId       string

	AllowOrigins string

	// Empty RedisURL disables the stage mapping cache
	RedisURL        string
	MappingCacheTTL time.Duration

	PipedriveBaseURL  string
	PipedriveAPIToken string
	PipedriveFieldMap string // name=fieldKey pairs, comma separated

	SyncSource      string // "pipedrive", "postgres" or "mysql"
	SyncDatabaseDSN string
	SyncSchedule    string // cron spec, empty disables scheduled sync
	SyncPipelineID  int

	QRIDPrefix  string
	QRIDEnvCode string // printed in ids; defaults to the environment's initial
	QRIDStore   string // "mongo" or "redis"
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:            getEnv("DB_NAME", "flow-metrics"),
		SkipAuth:          getEnv("SKIP_AUTH", "false") == "true",
		Environment:       getEnv("ENVIRONMENT", "development"),
		AppId:             getEnv("APP_ID", "flow-metrics"),
		AllowOrigins:      getEnv("ALLOW_ORIGINS", "http://localhost:3000"),
		RedisURL:          getEnv("REDIS_URL", ""),
		MappingCacheTTL:   getEnvDuration("MAPPING_CACHE_TTL", 5*time.Minute),
		PipedriveBaseURL:  getEnv("PIPEDRIVE_BASE_URL", "https://api.pipedrive.com/v1"),
		PipedriveAPIToken: getEnv("PIPEDRIVE_API_TOKEN", ""),
		PipedriveFieldMap: getEnv("PIPEDRIVE_FIELD_MAP", ""),
		SyncSource:        getEnv("SYNC_SOURCE", "pipedrive"),
		SyncDatabaseDSN:   getEnv("SYNC_DATABASE_DSN", ""),
		SyncSchedule:      getEnv("SYNC_SCHEDULE", ""),
		SyncPipelineID:    getEnvInt("SYNC_PIPELINE_ID", 0),
		QRIDPrefix:        getEnv("QR_ID_PREFIX", "QR"),
		QRIDEnvCode:       getEnv("QR_ID_ENV_CODE", ""),
		QRIDStore:         getEnv("QR_ID_STORE", "mongo"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s: %q, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s: %q, using %s", key, value, fallback)
		return fallback
	}
	return d
}
