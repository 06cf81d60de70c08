package config

import "time"

// RegistryConfig holds runtime configuration for the registry service.
type RegistryConfig struct {
	Environment        string
	Addr               string
	LogLevel           string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	DatabaseURL        string
	MigrationsDir      string
	StorageKeyPrefix   string
	FeedURL            string
	SyncInterval       time.Duration
	QuickDeployDelay   time.Duration
	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
}

// LoadRegistryConfig constructs a RegistryConfig from environment variables.
func LoadRegistryConfig() RegistryConfig {
	return RegistryConfig{
		Environment:        GetString("APP_ENV", "development"),
		Addr:               GetString("REGISTRY_ADDR", ":4000"),
		LogLevel:           GetString("LOG_LEVEL", "info"),
		RedisAddr:          GetString("REGISTRY_REDIS_ADDR", ""),
		RedisPassword:      GetString("REGISTRY_REDIS_PASSWORD", ""),
		RedisDB:            GetInt("REGISTRY_REDIS_DB", 0),
		DatabaseURL:        GetString("DATABASE_URL", ""),
		MigrationsDir:      GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		StorageKeyPrefix:   GetString("REGISTRY_KEY_PREFIX", "fixitfred:registry:"),
		FeedURL:            GetString("DEPLOYMENT_FEED_URL", ""),
		SyncInterval:       time.Duration(GetInt("SYNC_INTERVAL_SECONDS", 30)) * time.Second,
		QuickDeployDelay:   time.Duration(GetInt("QUICK_DEPLOY_DELAY_SECONDS", 5)) * time.Second,
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}
