package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	Port        string
	BindAddress string
	Environment string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	RedisHost   string
	RedisPort   string
	CacheTTL    time.Duration
	JWTSecret   string
	TokenTTL    time.Duration
	Jira        JiraConfig
	Salesforce  SalesforceConfig
}

// JiraConfig holds the credentials for the ticketing service. It is built
// once at startup and handed to the ticket service explicitly; nothing reads
// these values from the environment after Load returns.
type JiraConfig struct {
	BaseURL    string
	Email      string
	APIToken   string
	ProjectKey string
	Timeout    time.Duration
}

type SalesforceConfig struct {
	LoginURL     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	Timeout      time.Duration
}

func Load() *Config {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		BindAddress: getEnv("BIND_ADDRESS", ""),
		Environment: getEnv("APP_ENV", "development"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "formhub"),
		DBPassword:  getEnv("DB_PASSWORD", "formhub123"),
		DBName:      getEnv("DB_NAME", "formhub"),
		RedisHost:   getEnv("REDIS_HOST", "localhost"),
		RedisPort:   getEnv("REDIS_PORT", "6379"),
		CacheTTL:    getEnvDuration("CACHE_TTL_SECONDS", 60*time.Second),
		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		TokenTTL:    getEnvDuration("TOKEN_TTL_SECONDS", time.Hour),
		Jira: JiraConfig{
			BaseURL:    getEnv("JIRA_BASE_URL", ""),
			Email:      getEnv("JIRA_EMAIL", ""),
			APIToken:   getEnv("JIRA_API_TOKEN", ""),
			ProjectKey: getEnv("JIRA_PROJECT_KEY", ""),
			Timeout:    getEnvDuration("JIRA_TIMEOUT_SECONDS", 15*time.Second),
		},
		Salesforce: SalesforceConfig{
			LoginURL:     getEnv("SALESFORCE_LOGIN_URL", ""),
			ClientID:     getEnv("SALESFORCE_CLIENT_ID", ""),
			ClientSecret: getEnv("SALESFORCE_CLIENT_SECRET", ""),
			Username:     getEnv("SALESFORCE_USERNAME", ""),
			Password:     getEnv("SALESFORCE_PASSWORD", ""),
			Timeout:      getEnvDuration("SALESFORCE_TIMEOUT_SECONDS", 15*time.Second),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func InitRedis(cfg *Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	return client
}
