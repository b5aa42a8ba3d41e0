package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// Database
	DBDriver   string `toml:"db_driver"`
	DBHost     string `toml:"db_host"`
	DBPort     string `toml:"db_port"`
	DBUser     string `toml:"db_user"`
	DBPassword string `toml:"db_password"`
	DBName     string `toml:"db_name"`
	DBSSLMode  string `toml:"db_sslmode"`
	DBPath     string `toml:"db_path"`

	// Security
	JWTSecret string `toml:"jwt_secret_key"`

	// Application
	AppEnv        string `toml:"app_env"`
	AppPort       string `toml:"app_port"`
	LogLevel      string `toml:"log_level"`
	PublicBaseURL string `toml:"public_base_url"`

	// Day boundaries
	GoalDayPolicy string `toml:"goal_day_policy"`
	GoalResetHour int    `toml:"goal_reset_hour"`
	AppTimezone   string `toml:"app_timezone"`

	// Credits
	GoalCompletionCredits int64 `toml:"goal_completion_credits"`
	StreakBonusCredits    int64 `toml:"streak_bonus_credits"`

	// Rate Limiting
	RateLimitPerUser       int `toml:"rate_limit_per_user"`
	RateLimitPerIP         int `toml:"rate_limit_per_ip"`
	RateLimitWindowSeconds int `toml:"rate_limit_window_seconds"`

	// Admin notifications
	BotToken    string `toml:"bot_token"`
	AdminChatID int64  `toml:"admin_chat_id"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const defaultJWTSecret = "your_jwt_secret_minimum_32_chars_here_change_this"

func defaults() *Config {
	return &Config{
		DBDriver:  DriverPostgres,
		DBHost:    "localhost",
		DBPort:    "5432",
		DBUser:    "engage",
		DBName:    "engage_db",
		DBSSLMode: "disable",
		DBPath:    "./engage.db",

		AppEnv:        "development",
		AppPort:       "8080",
		LogLevel:      "info",
		PublicBaseURL: "http://localhost:3000",

		GoalDayPolicy: "fixed_hour",
		GoalResetHour: 3,

		GoalCompletionCredits: 3,
		StreakBonusCredits:    1,

		RateLimitPerUser:       60,
		RateLimitPerIP:         300,
		RateLimitWindowSeconds: 60,
	}
}

// LoadConfig builds the configuration from defaults, then the optional TOML
// file named by CONFIG_FILE, then environment variables.
func LoadConfig() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	overrideFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func overrideFromEnv(cfg *Config) {
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBSSLMode = getEnv("DB_SSLMODE", cfg.DBSSLMode)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)

	cfg.JWTSecret = getEnv("JWT_SECRET_KEY", cfg.JWTSecret)

	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.AppPort = getEnv("APP_PORT", cfg.AppPort)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.PublicBaseURL = getEnv("PUBLIC_BASE_URL", cfg.PublicBaseURL)

	cfg.GoalDayPolicy = getEnv("GOAL_DAY_POLICY", cfg.GoalDayPolicy)
	cfg.GoalResetHour = getEnvInt("GOAL_RESET_HOUR", cfg.GoalResetHour)
	cfg.AppTimezone = getEnv("APP_TIMEZONE", cfg.AppTimezone)

	cfg.GoalCompletionCredits = getEnvInt64("GOAL_COMPLETION_CREDITS", cfg.GoalCompletionCredits)
	cfg.StreakBonusCredits = getEnvInt64("STREAK_BONUS_CREDITS", cfg.StreakBonusCredits)

	cfg.RateLimitPerUser = getEnvInt("RATE_LIMIT_PER_USER", cfg.RateLimitPerUser)
	cfg.RateLimitPerIP = getEnvInt("RATE_LIMIT_PER_IP", cfg.RateLimitPerIP)
	cfg.RateLimitWindowSeconds = getEnvInt("RATE_LIMIT_WINDOW_SECONDS", cfg.RateLimitWindowSeconds)

	cfg.BotToken = getEnv("BOT_TOKEN", cfg.BotToken)
	cfg.AdminChatID = getEnvInt64("ADMIN_CHAT_ID", cfg.AdminChatID)
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DBDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters")
	}
	if c.PublicBaseURL == "" {
		return fmt.Errorf("PUBLIC_BASE_URL is required")
	}
	if c.GoalResetHour < 0 || c.GoalResetHour > 23 {
		return fmt.Errorf("GOAL_RESET_HOUR must be between 0 and 23")
	}
	if c.GoalCompletionCredits < 0 || c.StreakBonusCredits < 0 {
		return fmt.Errorf("credit rewards must not be negative")
	}
	if c.BotToken != "" && c.AdminChatID == 0 {
		return fmt.Errorf("ADMIN_CHAT_ID is required when BOT_TOKEN is set")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.DBDriver != DriverPostgres {
		return fmt.Errorf("DB_DRIVER must be 'postgres' in production")
	}
	if c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET_KEY must be changed from default in production")
	}

	return nil
}

func (c *Config) GetDSN() string {
	if c.DBDriver == DriverSQLite {
		return c.DBPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) GetRateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}
