package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testSecret = "this_is_a_test_secret_key_with_32_chars_minimum"

func TestLoadConfig(t *testing.T) {
	t.Setenv("DB_PASSWORD", "test_password")
	t.Setenv("JWT_SECRET_KEY", testSecret)
	t.Setenv("CONFIG_FILE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.DBPassword != "test_password" {
		t.Errorf("DBPassword = %q, want %q", cfg.DBPassword, "test_password")
	}
	if cfg.DBDriver != DriverPostgres {
		t.Errorf("DBDriver = %q, want %q", cfg.DBDriver, DriverPostgres)
	}
	if cfg.GoalCompletionCredits != 3 {
		t.Errorf("GoalCompletionCredits = %d, want 3", cfg.GoalCompletionCredits)
	}
	if cfg.StreakBonusCredits != 1 {
		t.Errorf("StreakBonusCredits = %d, want 1", cfg.StreakBonusCredits)
	}
	if cfg.GoalResetHour != 3 {
		t.Errorf("GoalResetHour = %d, want 3", cfg.GoalResetHour)
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engage.toml")
	content := `
db_driver = "sqlite"
db_path = "/tmp/from-file.db"
jwt_secret_key = "file_secret_key_that_is_long_enough_32"
goal_completion_credits = 5
public_base_url = "https://file.example"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PUBLIC_BASE_URL", "https://env.example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.DBDriver != DriverSQLite {
		t.Errorf("DBDriver = %q, want sqlite", cfg.DBDriver)
	}
	if cfg.GoalCompletionCredits != 5 {
		t.Errorf("GoalCompletionCredits = %d, want 5 from file", cfg.GoalCompletionCredits)
	}
	if cfg.PublicBaseURL != "https://env.example" {
		t.Errorf("PublicBaseURL = %q, env should win over file", cfg.PublicBaseURL)
	}
}

func TestLoadConfig_BadFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaults()
		cfg.DBPassword = "password"
		cfg.JWTSecret = testSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "Valid postgres", mutate: func(c *Config) {}},
		{name: "Valid sqlite without password", mutate: func(c *Config) { c.DBDriver = DriverSQLite; c.DBPassword = "" }},
		{name: "Unknown driver", mutate: func(c *Config) { c.DBDriver = "mysql" }, wantErr: true},
		{name: "Missing DB_PASSWORD", mutate: func(c *Config) { c.DBPassword = "" }, wantErr: true},
		{name: "Missing JWT_SECRET_KEY", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: true},
		{name: "Short JWT_SECRET_KEY", mutate: func(c *Config) { c.JWTSecret = "short" }, wantErr: true},
		{name: "Reset hour out of range", mutate: func(c *Config) { c.GoalResetHour = 24 }, wantErr: true},
		{name: "Negative reward", mutate: func(c *Config) { c.StreakBonusCredits = -1 }, wantErr: true},
		{name: "Bot token without chat", mutate: func(c *Config) { c.BotToken = "123:abc" }, wantErr: true},
		{name: "Bot token with chat", mutate: func(c *Config) { c.BotToken = "123:abc"; c.AdminChatID = 42 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateProductionSecurity(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *Config
		shouldErr bool
	}{
		{
			name: "Valid production config",
			cfg: &Config{
				AppEnv:    "production",
				DBDriver:  DriverPostgres,
				DBSSLMode: "require",
				JWTSecret: "production_secret_key_different_from_default",
			},
			shouldErr: false,
		},
		{
			name: "Development mode - no validation",
			cfg: &Config{
				AppEnv:    "development",
				DBDriver:  DriverSQLite,
				DBSSLMode: "disable",
			},
			shouldErr: false,
		},
		{
			name: "Production without SSL",
			cfg: &Config{
				AppEnv:    "production",
				DBDriver:  DriverPostgres,
				DBSSLMode: "disable",
				JWTSecret: "production_secret",
			},
			shouldErr: true,
		},
		{
			name: "Production with default JWT secret",
			cfg: &Config{
				AppEnv:    "production",
				DBDriver:  DriverPostgres,
				DBSSLMode: "require",
				JWTSecret: defaultJWTSecret,
			},
			shouldErr: true,
		},
		{
			name: "Production on sqlite",
			cfg: &Config{
				AppEnv:    "production",
				DBDriver:  DriverSQLite,
				DBSSLMode: "require",
				JWTSecret: "production_secret_key_different_from_default",
			},
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateProductionSecurity()
			if tt.shouldErr && err == nil {
				t.Error("ValidateProductionSecurity() expected error, got nil")
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("ValidateProductionSecurity() unexpected error = %v", err)
			}
		})
	}
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{
		DBDriver:   DriverPostgres,
		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "testuser",
		DBPassword: "testpass",
		DBName:     "testdb",
		DBSSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	if dsn := cfg.GetDSN(); dsn != expected {
		t.Errorf("GetDSN() = %q, want %q", dsn, expected)
	}

	cfg.DBDriver = DriverSQLite
	cfg.DBPath = "/tmp/engage.db"
	if dsn := cfg.GetDSN(); dsn != "/tmp/engage.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)" {
		t.Errorf("GetDSN() sqlite = %q", dsn)
	}
}

func TestGetRateLimitWindow(t *testing.T) {
	cfg := &Config{RateLimitWindowSeconds: 90}
	if got := cfg.GetRateLimitWindow(); got != 90*time.Second {
		t.Errorf("GetRateLimitWindow() = %v, want 90s", got)
	}
}
