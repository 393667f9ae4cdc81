package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/laundry?sslmode=disable")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "Asia/Jakarta", cfg.Attendance.Timezone)
	assert.Equal(t, "/attendance/check-in", cfg.Attendance.CheckInPath)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, 2*time.Hour, cfg.Cron.StaleBypassAfter)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "pgx")
	t.Setenv("DATABASE_URL", "postgres://localhost/laundry")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://ops.example.com , ,https://admin.example.com")
	t.Setenv("DATABASE_MAX_CONNECTIONS", "not-a-number")
	t.Setenv("CRON_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPgx, cfg.Database.Driver)
	assert.Equal(t, []string{"https://ops.example.com", "https://admin.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 10, cfg.Database.MaxConnections)
	assert.False(t, cfg.Cron.Enabled)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{Environment: "development"},
			Database:   DatabaseConfig{URL: "postgres://x", Driver: DriverPostgres},
			JWT:        JWTConfig{Secret: "s"},
			Attendance: AttendanceConfig{Timezone: "Asia/Jakarta", CheckInPath: "/attendance/check-in"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing url", func(c *Config) { c.Database.URL = "" }, "DATABASE_URL is required"},
		{"memory without url", func(c *Config) { c.Database.Driver = DriverMemory; c.Database.URL = "" }, ""},
		{"memory in production", func(c *Config) { c.Database.Driver = DriverMemory; c.Server.Environment = "production" }, "not allowed in production"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "invalid DATABASE_DRIVER"},
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }, "JWT_SECRET is required"},
		{"bad timezone", func(c *Config) { c.Attendance.Timezone = "Nowhere/Land" }, "invalid ATTENDANCE_TIMEZONE"},
		{"relative check-in path", func(c *Config) { c.Attendance.CheckInPath = "check-in" }, "absolute path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
