package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "postgres"},
		Auth: AuthConfig{
			JWTSecret:      "test-secret-key-for-unit-testing",
			AccessTokenTTL: time.Hour,
		},
		Loan: LoanConfig{DefaultDays: 7, MaxDays: 30},
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Failures(t *testing.T) {
	cases := map[string]func(c *Config){
		"空密钥":      func(c *Config) { c.Auth.JWTSecret = "" },
		"密钥过短":     func(c *Config) { c.Auth.JWTSecret = "short" },
		"端口越界":     func(c *Config) { c.Server.Port = 70000 },
		"未知驱动":     func(c *Config) { c.Database.Driver = "oracle" },
		"默认借期非法":   func(c *Config) { c.Loan.DefaultDays = 0 },
		"最大借期小于默认": func(c *Config) { c.Loan.MaxDays = 3 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoad_DefaultsWithEnv(t *testing.T) {
	t.Setenv("VSPORTS_AUTH_JWT_SECRET", "env-secret-key-for-testing-123")
	t.Setenv("VSPORTS_DB_DRIVER", "sqlite")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 7, cfg.Loan.DefaultDays)
	assert.Equal(t, 30, cfg.Loan.MaxDays)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestDSN_ByDriver(t *testing.T) {
	c := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable", Timezone: "UTC"}
	assert.Contains(t, c.DSN(), "host=db port=5432")

	c.Driver = "mysql"
	c.Port = 3306
	assert.Contains(t, c.DSN(), "u:p@tcp(db:3306)/n")

	c.Driver = "sqlite"
	c.Path = ":memory:"
	assert.Contains(t, c.DSN(), "memory")
}
