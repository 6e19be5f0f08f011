package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMap_Defaults(t *testing.T) {
	cfg, err := FromMap(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "mongodb://localhost:27017/auth_portal", cfg.DBURL)
	assert.Equal(t, DevJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, []string{"http://localhost:5000"}, cfg.CORSOrigins)
	assert.Equal(t, ":5000", cfg.Addr())
}

func TestFromMap_Overrides(t *testing.T) {
	cfg, err := FromMap(map[string]string{
		"APP_ENV":      "prod",
		"PORT":         "8081",
		"DATABASE_URL": "postgres://u:p@db:5432/portal",
		"JWT_SECRET":   "a-much-longer-production-secret",
		"JWT_TTL":      "1h",
		"CORS_ORIGINS": "https://a.example,https://b.example",
	})
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestFromMap_Rejects(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"dev secret in prod", map[string]string{"APP_ENV": "prod"}},
		{"short secret", map[string]string{"JWT_SECRET": "short"}},
		{"bad port", map[string]string{"PORT": "70000"}},
		{"non numeric port", map[string]string{"PORT": "http"}},
		{"zero ttl", map[string]string{"JWT_TTL": "0s"}},
		{"bcrypt cost", map[string]string{"BCRYPT_COST": "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromMap(tt.vars)
			require.Error(t, err)
		})
	}
}
