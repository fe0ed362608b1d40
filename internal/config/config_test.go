package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "ES_ADDRESSES", "ES_USERNAME", "ES_PASSWORD",
		"S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "S3_BUCKET",
		"VISION_BASE_URL", "VISION_API_KEY", "VISION_MODEL", "CORS_ALLOW_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8082, cfg.Server.Port)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, "fieldsense-activity", cfg.Elasticsearch.ActivityIndex)
	assert.Equal(t, "gpt-4o", cfg.Vision.Model)
	assert.Equal(t, 20, cfg.RateLimit.ProcessPerMinute)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  env: production
database:
  host: db.internal
  dbname: farm
vision:
  model: vision-large
  timeout: 45
rate_limit:
  process_per_minute: 5
`), 0o600))

	t.Setenv("DB_HOST", "db.override")
	t.Setenv("VISION_API_KEY", "sk-test")
	t.Setenv("ES_ADDRESSES", "http://es1:9200, http://es2:9200")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "db.override", cfg.Database.Host)
	assert.Equal(t, "farm", cfg.Database.DBName)
	assert.Equal(t, "vision-large", cfg.Vision.Model)
	assert.Equal(t, "sk-test", cfg.Vision.APIKey)
	assert.Equal(t, 45.0, cfg.Vision.VisionTimeout().Seconds())
	assert.Equal(t, 5, cfg.RateLimit.ProcessPerMinute)
	assert.True(t, cfg.Elasticsearch.Enabled)
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.Elasticsearch.Addresses)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestGetDSN(t *testing.T) {
	dsn := DatabaseConfig{Host: "db", Port: 3307, User: "u", Password: "p@ss", DBName: "farm"}.GetDSN()
	assert.Contains(t, dsn, "u:p@ss@tcp(db:3307)/farm")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestSplitOrigins(t *testing.T) {
	c := CORSConfig{AllowOrigins: "http://a.example, ,http://b.example"}
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, c.SplitOrigins())
}
