package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, devJWTSecret, cfg.JWT.Secret)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, int64(5<<20), cfg.Storage.MaxImageBytes)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TAJEATS_APP_PORT", "9090")
	t.Setenv("TAJEATS_DATABASE_DRIVER", "postgres")
	t.Setenv("TAJEATS_DATABASE_DSN", "host=db user=tajeats dbname=tajeats")
	t.Setenv("TAJEATS_JWT_EXPIRATION", "2h")
	t.Setenv("TAJEATS_KAFKA_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiration)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tajeats.toml")
	content := `
[app]
env = "staging"

[storage]
driver = "s3"
s3_bucket = "tajeats-images"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.Equal(t, "tajeats-images", cfg.Storage.S3Bucket)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown driver", map[string]string{"TAJEATS_DATABASE_DRIVER": "mysql"}, "database.driver"},
		{"postgres without dsn", map[string]string{"TAJEATS_DATABASE_DRIVER": "postgres"}, "database.dsn"},
		{"production without secret", map[string]string{"TAJEATS_APP_ENV": "production"}, "jwt.secret"},
		{"short production secret", map[string]string{"TAJEATS_APP_ENV": "production", "TAJEATS_JWT_SECRET": "short"}, "32 characters"},
		{"s3 without bucket", map[string]string{"TAJEATS_STORAGE_DRIVER": "s3"}, "s3_bucket"},
		{"unknown storage", map[string]string{"TAJEATS_STORAGE_DRIVER": "ftp"}, "storage.driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOpenDB_SQLiteAndMigrate(t *testing.T) {
	cfg := DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db"), LogLevel: "silent"}

	db, err := OpenDB(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "restaurants", "dishes", "reviews", "orders", "cart_items", "order_status_histories"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	_, err = OpenDB(DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}
