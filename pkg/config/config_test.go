package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	v.Set("SUPABASE_URL", "https://demo.supabase.co/")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, BackendSupabase, cfg.App.DataBackend)
	assert.Equal(t, "https://demo.supabase.co", cfg.Supabase.URL, "la barra final se elimina")
	assert.Equal(t, 3, cfg.Workflow.PollMaxAttempts)
	assert.Equal(t, 300*time.Millisecond, cfg.Workflow.PollDelay)
	assert.Equal(t, "productos", cfg.Storage.ProductBucket)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_SupabaseSinURL(t *testing.T) {
	_, err := fromViper(viper.New())
	assert.Error(t, err)
}

func TestFromViper_MemoriaNoRequiereURL(t *testing.T) {
	v := viper.New()
	v.Set("DATA_BACKEND", "memory")
	v.Set("POLL_MAX_ATTEMPTS", "0")
	v.Set("POLL_DELAY_MS", "50")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Workflow.PollMaxAttempts, "nunca menos de un intento")
	assert.Equal(t, 50*time.Millisecond, cfg.Workflow.PollDelay)
}

func TestFromViper_BackendDesconocido(t *testing.T) {
	v := viper.New()
	v.Set("DATA_BACKEND", "mongo")
	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_DSNCodificaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "postgres", Password: "p@ss:w/rd", DBName: "postgres", SSLMode: "require"}
	assert.Equal(t, "postgres://postgres:p%40ss%3Aw%2Frd@db:5432/postgres?sslmode=require", c.ConnectionString())

	c.DatabaseURL = "postgresql://x"
	assert.Equal(t, "postgresql://x", c.ConnectionString())
}
