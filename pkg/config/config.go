package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backends de datos soportados por DATA_BACKEND.
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	Supabase SupabaseConfig
	Storage  StorageConfig
	DB       DBConfig
	Workflow WorkflowConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env         string // development, staging, production
	Name        string
	LogLevel    string
	DataBackend string // supabase, postgres, memory
}

// SupabaseConfig acceso al backend remoto (REST, storage y funciones).
type SupabaseConfig struct {
	URL        string
	ServiceKey string // service_role: solo del lado servidor
	JWTSecret  string // valida los access tokens de los usuarios
	Timeout    time.Duration
}

// StorageConfig nombres de buckets.
type StorageConfig struct {
	ProductBucket string
	AvatarBucket  string
}

// DBConfig configuración de PostgreSQL (solo con DATA_BACKEND=postgres).
// Si DatabaseURL no está vacío, se usa como connection string completo (ej. DATABASE_URL de Supabase).
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// WorkflowConfig parámetros de los flujos de armado de entidades.
type WorkflowConfig struct {
	PollMaxAttempts   int
	PollDelay         time.Duration
	UploadConcurrency int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:         getString(v, "APP_ENV", "development"),
			Name:        getString(v, "APP_NAME", "colmado-api"),
			LogLevel:    getString(v, "LOG_LEVEL", "info"),
			DataBackend: strings.ToLower(getString(v, "DATA_BACKEND", BackendSupabase)),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Supabase: SupabaseConfig{
			URL:        strings.TrimRight(getString(v, "SUPABASE_URL", ""), "/"),
			ServiceKey: getString(v, "SUPABASE_SERVICE_KEY", ""),
			JWTSecret:  getString(v, "SUPABASE_JWT_SECRET", ""),
			Timeout:    time.Duration(getInt(v, "SUPABASE_TIMEOUT_SECONDS", 20)) * time.Second,
		},
		Storage: StorageConfig{
			ProductBucket: getString(v, "STORAGE_PRODUCT_BUCKET", "productos"),
			AvatarBucket:  getString(v, "STORAGE_AVATAR_BUCKET", "avatars"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "postgres"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
		},
		Workflow: WorkflowConfig{
			PollMaxAttempts:   getInt(v, "POLL_MAX_ATTEMPTS", 3),
			PollDelay:         time.Duration(getInt(v, "POLL_DELAY_MS", 300)) * time.Millisecond,
			UploadConcurrency: getInt(v, "UPLOAD_CONCURRENCY", 3),
		},
	}

	switch cfg.App.DataBackend {
	case BackendSupabase, BackendPostgres:
		if cfg.Supabase.URL == "" {
			return nil, fmt.Errorf("SUPABASE_URL es obligatorio con DATA_BACKEND=%s", cfg.App.DataBackend)
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("DATA_BACKEND desconocido: %q", cfg.App.DataBackend)
	}
	if cfg.Workflow.PollMaxAttempts < 1 {
		cfg.Workflow.PollMaxAttempts = 1
	}
	if cfg.DB.MaxConns < 1 {
		cfg.DB.MaxConns = 1
	}
	if cfg.Workflow.UploadConcurrency < 1 {
		cfg.Workflow.UploadConcurrency = 1
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
