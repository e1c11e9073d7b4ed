package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the API needs at startup.
// Values come from an optional YAML file and are then overridden by environment variables.
type Config struct {
	Port        string        `yaml:"port"`
	Database    Database      `yaml:"database"`
	Auth        Auth          `yaml:"auth"`
	Payment     Payment       `yaml:"payment"`
	Redis       Redis         `yaml:"redis"`
	RabbitMQ    RabbitMQ      `yaml:"rabbitmq"`
	Storage     Storage       `yaml:"storage"`
	Geo         Geo           `yaml:"geo"`
	Telemetry   Telemetry     `yaml:"telemetry"`
	CORSOrigins []string      `yaml:"cors_origins"`
	ShutdownIn  time.Duration `yaml:"shutdown_timeout"`
}

type Database struct {
	Driver   string `yaml:"driver"` // "postgres" or "sqlite"
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Path     string `yaml:"path"` // sqlite file
}

// DSN builds the postgres connection string, preferring the full URL when given.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.User, d.Password, d.Name, d.Port,
	)
}

type Auth struct {
	JWTSecret           string        `yaml:"jwt_secret"`
	APIKey              string        `yaml:"api_key"`
	SuperAdminEmail     string        `yaml:"super_admin_email"`
	FirebaseProjectID   string        `yaml:"firebase_project_id"`
	FirebaseCredentials string        `yaml:"firebase_credentials_json"`
	TokenTTL            time.Duration `yaml:"token_ttl"`
	GuestSessionTTL     time.Duration `yaml:"guest_session_ttl"`
}

type Payment struct {
	WebhookSecret string `yaml:"webhook_secret"`
	Sandbox       bool   `yaml:"sandbox"`
}

type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"geocode_ttl"`
}

type RabbitMQ struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type Storage struct {
	Driver     string `yaml:"driver"` // "local" or "s3"
	UploadDir  string `yaml:"upload_dir"`
	BackupDir  string `yaml:"backup_dir"`
	PublicURL  string `yaml:"public_url"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Region   string `yaml:"s3_region"`
	S3Endpoint string `yaml:"s3_endpoint"`
}

type Geo struct {
	PostalURL  string        `yaml:"postal_url"`
	GeocodeURL string        `yaml:"geocode_url"`
	UserAgent  string        `yaml:"user_agent"`
	Timeout    time.Duration `yaml:"timeout"`
}

type Telemetry struct {
	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Environment  string `yaml:"environment"`
	LogLevel     string `yaml:"log_level"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Port: "8080",
		Database: Database{
			Driver: "postgres",
			Port:   "5432",
			Path:   "menuly.db",
		},
		Auth: Auth{
			TokenTTL:        24 * time.Hour,
			GuestSessionTTL: 24 * time.Hour,
		},
		Redis: Redis{TTL: 30 * 24 * time.Hour},
		RabbitMQ: RabbitMQ{
			Exchange: "orders_topic",
		},
		Storage: Storage{
			Driver:    "local",
			UploadDir: "./uploads",
			PublicURL: "/uploads",
		},
		Geo: Geo{
			PostalURL:  "https://viacep.com.br/ws",
			GeocodeURL: "https://nominatim.openstreetmap.org/search",
			UserAgent:  "menuly-delivery/1.0",
			Timeout:    3 * time.Second,
		},
		Telemetry: Telemetry{
			ServiceName: "menuly-api",
			Environment: "local",
			LogLevel:    "info",
		},
		CORSOrigins: []string{"*"},
		ShutdownIn:  10 * time.Second,
	}
}

// Load reads .env, then the YAML file named by CONFIG_FILE (if any), then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET must be set")
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Port, "PORT")

	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Database.Host, "DB_HOST")
	setString(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Name, "DB_NAME")
	setString(&cfg.Database.Path, "DB_PATH")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.APIKey, "COST_API_KEY")
	setString(&cfg.Auth.SuperAdminEmail, "SUPER_ADMIN_EMAIL")
	setString(&cfg.Auth.FirebaseProjectID, "FIREBASE_PROJECT_ID")
	setString(&cfg.Auth.FirebaseCredentials, "FIREBASE_CREDENTIALS_JSON")
	setDuration(&cfg.Auth.TokenTTL, "TOKEN_TTL")
	setDuration(&cfg.Auth.GuestSessionTTL, "GUEST_SESSION_TTL")

	setString(&cfg.Payment.WebhookSecret, "PAYMENT_WEBHOOK_SECRET")
	if mode := strings.ToLower(os.Getenv("PAYMENT_MODE")); mode == "sandbox" || mode == "dev" {
		cfg.Payment.Sandbox = true
	}

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setDuration(&cfg.Redis.TTL, "GEOCODE_CACHE_TTL")

	setString(&cfg.RabbitMQ.URL, "RABBITMQ_URL")
	setString(&cfg.RabbitMQ.Exchange, "RABBITMQ_EXCHANGE")

	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.UploadDir, "UPLOAD_DIR")
	setString(&cfg.Storage.BackupDir, "BACKUP_DIR")
	setString(&cfg.Storage.PublicURL, "PUBLIC_UPLOAD_URL")
	setString(&cfg.Storage.S3Bucket, "S3_BUCKET")
	setString(&cfg.Storage.S3Region, "S3_REGION")
	setString(&cfg.Storage.S3Endpoint, "S3_ENDPOINT")

	setString(&cfg.Geo.PostalURL, "POSTAL_LOOKUP_URL")
	setString(&cfg.Geo.GeocodeURL, "GEOCODE_URL")
	setString(&cfg.Geo.UserAgent, "GEOCODE_USER_AGENT")
	setDuration(&cfg.Geo.Timeout, "GEO_TIMEOUT")

	setString(&cfg.Telemetry.ServiceName, "OTEL_SERVICE_NAME")
	setString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.Telemetry.Environment, "APP_ENV")
	setString(&cfg.Telemetry.LogLevel, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
