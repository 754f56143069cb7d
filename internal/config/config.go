package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// OIDC holds the bearer token verification settings. It is read once at startup;
// rotating the public key requires a restart.
type OIDC struct {
	// PublicKey is either a PEM block or a bare base64 SPKI key.
	PublicKey string
	// ServerURL and Realm build the expected issuer: {ServerURL}/realms/{Realm}.
	ServerURL string
	Realm     string
}

type Config struct {
	Port string

	DBHost string
	DBPort string
	DBName string
	DBUser string
	DBPass string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	// Env is "dev" (default) or "prod". When "prod", the OIDC public key must be set.
	Env string

	OIDC OIDC

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	// LogFormat is "text" (default) or "json".
	LogFormat string

	// CORSAllowedOrigins is set via CORS_ALLOWED_ORIGINS (comma-separated).
	CORSAllowedOrigins []string

	// MaxBodyBytes caps request bodies; GeoJSON documents can be large (default 4 MiB).
	MaxBodyBytes int

	// MutationsPerMinute limits PUT/PATCH/DELETE per principal (default 120).
	MutationsPerMinute int

	// LedgerStatsCron is the cron spec for refreshing ledger gauges (default "@every 5m").
	LedgerStatsCron string
}

// fileConfig mirrors the optional YAML file named by CONFIG_FILE.
type fileConfig struct {
	Server struct {
		Port               string   `yaml:"port"`
		Env                string   `yaml:"env"`
		LogFormat          string   `yaml:"logFormat"`
		CORSAllowedOrigins []string `yaml:"corsAllowedOrigins"`
		TLSCertFile        string   `yaml:"tlsCertFile"`
		TLSKeyFile         string   `yaml:"tlsKeyFile"`
		MaxBodyBytes       int      `yaml:"maxBodyBytes"`
		MutationsPerMinute int      `yaml:"mutationsPerMinute"`
		OIDC               struct {
			PublicKey string `yaml:"publicKey"`
			ServerURL string `yaml:"serverUrl"`
			Realm     string `yaml:"realm"`
		} `yaml:"oidc"`
	} `yaml:"server"`
	DB struct {
		Host         string `yaml:"host"`
		Port         string `yaml:"port"`
		Name         string `yaml:"name"`
		User         string `yaml:"user"`
		Pass         string `yaml:"pass"`
		MaxOpenConns int    `yaml:"maxOpenConns"`
		MaxIdleConns int    `yaml:"maxIdleConns"`
	} `yaml:"db"`
	Audit struct {
		StatsCron string `yaml:"statsCron"`
	} `yaml:"audit"`
}

// Load builds the Config from defaults, then the YAML file named by CONFIG_FILE (if any),
// then environment variables, each layer overriding the previous one.
func Load() (Config, error) {
	var fc fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	return fromFile(fc), nil
}

func fromFile(fc fileConfig) Config {
	cfg := Config{
		Port: getEnv("PORT", orDefault(fc.Server.Port, "8080")),

		DBHost: getEnv("DB_HOST", orDefault(fc.DB.Host, "localhost")),
		DBPort: getEnv("DB_PORT", orDefault(fc.DB.Port, "5432")),
		DBName: getEnv("DB_NAME", orDefault(fc.DB.Name, "geodb")),
		DBUser: getEnv("DB_USER", orDefault(fc.DB.User, "geouser")),
		DBPass: getEnv("DB_PASS", orDefault(fc.DB.Pass, "geopass")),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", orDefaultInt(fc.DB.MaxOpenConns, 25)),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", orDefaultInt(fc.DB.MaxIdleConns, 5)),

		Env: getEnv("ENV", orDefault(fc.Server.Env, "dev")),

		OIDC: OIDC{
			PublicKey: getEnv("SERVER_OIDC_PUBLICKEY", fc.Server.OIDC.PublicKey),
			ServerURL: getEnv("SERVER_OIDC_SERVERURL", fc.Server.OIDC.ServerURL),
			Realm:     getEnv("SERVER_OIDC_REALM", fc.Server.OIDC.Realm),
		},

		TLSCertFile: getEnv("TLS_CERT_FILE", fc.Server.TLSCertFile),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", fc.Server.TLSKeyFile),

		LogFormat: getEnv("LOG_FORMAT", orDefault(fc.Server.LogFormat, "text")),

		MaxBodyBytes:       getEnvInt("MAX_BODY_BYTES", orDefaultInt(fc.Server.MaxBodyBytes, 4<<20)),
		MutationsPerMinute: getEnvInt("MUTATIONS_PER_MINUTE", orDefaultInt(fc.Server.MutationsPerMinute, 120)),

		LedgerStatsCron: getEnv("LEDGER_STATS_CRON", orDefault(fc.Audit.StatsCron, "@every 5m")),
	}

	cfg.CORSAllowedOrigins = fc.Server.CORSAllowedOrigins
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = parseCORSOrigins(v)
	}
	return cfg
}

// Validate reports configuration that must not reach production.
func (c Config) Validate() error {
	if c.Env == "prod" && c.OIDC.PublicKey == "" {
		return fmt.Errorf("SERVER_OIDC_PUBLICKEY or server.oidc.publicKey must be set when ENV=prod")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	return nil
}

// DatabaseURL returns a postgres URL suitable for golang-migrate.
func (c Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPass),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func orDefaultInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
