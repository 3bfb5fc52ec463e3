// Package config provides runtime configuration values for the service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DriverCosmos   = "cosmos"
	DriverMongo    = "mongo"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const (
	EnvCosmosEndpoint  = "CONFIGURATION__AZURECOSMOSDB__ENDPOINT"
	EnvCosmosKey       = "CONFIGURATION__AZURECOSMOSDB__KEY"
	EnvCosmosDatabase  = "CONFIGURATION__AZURECOSMOSDB__DATABASENAME"
	EnvCosmosContainer = "CONFIGURATION__AZURECOSMOSDB__CONTAINERNAME"
)

type Config struct {
	Port            string        `toml:"port"`
	GRPCAddr        string        `toml:"grpc_addr"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	CORSOrigins     []string      `toml:"cors_origins"`
	TrustProxy      bool          `toml:"trust_proxy"`

	Store     StoreConfig     `toml:"store"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Log       LogConfig       `toml:"log"`
}

type StoreConfig struct {
	Driver         string `toml:"driver"`
	CosmosEndpoint string `toml:"cosmos_endpoint"`
	CosmosKey      string `toml:"cosmos_key"`
	DatabaseName   string `toml:"database_name"`
	ContainerName  string `toml:"container_name"`
	MongoURI       string `toml:"mongo_uri"`
	SQLDSN         string `toml:"sql_dsn"`
}

type RateLimitConfig struct {
	Max       int           `toml:"max"`
	Window    time.Duration `toml:"window"`
	RedisAddr string        `toml:"redis_addr"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// GRPCEnabled reports whether the gRPC health listener should start.
func (c Config) GRPCEnabled() bool {
	addr := strings.TrimSpace(c.GRPCAddr)
	return addr != "" && !strings.EqualFold(addr, "off")
}

func (c Config) HTTPAddr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func Default() Config {
	return Config{
		Port:            "3000",
		GRPCAddr:        ":50051",
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{"*"},
		Store: StoreConfig{
			Driver:        DriverCosmos,
			DatabaseName:  "cosmicworks",
			ContainerName: "products",
		},
		RateLimit: RateLimitConfig{
			Max:    100,
			Window: 15 * time.Minute,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadDotEnv exports the variables of a .env file into the process
// environment without overriding ones already set. A missing file is not an
// error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("dotenv load failed (%s): %w", path, err)
	}
	return nil
}

// Load builds the configuration from defaults, then the TOML file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadToml(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadToml(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.GRPCAddr, "GRPC_ADDR")
	setString(&cfg.Store.Driver, "STORE_DRIVER")
	setString(&cfg.Store.CosmosEndpoint, EnvCosmosEndpoint)
	setString(&cfg.Store.CosmosKey, EnvCosmosKey)
	setString(&cfg.Store.DatabaseName, EnvCosmosDatabase)
	setString(&cfg.Store.ContainerName, EnvCosmosContainer)
	setString(&cfg.Store.MongoURI, "MONGO_URI")
	setString(&cfg.Store.SQLDSN, "SQL_DSN")
	setString(&cfg.RateLimit.RedisAddr, "REDIS_ADDR")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	var errs []error
	errs = append(errs,
		setDuration(&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT"),
		setDuration(&cfg.RateLimit.Window, "RATE_LIMIT_WINDOW"),
		setInt(&cfg.RateLimit.Max, "RATE_LIMIT_MAX"),
		setBool(&cfg.TrustProxy, "TRUST_PROXY"),
		setBool(&cfg.Log.Pretty, "LOG_PRETTY"),
	)
	return errors.Join(errs...)
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return fmt.Errorf("config missing port")
	}
	if cfg.RateLimit.Max <= 0 {
		return fmt.Errorf("rate limit max must be > 0")
	}
	if cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be > 0")
	}

	st := cfg.Store
	switch st.Driver {
	case DriverCosmos:
		if strings.TrimSpace(st.CosmosEndpoint) == "" {
			return fmt.Errorf("missing %s", EnvCosmosEndpoint)
		}
		if st.DatabaseName == "" || st.ContainerName == "" {
			return fmt.Errorf("cosmos database and container names are required")
		}
	case DriverMongo:
		if strings.TrimSpace(st.MongoURI) == "" {
			return fmt.Errorf("missing MONGO_URI for store driver %q", st.Driver)
		}
		if st.DatabaseName == "" || st.ContainerName == "" {
			return fmt.Errorf("mongo database and collection names are required")
		}
	case DriverMySQL, DriverPostgres:
		if strings.TrimSpace(st.SQLDSN) == "" {
			return fmt.Errorf("missing SQL_DSN for store driver %q", st.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", st.Driver)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

// setDuration accepts Go duration strings ("15m") or a bare number of
// seconds.
func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(n) * time.Second
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
