package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/sirosfoundation/go-dugong/pkg/logging"
)

// EnvPrefix is the prefix for all namespaced environment variables
const EnvPrefix = "DUGONG"

// Storage types
const (
	StorageSupabase = "supabase"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMongoDB  = "mongodb"
	StorageMemory   = "memory"
)

// Credential policies decide what happens when the data service is not configured
const (
	CredentialsWarn = "warn"
	CredentialsFail = "fail"
)

// Stylesheet compilers
const (
	CompilerAuto     = "auto"
	CompilerDartSass = "dartsass"
	CompilerCSS      = "css"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Service   ServiceConfig    `yaml:"service" envconfig:"SERVICE"`
	Storage   StorageConfig    `yaml:"storage" envconfig:"STORAGE"`
	Styles    StylesConfig     `yaml:"styles" envconfig:"STYLES"`
	Templates TemplatesConfig  `yaml:"templates" envconfig:"TEMPLATES"`
	Features  FeatureOverrides `yaml:"features" envconfig:"FEATURES"`
	CORS      CORSConfig       `yaml:"cors" envconfig:"CORS"`
	RateLimit RateLimitConfig  `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	Logging   logging.Config   `yaml:"logging" envconfig:"LOGGING"`

	// Variant selects a feature preset: base, sample, demo or all
	Variant string `yaml:"variant" split_words:"true"`
	// CredentialsPolicy is warn (degraded mode) or fail (refuse to start)
	CredentialsPolicy string `yaml:"credentials_policy" split_words:"true"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string `yaml:"host" split_words:"true"`
	Port            int    `yaml:"port" split_words:"true"`
	ViewsDir        string `yaml:"views_dir" split_words:"true"`
	StaticRoot      string `yaml:"static_root" split_words:"true"`
	StaticPrefix    string `yaml:"static_prefix" split_words:"true"`
	ReadTimeout     int    `yaml:"read_timeout" split_words:"true"`     // seconds
	WriteTimeout    int    `yaml:"write_timeout" split_words:"true"`    // seconds
	ShutdownTimeout int    `yaml:"shutdown_timeout" split_words:"true"` // seconds
}

// ServiceConfig describes the hosted backend-as-a-service holding the guestbook.
// The unprefixed API_URL, API_KEY and SCHEMA variables are honoured as well.
type ServiceConfig struct {
	URL     string `yaml:"url" split_words:"true"`
	Key     string `yaml:"key" split_words:"true"`
	Schema  string `yaml:"schema" split_words:"true"`
	Table   string `yaml:"table" split_words:"true"`
	Timeout int    `yaml:"timeout" split_words:"true"` // seconds
}

// StorageConfig selects where guestbook rows are read from
type StorageConfig struct {
	Type     string         `yaml:"type" split_words:"true"` // supabase, postgres, sqlite, mongodb, memory
	Postgres PostgresConfig `yaml:"postgres" envconfig:"POSTGRES"`
	SQLite   SQLiteConfig   `yaml:"sqlite" envconfig:"SQLITE"`
	MongoDB  MongoDBConfig  `yaml:"mongodb" envconfig:"MONGODB"`
}

// PostgresConfig connects directly to the database behind the hosted service
type PostgresConfig struct {
	DSN string `yaml:"dsn" split_words:"true"`
}

// SQLiteConfig contains SQLite-specific configuration
type SQLiteConfig struct {
	Path string `yaml:"path" split_words:"true"`
}

// MongoDBConfig contains MongoDB-specific configuration
type MongoDBConfig struct {
	URI        string `yaml:"uri" split_words:"true"`
	Database   string `yaml:"database" split_words:"true"`
	Collection string `yaml:"collection" split_words:"true"`
	Timeout    int    `yaml:"timeout" split_words:"true"` // seconds
}

// StylesConfig controls the startup stylesheet build
type StylesConfig struct {
	Source         string `yaml:"source" split_words:"true"`
	Destination    string `yaml:"destination" split_words:"true"`
	Compiler       string `yaml:"compiler" split_words:"true"` // auto, dartsass, css
	DartSassBinary string `yaml:"dart_sass_binary" split_words:"true"`
	// Await blocks the listener until the build finished
	Await  bool `yaml:"await" split_words:"true"`
	Minify bool `yaml:"minify" split_words:"true"`
}

// TemplatesConfig controls the template renderer
type TemplatesConfig struct {
	Extension string `yaml:"extension" split_words:"true"`
	// Reload re-parses templates on every render (development)
	Reload bool `yaml:"reload" split_words:"true"`
}

// FeatureOverrides override single features of the selected variant.
// Nil means "keep the variant's value".
type FeatureOverrides struct {
	About       *bool `yaml:"about" split_words:"true"`
	Subpages    *bool `yaml:"subpages" split_words:"true"`
	Persistence *bool `yaml:"persistence" split_words:"true"`
	Demo        *bool `yaml:"demo" split_words:"true"`
}

// CORSConfig contains cross-origin settings for the router
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins" split_words:"true"`
	AllowedMethods   []string `yaml:"allowed_methods" split_words:"true"`
	AllowedHeaders   []string `yaml:"allowed_headers" split_words:"true"`
	ExposedHeaders   []string `yaml:"exposed_headers" split_words:"true"`
	AllowCredentials bool     `yaml:"allow_credentials" split_words:"true"`
	MaxAge           int      `yaml:"max_age" split_words:"true"` // seconds
}

// RateLimitConfig limits requests per client on the /api routes
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" split_words:"true"`
	RequestsPerMinute int  `yaml:"requests_per_minute" split_words:"true"`
	BurstSize         int  `yaml:"burst_size" split_words:"true"`
}

// serviceEnv holds the unprefixed variable names
type serviceEnv struct {
	URL    string `envconfig:"API_URL"`
	Key    string `envconfig:"API_KEY"`
	Schema string `envconfig:"SCHEMA"`
}

// Load loads configuration from defaults, a YAML file and environment variables.
// Later sources win: defaults < YAML < DUGONG_* < API_URL/API_KEY/SCHEMA.
func Load(configFile string) (*Config, error) {
	cfg := defaultConfig()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// No file, defaults and env vars only
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	var bare serviceEnv
	if err := envconfig.Process("", &bare); err != nil {
		return nil, fmt.Errorf("failed to process service environment variables: %w", err)
	}
	if bare.URL != "" {
		cfg.Service.URL = bare.URL
	}
	if bare.Key != "" {
		cfg.Service.Key = bare.Key
	}
	if bare.Schema != "" {
		cfg.Service.Schema = bare.Schema
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// defaultConfig returns a Config with sensible default values
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3331,
			ViewsDir:        "views",
			StaticRoot:      "public",
			StaticPrefix:    "/",
			ReadTimeout:     15,
			WriteTimeout:    15,
			ShutdownTimeout: 30,
		},
		Service: ServiceConfig{
			Table:   "guestbook",
			Timeout: 10,
		},
		Storage: StorageConfig{
			Type: StorageSupabase,
			SQLite: SQLiteConfig{
				Path: "guestbook.db",
			},
			MongoDB: MongoDBConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "dugong",
				Collection: "guestbook",
				Timeout:    10,
			},
		},
		Styles: StylesConfig{
			Source:      "views/styles/MAIN.scss",
			Destination: "public/assets/styles.css",
			Compiler:    CompilerAuto,
			Await:       true,
			Minify:      true,
		},
		Templates: TemplatesConfig{
			Extension: ".html",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "HX-Request", "HX-Current-URL", "HX-Target", "HX-Trigger"},
			MaxAge:         43200,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 120,
			BurstSize:         20,
		},
		Logging:           logging.DefaultConfig(),
		Variant:           "all",
		CredentialsPolicy: CredentialsWarn,
	}
}

// Default returns the built-in configuration without reading files or env
func Default() *Config {
	return defaultConfig()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ViewsDir == "" {
		return fmt.Errorf("views_dir is required")
	}

	if c.Server.StaticRoot == "" {
		return fmt.Errorf("static_root is required")
	}

	if len(c.Server.StaticPrefix) == 0 || c.Server.StaticPrefix[0] != '/' {
		return fmt.Errorf("static_prefix must start with '/': %q", c.Server.StaticPrefix)
	}

	switch c.Storage.Type {
	case StorageSupabase, StoragePostgres, StorageSQLite, StorageMongoDB, StorageMemory:
	default:
		return fmt.Errorf("invalid storage type: %s (must be supabase, postgres, sqlite, mongodb, or memory)", c.Storage.Type)
	}

	if !identifierPattern.MatchString(c.Service.Table) {
		return fmt.Errorf("invalid table name: %q", c.Service.Table)
	}

	if c.Service.Schema != "" && !identifierPattern.MatchString(c.Service.Schema) {
		return fmt.Errorf("invalid schema name: %q", c.Service.Schema)
	}

	if c.Storage.Type == StorageSQLite && c.Storage.SQLite.Path == "" {
		return fmt.Errorf("sqlite path is required when using sqlite storage")
	}

	switch c.Styles.Compiler {
	case CompilerAuto, CompilerDartSass, CompilerCSS:
	default:
		return fmt.Errorf("invalid stylesheet compiler: %s (must be auto, dartsass, or css)", c.Styles.Compiler)
	}

	if c.Styles.Source == "" || c.Styles.Destination == "" {
		return fmt.Errorf("styles source and destination are required")
	}

	switch c.Variant {
	case "", "all", "base", "sample", "demo":
	default:
		return fmt.Errorf("invalid variant: %s (must be base, sample, demo, or all)", c.Variant)
	}

	switch c.CredentialsPolicy {
	case CredentialsWarn, CredentialsFail:
	default:
		return fmt.Errorf("invalid credentials policy: %s (must be warn or fail)", c.CredentialsPolicy)
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("cors allowed_origins must not be empty")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerMinute < 1 || c.RateLimit.BurstSize < 1) {
		return fmt.Errorf("rate limit needs positive requests_per_minute and burst_size")
	}

	return nil
}

// MissingCredentials lists the settings the selected storage type needs but lacks.
// Validate does not fail on them: the credentials policy decides.
func (c *Config) MissingCredentials() []string {
	var missing []string
	switch c.Storage.Type {
	case StorageSupabase:
		if c.Service.URL == "" {
			missing = append(missing, "API_URL")
		}
		if c.Service.Key == "" {
			missing = append(missing, "API_KEY")
		}
	case StoragePostgres:
		if c.Storage.Postgres.DSN == "" {
			missing = append(missing, EnvPrefix+"_STORAGE_POSTGRES_DSN")
		}
	case StorageMongoDB:
		if c.Storage.MongoDB.URI == "" {
			missing = append(missing, EnvPrefix+"_STORAGE_MONGODB_URI")
		}
	}
	return missing
}

// Address returns the server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
