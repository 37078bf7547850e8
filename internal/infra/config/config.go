// internal/infra/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageMemory    = "memory"
	StorageFile      = "file"
	StorageSQLite    = "sqlite"
	StoragePostgres  = "postgres"
	StorageFirestore = "firestore"
)

var ErrInvalidConfig = errors.New("config: invalid")

// Config holds the application settings.
// Sources, later wins: defaults, YAML file (CART_CONFIG), .env, environment.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	MaxQuantity    int

	Storage             string
	StoragePath         string
	StorageDSN          string
	FirestoreCollection string

	FirestoreProjectID       string
	FirestoreCredentialsFile string
	FirebaseProjectID        string

	CheckoutSuccessURL string
	CheckoutCancelURL  string

	LogLevel string
}

// fileConfig is the YAML layout.
type fileConfig struct {
	API struct {
		BaseURL        string `yaml:"base_url"`
		RequestTimeout string `yaml:"request_timeout"`
	} `yaml:"api"`
	Cart struct {
		MaxQuantity int `yaml:"max_quantity"`
	} `yaml:"cart"`
	Storage struct {
		Backend    string `yaml:"backend"`
		Path       string `yaml:"path"`
		DSN        string `yaml:"dsn"`
		Collection string `yaml:"collection"`
	} `yaml:"storage"`
	Firestore struct {
		ProjectID       string `yaml:"project_id"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"firestore"`
	Firebase struct {
		ProjectID string `yaml:"project_id"`
	} `yaml:"firebase"`
	Checkout struct {
		SuccessURL string `yaml:"success_url"`
		CancelURL  string `yaml:"cancel_url"`
	} `yaml:"checkout"`
	LogLevel string `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		APIBaseURL:          "http://localhost:8000/api",
		RequestTimeout:      10 * time.Second,
		MaxQuantity:         99,
		Storage:             StorageFile,
		StoragePath:         defaultStoragePath(),
		FirestoreCollection: "local_state",
		LogLevel:            "info",
	}
}

func defaultStoragePath() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "papeleria-cart")
	}
	return ".papeleria-cart"
}

// Load reads .env (when present), the YAML file named by CART_CONFIG (when set)
// and the environment.
func Load() (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("CART_CONFIG")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	setString(&c.APIBaseURL, f.API.BaseURL)
	if f.API.RequestTimeout != "" {
		d, err := parseTimeout(f.API.RequestTimeout)
		if err != nil {
			return err
		}
		c.RequestTimeout = d
	}
	if f.Cart.MaxQuantity != 0 {
		c.MaxQuantity = f.Cart.MaxQuantity
	}
	setString(&c.Storage, f.Storage.Backend)
	setString(&c.StoragePath, f.Storage.Path)
	setString(&c.StorageDSN, f.Storage.DSN)
	setString(&c.FirestoreCollection, f.Storage.Collection)
	setString(&c.FirestoreProjectID, f.Firestore.ProjectID)
	setString(&c.FirestoreCredentialsFile, f.Firestore.CredentialsFile)
	setString(&c.FirebaseProjectID, f.Firebase.ProjectID)
	setString(&c.CheckoutSuccessURL, f.Checkout.SuccessURL)
	setString(&c.CheckoutCancelURL, f.Checkout.CancelURL)
	setString(&c.LogLevel, f.LogLevel)
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.APIBaseURL, os.Getenv("CART_API_BASE_URL"))
	if v := strings.TrimSpace(os.Getenv("CART_REQUEST_TIMEOUT")); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return err
		}
		c.RequestTimeout = d
	}
	if v := strings.TrimSpace(os.Getenv("CART_MAX_QUANTITY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: CART_MAX_QUANTITY=%q", ErrInvalidConfig, v)
		}
		c.MaxQuantity = n
	}
	setString(&c.Storage, os.Getenv("CART_STORAGE"))
	setString(&c.StoragePath, os.Getenv("CART_STORAGE_PATH"))
	setString(&c.StorageDSN, os.Getenv("CART_STORAGE_DSN"))
	setString(&c.FirestoreCollection, os.Getenv("CART_FIRESTORE_COLLECTION"))
	setString(&c.FirestoreProjectID, os.Getenv("FIRESTORE_PROJECT_ID"))
	setString(&c.FirestoreCredentialsFile, os.Getenv("FIRESTORE_CREDENTIALS_FILE"))
	setString(&c.FirebaseProjectID, os.Getenv("FIREBASE_PROJECT_ID"))
	if c.FirebaseProjectID == "" {
		c.FirebaseProjectID = getenvDefault("GCP_PROJECT_ID", c.FirestoreProjectID)
	}
	setString(&c.CheckoutSuccessURL, os.Getenv("CHECKOUT_SUCCESS_URL"))
	setString(&c.CheckoutCancelURL, os.Getenv("CHECKOUT_CANCEL_URL"))
	setString(&c.LogLevel, os.Getenv("LOG_LEVEL"))
	return nil
}

// Validate checks the values that have no safe fallback.
func (c *Config) Validate() error {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	switch c.Storage {
	case StorageMemory, StorageFile, StorageSQLite, StoragePostgres, StorageFirestore:
	default:
		return fmt.Errorf("%w: unknown storage %q", ErrInvalidConfig, c.Storage)
	}
	if c.MaxQuantity < 1 {
		return fmt.Errorf("%w: max quantity must be >= 1", ErrInvalidConfig)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be > 0", ErrInvalidConfig)
	}
	if c.Storage == StoragePostgres && c.StorageDSN == "" {
		return fmt.Errorf("%w: postgres storage needs CART_STORAGE_DSN", ErrInvalidConfig)
	}
	if c.Storage == StorageFirestore && c.FirestoreProjectID == "" {
		return fmt.Errorf("%w: firestore storage needs FIRESTORE_PROJECT_ID", ErrInvalidConfig)
	}
	return nil
}

// SQLiteDSN is the database file used by the sqlite backend.
func (c *Config) SQLiteDSN() string {
	if c.StorageDSN != "" {
		return c.StorageDSN
	}
	return filepath.Join(c.StoragePath, "state.db")
}

// parseTimeout accepts a Go duration ("10s") or a number of seconds ("10").
func parseTimeout(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: timeout %q", ErrInvalidConfig, v)
	}
	return d, nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
