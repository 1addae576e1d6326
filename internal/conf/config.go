// config.go: loading and access for the Wayfarer media service settings
package conf

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"github.com/wayfarerhq/wayfarer-go/internal/errors"
)

// Settings is the root configuration structure for the media service.
type Settings struct {
	Debug   bool   // true to enable debug mode
	Version string // application version, set at build time

	Main struct {
		Name string    // name of this instance, used in logs and user agent
		Log  LogConfig // main log configuration
	}

	Output struct {
		SQLite SQLiteSettings // SQLite database configuration
		MySQL  MySQLSettings  // MySQL database configuration
	}

	Webserver struct {
		Enabled bool   // true to enable the JSON API server
		Port    string // port for the API server
		Log     LogConfig
	}

	Providers  ProvidersSettings  // external media provider configuration
	MediaCache MediaCacheSettings // aggregation cache tuning
}

// SQLiteSettings contains the SQLite database configuration.
type SQLiteSettings struct {
	Enabled bool
	Path    string // path to the SQLite database file
}

// MySQLSettings contains the MySQL database configuration.
type MySQLSettings struct {
	Enabled  bool
	Username string
	Password string
	Database string
	Host     string
	Port     string
}

// ProviderSettings is the per-provider configuration. API keys are passed in
// explicitly, never read from package-level state.
type ProviderSettings struct {
	Enabled           bool
	APIKey            string
	Endpoint          string        // provider API base URL
	Timeout           time.Duration // per-request timeout
	RequestsPerSecond float64       // client-side rate limit
}

// ProvidersSettings groups the three external media providers.
type ProvidersSettings struct {
	Unsplash     ProviderSettings
	Pexels       ProviderSettings
	GooglePlaces ProviderSettings
}

// MediaCacheSettings tunes the destination media aggregation cache.
type MediaCacheSettings struct {
	Debug                bool
	TTL                  time.Duration // row lifetime, staleness is oldest row's expiry
	MinCachedItems       int           // below this count a read triggers a refresh
	CityPhotoCount       int           // primary source city photo quota
	SecondaryPhotoCount  int           // secondary source city photo quota
	VideoCount           int           // video quota
	AttractionPhotoCount int           // photos per named attraction
	MaxAttractions       int           // attraction searches per refresh
	GalleryLimit         int           // photos returned in the assembled view
	VideoLimit           int           // videos returned in the assembled view
	FailureBackoff       time.Duration // cooldown before retrying a failed provider query
}

// LogConfig defines the configuration for a log file.
type LogConfig struct {
	Enabled     bool         // true to enable this log
	Path        string       // Path to the log file
	Rotation    RotationType // Type of log rotation
	MaxSize     int64        // Max size in bytes for RotationSize
	RotationDay string       // Day of the week for RotationWeekly
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	// Initialize viper and read config
	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	// Unmarshal the config into settings
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	// Validate settings
	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Provider API keys come from the environment in most deployments
	viper.SetEnvPrefix("wayfarer")
	viper.AutomaticEnv()

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, run on defaults plus environment
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// GetDefaultConfigPaths returns a list of default configuration paths for the
// current operating system, based on standard conventions for application
// configuration files.
func GetDefaultConfigPaths() ([]string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "get-executable-path").
			Build()
	}
	exeDir := filepath.Dir(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}

	configPaths := []string{
		exeDir,
		filepath.Join(homeDir, ".config", "wayfarer"),
		"/etc/wayfarer",
		".",
	}

	return configPaths, nil
}

// GetBasePath expands environment variables in the given path and ensures the
// resulting path exists. A relative path is interpreted as relative to the
// working directory.
func GetBasePath(path string) string {
	expandedPath := os.ExpandEnv(path)

	basePath := filepath.Clean(expandedPath)
	if basePath == "." || basePath == "" {
		return basePath
	}

	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		if err := os.MkdirAll(basePath, 0o750); err != nil {
			fmt.Printf("failed to create directory '%s': %v\n", basePath, err)
		}
	}

	return basePath
}
