package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ghiro/autoupload/pkg/logx"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding configuration keys,
// e.g. AUTOUPLOAD_MONITOR_WATCHROOT overrides monitor.watchRoot.
const EnvPrefix = "autoupload"

const (
	// DeletePolicyAlways removes the original file after every submission attempt.
	DeletePolicyAlways = "always"
	// DeletePolicyOnSuccess removes the original file only when the submission succeeded.
	DeletePolicyOnSuccess = "on-success"
)

const (
	DefaultInterval  = "30s"
	DefaultBatchSize = 256
)

// Config holds the configuration of the application. It is loaded once at startup and
// passed to the components that need it.
type Config struct {
	// Log contains logging-related configuration.
	Log *logx.LoggingConfig
	// Monitor contains the directory monitor configuration.
	Monitor *MonitorConfig
	// Host contains the location of the host platform data.
	Host *HostConfig
	// Retry contains the retry configuration of storage backends.
	Retry *RetryConfig
	// Storage contains the storage configuration for submitted images.
	Storage *StorageConfig
}

// MonitorConfig holds the configuration of the directory monitor.
type MonitorConfig struct {
	// WatchRoot is the directory polled for new files. Required.
	WatchRoot string
	// StartupCleanup removes the watch root recursively before bootstrap.
	StartupCleanup bool
	// DeleteOriginal removes submitted files from the watch root.
	DeleteOriginal bool
	// DeletePolicy is DeletePolicyAlways or DeletePolicyOnSuccess.
	DeletePolicy string
	// Interval is the delay between two polling cycles (e.g., "30s").
	Interval string
	// Schedule is an optional cron expression; it takes precedence over Interval.
	Schedule string
	// BatchSize is the number of directory entries read at once while walking.
	BatchSize int
	// IgnorePatterns are glob patterns of files that are never picked up.
	IgnorePatterns []string
	// LockFile guards against two monitors polling the same watch root.
	// Defaults to "<WatchRoot>.lock".
	LockFile string
}

// HostConfig holds the location of the host platform database.
type HostConfig struct {
	// Database is the path of the SQLite database holding users, cases and analyses.
	Database string
}

// RetryConfig holds the configuration for retrying failed operations.
type RetryConfig struct {
	// Limit is the maximum number of retry attempts.
	Limit int
}

// StorageConfig holds the configuration for storage backends. The first enabled backend
// in the order S3, GCS, LocalDir is used.
type StorageConfig struct {
	// S3 contains the S3 bucket configuration.
	S3 *BucketConfig
	// GCS contains the Google Cloud Storage bucket configuration.
	GCS *BucketConfig
	// LocalDir contains the local directory configuration.
	LocalDir *LocalDirConfig
}

// BucketConfig holds the configuration for an S3 or GCS bucket.
type BucketConfig struct {
	// Enabled indicates whether the bucket is enabled.
	Enabled bool
	// Bucket is the name of the bucket.
	Bucket string
	// Region is the region of the bucket.
	Region string
	// Prefix is the prefix for objects in the bucket.
	Prefix string
	// Endpoint is the endpoint for the bucket.
	Endpoint string
	// AccessKey is the name of the environment variable holding the access key.
	AccessKey string
	// SecretKey is the name of the environment variable holding the secret key.
	SecretKey string
	// UseSSL enables SSL for the bucket connection.
	UseSSL bool
}

// LocalDirConfig holds the configuration for a local directory.
type LocalDirConfig struct {
	// Enabled indicates whether the local directory is enabled.
	Enabled bool
	// Path is the path to the local directory.
	Path string
	// Mode is the file mode for created directories and files.
	Mode os.FileMode
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.consoleLogging", true)
	v.SetDefault("log.fileLogging", false)
	v.SetDefault("monitor.watchRoot", "")
	v.SetDefault("monitor.startupCleanup", false)
	v.SetDefault("monitor.deleteOriginal", false)
	v.SetDefault("monitor.deletePolicy", DeletePolicyAlways)
	v.SetDefault("monitor.interval", DefaultInterval)
	v.SetDefault("monitor.schedule", "")
	v.SetDefault("monitor.batchSize", DefaultBatchSize)
	v.SetDefault("monitor.lockFile", "")
	v.SetDefault("host.database", "")
	v.SetDefault("retry.limit", 3)
	v.SetDefault("storage.localDir.mode", 0755)
}

// Load reads the configuration file at path and applies environment overrides.
//
// Parameters:
//   - path: The path to the configuration file.
//
// Returns:
//   - The loaded configuration, or an error if the file cannot be read or decoded.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	initializeNestedStructs(cfg)
	overrideWithEnvVars(cfg)

	return cfg, nil
}

// initializeNestedStructs ensures all nested structs are initialized.
func initializeNestedStructs(cfg *Config) {
	if cfg.Log == nil {
		cfg.Log = &logx.LoggingConfig{Level: "info", ConsoleLogging: true}
	}
	if cfg.Monitor == nil {
		cfg.Monitor = &MonitorConfig{}
	}
	if cfg.Host == nil {
		cfg.Host = &HostConfig{}
	}
	if cfg.Retry == nil {
		cfg.Retry = &RetryConfig{}
	}
	if cfg.Storage == nil {
		cfg.Storage = &StorageConfig{}
	}
	if cfg.Storage.S3 == nil {
		cfg.Storage.S3 = &BucketConfig{}
	}
	if cfg.Storage.GCS == nil {
		cfg.Storage.GCS = &BucketConfig{}
	}
	if cfg.Storage.LocalDir == nil {
		cfg.Storage.LocalDir = &LocalDirConfig{}
	}
}

// overrideWithEnvVars resolves bucket credentials from the environment variables named in
// the configuration file, so secrets are never written to it.
func overrideWithEnvVars(cfg *Config) {
	for _, bucket := range []*BucketConfig{cfg.Storage.S3, cfg.Storage.GCS} {
		if bucket.AccessKey != "" {
			bucket.AccessKey = os.Getenv(bucket.AccessKey)
		}
		if bucket.SecretKey != "" {
			bucket.SecretKey = os.Getenv(bucket.SecretKey)
		}
	}
}

// LockFilePath returns the configured lock file or the default sibling of the watch root.
func (m *MonitorConfig) LockFilePath() string {
	if m.LockFile != "" {
		return m.LockFile
	}
	return strings.TrimRight(m.WatchRoot, string(os.PathSeparator)) + ".lock"
}
