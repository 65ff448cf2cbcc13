package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateMonitorConfig(t *testing.T) {
	tests := []struct {
		name        string
		config      MonitorConfig
		expectedErr string
	}{
		{
			name:   "Valid interval",
			config: MonitorConfig{WatchRoot: "/data/upload", Interval: "30s"},
		},
		{
			name:   "Empty interval uses the default",
			config: MonitorConfig{WatchRoot: "/data/upload"},
		},
		{
			name:   "Valid schedule",
			config: MonitorConfig{WatchRoot: "/data/upload", Schedule: "*/5 * * * *", DeletePolicy: DeletePolicyOnSuccess},
		},
		{
			name:   "Schedule descriptor",
			config: MonitorConfig{WatchRoot: "/data/upload", Schedule: "@every 1m"},
		},
		{
			name:        "Missing watch root",
			config:      MonitorConfig{Interval: "30s"},
			expectedErr: "missing monitor.watchRoot in configuration",
		},
		{
			name:        "Invalid interval",
			config:      MonitorConfig{WatchRoot: "/data/upload", Interval: "soon"},
			expectedErr: `invalid interval "soon"`,
		},
		{
			name:        "Zero interval",
			config:      MonitorConfig{WatchRoot: "/data/upload", Interval: "0s"},
			expectedErr: "interval must be positive, got 0s",
		},
		{
			name:        "Invalid schedule",
			config:      MonitorConfig{WatchRoot: "/data/upload", Schedule: "every tuesday"},
			expectedErr: `invalid schedule "every tuesday"`,
		},
		{
			name:        "Unknown delete policy",
			config:      MonitorConfig{WatchRoot: "/data/upload", Interval: "30s", DeletePolicy: "never"},
			expectedErr: `unknown deletePolicy "never"`,
		},
		{
			name:        "Negative batch size",
			config:      MonitorConfig{WatchRoot: "/data/upload", Interval: "30s", BatchSize: -1},
			expectedErr: "batchSize must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMonitorConfig(tt.config)
			if tt.expectedErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.expectedErr)
			}
		})
	}
}

func TestValidateHostConfig(t *testing.T) {
	assert.NoError(t, ValidateHostConfig(HostConfig{Database: "host.db"}))
	assert.EqualError(t, ValidateHostConfig(HostConfig{}), "missing host.database in configuration")
}

func TestValidateStorageConfig(t *testing.T) {
	validBucket := &BucketConfig{
		Enabled:   true,
		AccessKey: "test-access-key",
		SecretKey: "test-secret-key",
		Bucket:    "test-bucket",
		Region:    "test-region",
		Endpoint:  "test-endpoint",
	}

	tests := []struct {
		name        string
		config      StorageConfig
		expectedErr string
	}{
		{
			name:   "Local directory",
			config: StorageConfig{LocalDir: &LocalDirConfig{Enabled: true, Path: "/images"}},
		},
		{
			name:   "S3 bucket",
			config: StorageConfig{S3: validBucket, LocalDir: &LocalDirConfig{}},
		},
		{
			name:        "Nothing enabled",
			config:      StorageConfig{S3: &BucketConfig{}, GCS: &BucketConfig{}, LocalDir: &LocalDirConfig{}},
			expectedErr: "no storage backend enabled in configuration",
		},
		{
			name:        "Local directory without path",
			config:      StorageConfig{LocalDir: &LocalDirConfig{Enabled: true}},
			expectedErr: "missing LocalDir Path in configuration",
		},
		{
			name:        "Incomplete GCS bucket",
			config:      StorageConfig{GCS: &BucketConfig{Enabled: true, Bucket: "b"}},
			expectedErr: "missing AccessKey in configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStorageConfig(tt.config)
			if tt.expectedErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.expectedErr)
			}
		})
	}
}

func TestValidateBucketConfig(t *testing.T) {
	tests := []struct {
		name        string
		config      BucketConfig
		expectedErr string
	}{
		{
			name: "Valid configuration",
			config: BucketConfig{
				AccessKey: "test-access-key",
				SecretKey: "test-secret-key",
				Bucket:    "test-bucket",
				Region:    "test-region",
				Endpoint:  "test-endpoint",
			},
		},
		{
			name: "Missing SecretKey",
			config: BucketConfig{
				AccessKey: "test-access-key",
				Bucket:    "test-bucket",
				Region:    "test-region",
				Endpoint:  "test-endpoint",
			},
			expectedErr: "missing SecretKey in configuration",
		},
		{
			name: "Missing Endpoint",
			config: BucketConfig{
				AccessKey: "test-access-key",
				SecretKey: "test-secret-key",
				Bucket:    "test-bucket",
				Region:    "test-region",
			},
			expectedErr: "missing Endpoint in configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBucketConfig(tt.config)
			if tt.expectedErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.expectedErr)
			}
		})
	}
}
