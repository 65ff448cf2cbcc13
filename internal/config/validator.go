package config

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// ErrMissingWatchRoot is returned when no watch root is configured.
var ErrMissingWatchRoot = errors.New("missing monitor.watchRoot in configuration")

// ValidateMonitorConfig validates the directory monitor configuration.
//
// Parameters:
//   - mc: The configuration to validate.
//
// Returns:
//   - ErrMissingWatchRoot if no watch root is set, another error for invalid values, otherwise nil.
func ValidateMonitorConfig(mc MonitorConfig) error {
	if mc.WatchRoot == "" {
		return ErrMissingWatchRoot
	}

	if mc.Schedule != "" {
		if _, err := cron.ParseStandard(mc.Schedule); err != nil {
			return errors.Wrapf(err, "invalid schedule %q", mc.Schedule)
		}
	} else {
		interval := mc.Interval
		if interval == "" {
			interval = DefaultInterval
		}
		d, err := time.ParseDuration(interval)
		if err != nil {
			return errors.Wrapf(err, "invalid interval %q", interval)
		}
		if d <= 0 {
			return fmt.Errorf("interval must be positive, got %s", interval)
		}
	}

	switch mc.DeletePolicy {
	case "", DeletePolicyAlways, DeletePolicyOnSuccess:
	default:
		return fmt.Errorf("unknown deletePolicy %q", mc.DeletePolicy)
	}

	if mc.BatchSize < 0 {
		return errors.New("batchSize must not be negative")
	}

	return nil
}

// ValidateHostConfig validates the host platform configuration.
func ValidateHostConfig(hc HostConfig) error {
	if hc.Database == "" {
		return errors.New("missing host.database in configuration")
	}
	return nil
}

// ValidateStorageConfig checks that at least one backend is enabled and that every
// enabled bucket is complete.
func ValidateStorageConfig(sc StorageConfig) error {
	enabled := 0
	for _, bucket := range []*BucketConfig{sc.S3, sc.GCS} {
		if bucket == nil || !bucket.Enabled {
			continue
		}
		if err := ValidateBucketConfig(*bucket); err != nil {
			return err
		}
		enabled++
	}

	if sc.LocalDir != nil && sc.LocalDir.Enabled {
		if sc.LocalDir.Path == "" {
			return errors.New("missing LocalDir Path in configuration")
		}
		enabled++
	}

	if enabled == 0 {
		return errors.New("no storage backend enabled in configuration")
	}

	return nil
}

// ValidateBucketConfig validates the S3 bucket configuration.
//
// Parameters:
//   - bucketConfig: The configuration to validate.
//
// Returns:
//   - An error if any required field is missing, otherwise nil.
func ValidateBucketConfig(bucketConfig BucketConfig) error {
	if bucketConfig.AccessKey == "" {
		return errors.New("missing AccessKey in configuration")
	}
	if bucketConfig.SecretKey == "" {
		return errors.New("missing SecretKey in configuration")
	}
	if bucketConfig.Bucket == "" {
		return errors.New("missing Bucket in configuration")
	}
	if bucketConfig.Region == "" {
		return errors.New("missing Region in configuration")
	}
	if bucketConfig.Endpoint == "" {
		return errors.New("missing Endpoint in configuration")
	}
	return nil
}
