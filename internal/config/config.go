package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/kacper-wojtaszczyk/archive-go/internal/logging"
	"github.com/kacper-wojtaszczyk/archive-go/internal/model"
)

// Environment variable names. Config files use the same keys.
const (
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvRegion          = "AWS_REGION"

	EnvProvider     = "ARCHIVE_PROVIDER"
	EnvEndpoint     = "ARCHIVE_ENDPOINT"
	EnvUseSSL       = "ARCHIVE_USE_SSL"
	EnvAccelerate   = "ARCHIVE_ACCELERATE"
	EnvBucket       = "ARCHIVE_BUCKET"
	EnvPrefix       = "ARCHIVE_PREFIX"
	EnvKeyMapping   = "ARCHIVE_KEY_MAPPING"
	EnvConcurrency  = "ARCHIVE_CONCURRENCY"
	EnvSnapshotRoot = "ARCHIVE_SNAPSHOT_ROOT"
	EnvLogLevel     = "ARCHIVE_LOG_LEVEL"
	EnvLogFormat    = "ARCHIVE_LOG_FORMAT"
	EnvLogFile      = "ARCHIVE_LOG_FILE"
)

// Provider names the object storage backend.
type Provider string

const (
	ProviderS3    Provider = "s3"
	ProviderMinIO Provider = "minio"
)

// Config holds application configuration.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string

	Provider   Provider
	Endpoint   string // required for minio, optional override for s3
	UseSSL     bool   // minio only
	Accelerate bool   // s3 transfer acceleration

	Bucket       string
	Prefix       string
	KeyMapping   model.KeyMapping
	Concurrency  int
	SnapshotRoot string

	LogLevel  string
	LogFormat string
	LogFile   string
}

type ErrMissingRequiredEnvVar struct {
	Name string
}

func (e *ErrMissingRequiredEnvVar) Error() string {
	return fmt.Sprintf("required environment variable %q is not set", e.Name)
}

type ErrInvalidValue struct {
	Name   string
	Value  string
	Reason string
}

func (e *ErrInvalidValue) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %s", e.Value, e.Name, e.Reason)
}

// IsConfigError reports whether err is caused by missing or invalid configuration.
func IsConfigError(err error) bool {
	var missing *ErrMissingRequiredEnvVar
	var invalid *ErrInvalidValue
	return errors.As(err, &missing) || errors.As(err, &invalid)
}

// New returns a viper instance reading the environment and, when path is
// set, the given config file.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(EnvProvider, string(ProviderS3))
	v.SetDefault(EnvUseSSL, true)
	v.SetDefault(EnvAccelerate, true)
	v.SetDefault(EnvKeyMapping, string(model.BaseIncluded))
	v.SetDefault(EnvConcurrency, 1)
	v.SetDefault(EnvLogLevel, "info")
	v.SetDefault(EnvLogFormat, "auto")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config read '%s': %w", path, err)
		}
	}
	return v, nil
}

// Load builds the Config from v.
// Returns an error if required variables are missing.
func Load(v *viper.Viper) (*Config, error) {
	config := Config{}
	config.AccessKeyID = v.GetString(EnvAccessKeyID)
	if config.AccessKeyID == "" {
		return nil, &ErrMissingRequiredEnvVar{Name: EnvAccessKeyID}
	}
	config.SecretAccessKey = v.GetString(EnvSecretAccessKey)
	if config.SecretAccessKey == "" {
		return nil, &ErrMissingRequiredEnvVar{Name: EnvSecretAccessKey}
	}
	config.Region = v.GetString(EnvRegion)
	if config.Region == "" {
		return nil, &ErrMissingRequiredEnvVar{Name: EnvRegion}
	}

	config.Provider = Provider(strings.ToLower(v.GetString(EnvProvider)))
	config.Endpoint = v.GetString(EnvEndpoint)
	switch config.Provider {
	case ProviderS3:
	case ProviderMinIO:
		if config.Endpoint == "" {
			return nil, &ErrMissingRequiredEnvVar{Name: EnvEndpoint}
		}
	default:
		return nil, &ErrInvalidValue{Name: EnvProvider, Value: string(config.Provider), Reason: "want s3 or minio"}
	}
	config.UseSSL = v.GetBool(EnvUseSSL)
	config.Accelerate = v.GetBool(EnvAccelerate)

	config.Bucket = v.GetString(EnvBucket)
	config.Prefix = strings.Trim(v.GetString(EnvPrefix), "/")
	config.KeyMapping = model.KeyMapping(v.GetString(EnvKeyMapping))
	if err := config.KeyMapping.Validate(); err != nil {
		return nil, &ErrInvalidValue{Name: EnvKeyMapping, Value: string(config.KeyMapping), Reason: err.Error()}
	}
	config.Concurrency = v.GetInt(EnvConcurrency)
	if config.Concurrency < 1 {
		return nil, &ErrInvalidValue{Name: EnvConcurrency, Value: v.GetString(EnvConcurrency), Reason: "must be a positive integer"}
	}
	config.SnapshotRoot = v.GetString(EnvSnapshotRoot)

	config.LogLevel = v.GetString(EnvLogLevel)
	if _, ok := logging.LookupLevel(config.LogLevel); !ok {
		return nil, &ErrInvalidValue{Name: EnvLogLevel, Value: config.LogLevel, Reason: "want debug, info, warn or error"}
	}
	config.LogFormat = strings.ToLower(v.GetString(EnvLogFormat))
	switch config.LogFormat {
	case "auto", "text", "json":
	default:
		return nil, &ErrInvalidValue{Name: EnvLogFormat, Value: config.LogFormat, Reason: "want auto, text or json"}
	}
	config.LogFile = v.GetString(EnvLogFile)

	return &config, nil
}

// RequireBucket fails unless a target bucket is configured.
func (c *Config) RequireBucket() error {
	if c.Bucket == "" {
		return &ErrMissingRequiredEnvVar{Name: EnvBucket}
	}
	return nil
}

// RequireSnapshotRoot fails unless the snapshot root directory is configured.
func (c *Config) RequireSnapshotRoot() error {
	if c.SnapshotRoot == "" {
		return &ErrMissingRequiredEnvVar{Name: EnvSnapshotRoot}
	}
	return nil
}
