// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/LeeDigitalWorks/ossmpu/pkg/env"
	"github.com/LeeDigitalWorks/ossmpu/pkg/logger"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/ossconsts"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Configuration keys, shared by the config file, OSSMPU_* environment
// variables and CLI flags.
const (
	KeyEndpoint        = "endpoint"
	KeyScheme          = "scheme"
	KeyPathStyle       = "path_style"
	KeyAccessKeyID     = "access_key_id"
	KeyAccessKeySecret = "access_key_secret"
	KeyTimeout         = "timeout"
	KeyRateLimit       = "rate_limit"
	KeyPartSize        = "part_size"
	KeyConcurrency     = "concurrency"
	KeyAbortOnError    = "abort_on_error"
	KeyLogLevel        = "log_level"

	KeyTLSCAFile             = "tls_ca_file"
	KeyTLSCertFile           = "tls_cert_file"
	KeyTLSKeyFile            = "tls_key_file"
	KeyTLSInsecureSkipVerify = "tls_insecure_skip_verify"
)

const EnvPrefix = "ossmpu"

var (
	ConfigurationFileDirectory string
)

// SetDefaults registers every key with its default, which also makes the
// key visible to AutomaticEnv.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyEndpoint, "")
	v.SetDefault(KeyScheme, "https")
	v.SetDefault(KeyPathStyle, false)
	v.SetDefault(KeyAccessKeyID, "")
	v.SetDefault(KeyAccessKeySecret, "")
	v.SetDefault(KeyTimeout, 5*time.Minute)
	v.SetDefault(KeyRateLimit, 0.0)
	v.SetDefault(KeyPartSize, "8MiB")
	v.SetDefault(KeyConcurrency, 4)
	v.SetDefault(KeyAbortOnError, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyTLSCAFile, "")
	v.SetDefault(KeyTLSCertFile, "")
	v.SetDefault(KeyTLSKeyFile, "")
	v.SetDefault(KeyTLSInsecureSkipVerify, false)
}

// LoadConfiguration merges <configFileName>.{yaml,toml,json,...} into the
// global viper instance.
func LoadConfiguration(configFileName string, required bool) (bool, error) {
	return Load(viper.GetViper(), ConfigurationFileDirectory, configFileName, required)
}

// Load merges the named config file from dir or the standard locations
// into v. It reports whether a file was found; a missing file is only an
// error when required.
func Load(v *viper.Viper, dir, configFileName string, required bool) (bool, error) {
	SetDefaults(v)
	v.SetConfigName(configFileName)
	if dir != "" {
		v.AddConfigPath(ResolvePath(dir))
	}
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.ossmpu")
	v.AddConfigPath("/etc/ossmpu/")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if required {
				return false, fmt.Errorf("config file not found: %s", configFileName)
			}
			logger.Debug().Msgf("Config file not found: %s", configFileName)
			return false, nil
		}
		return false, fmt.Errorf("load config file %s: %w", configFileName, err)
	}
	env.Set(env.Resolve(v))
	logger.Debug().Msgf("Loaded config file: %s", v.ConfigFileUsed())

	return true, nil
}

// ResolvePath expands a leading ~ and environment variables in path.
func ResolvePath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if usr, err := user.Current(); err == nil {
			path = filepath.Join(usr.HomeDir, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}

// Settings is the resolved client configuration.
type Settings struct {
	Endpoint        string
	Scheme          string
	PathStyle       bool
	AccessKeyID     string
	AccessKeySecret string
	Timeout         time.Duration
	RateLimit       float64
	PartSize        int64
	Concurrency     int
	AbortOnError    bool

	TLSCAFile             string
	TLSCertFile           string
	TLSKeyFile            string
	TLSInsecureSkipVerify bool
}

// Validate checks the settings needed to reach the service.
func (s Settings) Validate() error {
	if s.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if (s.AccessKeyID == "") != (s.AccessKeySecret == "") {
		return errors.New("access_key_id and access_key_secret must be set together")
	}
	if s.PartSize < ossconsts.MinPartSize || s.PartSize > ossconsts.MaxPartSize {
		return fmt.Errorf("part_size %s outside %s..%s",
			humanize.IBytes(uint64(max(s.PartSize, 0))),
			humanize.IBytes(ossconsts.MinPartSize),
			humanize.IBytes(ossconsts.MaxPartSize))
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive, got %d", s.Concurrency)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %g", s.RateLimit)
	}
	return nil
}

// Anonymous reports whether requests are sent unsigned.
func (s Settings) Anonymous() bool {
	return s.AccessKeyID == ""
}

// ParseSize parses a human readable size such as "8MiB" or "5242880".
func ParseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("parse size %q: %w", s, err)
	}
	if n > uint64(ossconsts.MaxPartSize)*ossconsts.MaxPartNumber {
		return 0, fmt.Errorf("size %q too large", s)
	}
	return int64(n), nil
}
