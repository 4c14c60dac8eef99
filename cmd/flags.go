// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package cmd provides the ossmpu CLI commands.
// This file contains reusable helpers for configuration loading with CLI flag precedence.
package cmd

import (
	"time"

	"github.com/LeeDigitalWorks/ossmpu/pkg/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// FlagLoader provides methods for loading configuration values with CLI flag precedence.
// When a CLI flag is explicitly set, it takes precedence over config file and env vars.
// Otherwise, viper's standard priority applies: env > config file > default.
type FlagLoader struct {
	cmd *cobra.Command
}

// NewFlagLoader creates a FlagLoader for the given cobra command.
func NewFlagLoader(cmd *cobra.Command) *FlagLoader {
	return &FlagLoader{cmd: cmd}
}

// String returns CLI flag value if explicitly set, otherwise viper value.
func (f *FlagLoader) String(flagName string) string {
	if f.cmd.Flags().Changed(flagName) {
		val, _ := f.cmd.Flags().GetString(flagName)
		return val
	}
	return viper.GetString(flagName)
}

// Int returns CLI flag value if explicitly set, otherwise viper value.
func (f *FlagLoader) Int(flagName string) int {
	if f.cmd.Flags().Changed(flagName) {
		val, _ := f.cmd.Flags().GetInt(flagName)
		return val
	}
	return viper.GetInt(flagName)
}

// Int64 returns CLI flag value if explicitly set, otherwise viper value.
func (f *FlagLoader) Int64(flagName string) int64 {
	if f.cmd.Flags().Changed(flagName) {
		val, _ := f.cmd.Flags().GetInt64(flagName)
		return val
	}
	return viper.GetInt64(flagName)
}

// Bool returns CLI flag value if explicitly set, otherwise viper value.
func (f *FlagLoader) Bool(flagName string) bool {
	if f.cmd.Flags().Changed(flagName) {
		val, _ := f.cmd.Flags().GetBool(flagName)
		return val
	}
	return viper.GetBool(flagName)
}

// Duration returns CLI flag value if explicitly set, otherwise viper value.
func (f *FlagLoader) Duration(flagName string) time.Duration {
	if f.cmd.Flags().Changed(flagName) {
		val, _ := f.cmd.Flags().GetDuration(flagName)
		return val
	}
	return viper.GetDuration(flagName)
}

// Float64 returns CLI flag value if explicitly set, otherwise viper value.
func (f *FlagLoader) Float64(flagName string) float64 {
	if f.cmd.Flags().Changed(flagName) {
		val, _ := f.cmd.Flags().GetFloat64(flagName)
		return val
	}
	return viper.GetFloat64(flagName)
}

// Size returns a human readable size ("8MiB") from the CLI flag if
// explicitly set, otherwise from viper.
func (f *FlagLoader) Size(flagName string) (int64, error) {
	return config.ParseSize(f.String(flagName))
}

// Settings resolves the client settings shared by every command.
func (f *FlagLoader) Settings() (config.Settings, error) {
	s := config.Settings{
		Endpoint:        f.String(config.KeyEndpoint),
		Scheme:          f.String(config.KeyScheme),
		PathStyle:       f.Bool(config.KeyPathStyle),
		AccessKeyID:     f.String(config.KeyAccessKeyID),
		AccessKeySecret: f.String(config.KeyAccessKeySecret),
		Timeout:         f.Duration(config.KeyTimeout),
		RateLimit:       f.Float64(config.KeyRateLimit),
		Concurrency:     f.Int(config.KeyConcurrency),
		AbortOnError:    f.Bool(config.KeyAbortOnError),

		TLSCAFile:             f.String(config.KeyTLSCAFile),
		TLSCertFile:           f.String(config.KeyTLSCertFile),
		TLSKeyFile:            f.String(config.KeyTLSKeyFile),
		TLSInsecureSkipVerify: f.Bool(config.KeyTLSInsecureSkipVerify),
	}
	partSize, err := f.Size(config.KeyPartSize)
	if err != nil {
		return config.Settings{}, err
	}
	s.PartSize = partSize
	return s, s.Validate()
}
