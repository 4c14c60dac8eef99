// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"time"

	"github.com/LeeDigitalWorks/ossmpu/pkg/config"
	"github.com/LeeDigitalWorks/ossmpu/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ossmpu",
	Short: "ossmpu - multipart uploads for object storage",
	Long: `ossmpu drives the multipart upload protocol of an OSS compatible object store.

It can open, feed, commit and abort upload transactions step by step, list the
transactions and parts the service knows about, or upload a whole file in
parallel parts.`,
	PersistentPreRunE: initialize,
	SilenceUsage:      true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&config.ConfigurationFileDirectory, "config_dir", ".", "Directory for configuration files")

	pf := rootCmd.PersistentFlags()
	pf.String(config.KeyEndpoint, "", "Service endpoint, e.g. oss-cn-hangzhou.aliyuncs.com (or set OSSMPU_ENDPOINT)")
	pf.String(config.KeyScheme, "https", "Scheme used when the endpoint has none")
	pf.Bool(config.KeyPathStyle, false, "Address buckets as /bucket/object instead of bucket.endpoint/object")
	pf.String(config.KeyAccessKeyID, "", "Access key id (or set OSSMPU_ACCESS_KEY_ID)")
	pf.String(config.KeyAccessKeySecret, "", "Access key secret (or set OSSMPU_ACCESS_KEY_SECRET)")
	pf.Duration(config.KeyTimeout, 5*time.Minute, "Timeout of a single request")
	pf.Float64(config.KeyRateLimit, 0, "Maximum requests per second (0 = unlimited)")
	pf.String(config.KeyLogLevel, "info", "Log level (debug, info, warn, error)")
	pf.String(config.KeyTLSCAFile, "", "PEM CA bundle trusted for the endpoint")
	pf.String(config.KeyTLSCertFile, "", "Client certificate for mutual TLS")
	pf.String(config.KeyTLSKeyFile, "", "Client key for mutual TLS")
	pf.Bool(config.KeyTLSInsecureSkipVerify, false, "Skip verification of the endpoint certificate")
}

// initialize loads the optional config file and applies the log level.
func initialize(cmd *cobra.Command, args []string) error {
	if _, err := config.LoadConfiguration("ossmpu", false); err != nil {
		return err
	}
	// a config file may have changed the environment
	logger.SetOutput(logger.Writer())

	level, err := zerolog.ParseLevel(NewFlagLoader(cmd).String(config.KeyLogLevel))
	if err != nil {
		return err
	}
	if level != zerolog.NoLevel {
		logger.SetLevel(level)
	}
	return nil
}

// Execute runs the command line and returns the error of the command that
// ran, already printed to stderr by cobra.
func Execute() error {
	return rootCmd.Execute()
}
