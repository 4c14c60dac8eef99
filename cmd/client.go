// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/LeeDigitalWorks/ossmpu/pkg/config"
	"github.com/LeeDigitalWorks/ossmpu/pkg/logger"
	"github.com/LeeDigitalWorks/ossmpu/pkg/multipart"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/signature"
	"github.com/LeeDigitalWorks/ossmpu/pkg/transport"
	"github.com/LeeDigitalWorks/ossmpu/pkg/utils"

	"github.com/spf13/cobra"
)

// newClient builds a protocol client from flags, environment and config.
func newClient(cmd *cobra.Command) (*multipart.Client, config.Settings, error) {
	settings, err := NewFlagLoader(cmd).Settings()
	if err != nil {
		return nil, settings, err
	}

	tc := transport.Config{
		Endpoint:  settings.Endpoint,
		Scheme:    settings.Scheme,
		PathStyle: settings.PathStyle,
		Timeout:   settings.Timeout,
		RateLimit: settings.RateLimit,
		UserAgent: "ossmpu/" + Version,
	}
	tc.TLS, err = utils.LoadClientTLSConfig(settings.TLSCertFile, settings.TLSKeyFile,
		settings.TLSCAFile, settings.TLSInsecureSkipVerify)
	if err != nil {
		return nil, settings, err
	}
	if !settings.Anonymous() {
		tc.Signer = signature.NewStaticV1Signer(settings.AccessKeyID, settings.AccessKeySecret)
	}
	t, err := transport.New(tc)
	if err != nil {
		return nil, settings, err
	}
	return multipart.NewClient(t, multipart.WithLogger(logger.Global())), settings, nil
}

// commandContext is cancelled on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// parsePartArg parses "NUMBER:ETAG" as given to commit --part.
func parsePartArg(arg string) (multipart.Part, error) {
	num, etag, ok := strings.Cut(arg, ":")
	if !ok || etag == "" {
		return multipart.Part{}, fmt.Errorf("part %q: want NUMBER:ETAG", arg)
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return multipart.Part{}, fmt.Errorf("part %q: %w", arg, err)
	}
	return multipart.Part{Number: n, ETag: etag}, nil
}

// parseRange parses "START-END" as an inclusive byte range, the way HTTP
// Range headers are written, and returns the half-open equivalent.
func parseRange(s string) (*multipart.ByteRange, error) {
	if s == "" {
		return nil, nil
	}
	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return nil, fmt.Errorf("range %q: want START-END", s)
	}
	start, err := strconv.ParseInt(a, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", s, err)
	}
	last, err := strconv.ParseInt(b, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", s, err)
	}
	return &multipart.ByteRange{Start: start, End: last + 1}, nil
}
