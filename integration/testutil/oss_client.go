//go:build integration

// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"
	"testing"

	"github.com/LeeDigitalWorks/ossmpu/pkg/multipart"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/signature"
	"github.com/LeeDigitalWorks/ossmpu/pkg/transport"

	"github.com/stretchr/testify/require"
)

// OSSClient wraps multipart.Client with the bucket under test.
type OSSClient struct {
	*multipart.Client
	t      *testing.T
	Bucket string
}

// NewOSSClient builds a client for cfg, skipping the test when the
// environment names no service.
func NewOSSClient(t *testing.T, cfg OSSConfig) *OSSClient {
	t.Helper()
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		t.Skip("OSSMPU_IT_ENDPOINT and OSSMPU_IT_BUCKET not set")
	}

	tc := transport.Config{
		Endpoint:  cfg.Endpoint,
		PathStyle: cfg.PathStyle,
		Timeout:   cfg.Timeout,
	}
	if cfg.AccessKeyID != "" {
		tc.Signer = signature.NewStaticV1Signer(cfg.AccessKeyID, cfg.AccessKeySecret)
	}
	tr, err := transport.New(tc)
	require.NoError(t, err, "failed to create transport for %s", cfg.Endpoint)

	return &OSSClient{Client: multipart.NewClient(tr), t: t, Bucket: cfg.Bucket}
}

// Begin opens a transaction and aborts it when the test ends unless it was
// committed.
func (c *OSSClient) Begin(ctx context.Context, key string) string {
	c.t.Helper()
	id, err := c.Client.Begin(ctx, c.Bucket, key, nil)
	require.NoError(c.t, err, "failed to begin transaction for %s", key)

	c.t.Cleanup(func() {
		ctx, cancel := WithTimeout(context.Background())
		defer cancel()
		// Already committed or aborted transactions answer NoSuchUpload.
		_ = c.AbortTransaction(ctx, c.Bucket, key, id)
	})
	return id
}
