// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport sends multipart protocol requests over HTTP.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/LeeDigitalWorks/ossmpu/pkg/logger"
	"github.com/LeeDigitalWorks/ossmpu/pkg/multipart"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/ossconsts"

	"golang.org/x/time/rate"
)

// Signer authenticates an outgoing request. bucket and object are the raw
// names the request addresses.
type Signer interface {
	Sign(ctx context.Context, r *http.Request, bucket, object string) error
}

// Config configures an HTTP transport.
type Config struct {
	// Endpoint is the service host, optionally with port and scheme, e.g.
	// "oss-cn-hangzhou.aliyuncs.com" or "http://127.0.0.1:9000".
	Endpoint string

	// Scheme is used when Endpoint carries none. Defaults to https.
	Scheme string

	// PathStyle addresses buckets as /bucket/object instead of
	// bucket.endpoint/object.
	PathStyle bool

	// Timeout bounds a whole exchange. Zero means no timeout beyond ctx.
	Timeout time.Duration

	// RateLimit caps requests per second. Zero disables limiting.
	RateLimit float64
	Burst     int

	// Signer is optional; unsigned requests are sent when nil.
	Signer Signer

	// TLS replaces the default TLS settings of the built-in client, e.g. to
	// trust a private CA. Ignored when Client is set.
	TLS *tls.Config

	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client

	UserAgent string
}

// HTTP implements multipart.Transport over net/http.
type HTTP struct {
	scheme    string
	host      string
	pathStyle bool
	signer    Signer
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

var _ multipart.Transport = (*HTTP)(nil)

const defaultUserAgent = "ossmpu"

func New(cfg Config) (*HTTP, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("transport: endpoint is required")
	}

	scheme := cfg.Scheme
	host := cfg.Endpoint
	if strings.Contains(host, "://") {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("transport: parse endpoint: %w", err)
		}
		scheme, host = u.Scheme, u.Host
	}
	host = strings.TrimSuffix(host, "/")
	if scheme == "" {
		scheme = "https"
	}
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("transport: unsupported scheme %q", scheme)
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
		if cfg.TLS != nil {
			tr := http.DefaultTransport.(*http.Transport).Clone()
			tr.TLSClientConfig = cfg.TLS
			client.Transport = tr
		}
	}

	t := &HTTP{
		scheme:    scheme,
		host:      host,
		pathStyle: cfg.PathStyle,
		signer:    cfg.Signer,
		client:    client,
		userAgent: cfg.UserAgent,
	}
	if t.userAgent == "" {
		t.userAgent = defaultUserAgent
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = max(1, int(cfg.RateLimit))
		}
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return t, nil
}

// URL returns the address req is sent to.
func (t *HTTP) URL(req *multipart.Request) string {
	host := t.host
	path := req.Path()
	switch {
	case req.Bucket == "":
	case t.pathStyle:
		path = "/" + req.Bucket + path
	default:
		host = req.Bucket + "." + host
	}

	u := t.scheme + "://" + host + path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	return u
}

// Send performs the exchange and reads the whole response body. HTTP error
// statuses are returned as responses, not errors.
func (t *HTTP) Send(ctx context.Context, req *multipart.Request) (*multipart.Response, error) {
	if t.limiter != nil {
		start := time.Now()
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		RateLimitWait.Observe(time.Since(start).Seconds())
	}

	var sent atomic.Int64
	var body io.Reader
	if req.Body != nil && req.ContentLength != 0 {
		body = &countingReader{r: req.Body, n: &sent}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.URL(req), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("User-Agent", t.userAgent)
	switch {
	case body == nil:
		httpReq.ContentLength = 0
	case req.ContentLength > 0:
		httpReq.ContentLength = req.ContentLength
	default:
		httpReq.ContentLength = -1
	}

	if t.signer != nil {
		if err := t.signer.Sign(ctx, httpReq, req.Bucket, req.Object); err != nil {
			return nil, fmt.Errorf("sign request: %w", err)
		}
	}

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		t.observe(req.Op, "error", start, sent.Load())
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.observe(req.Op, "error", start, sent.Load())
		return nil, fmt.Errorf("read response body: %w", err)
	}
	t.observe(req.Op, strconv.Itoa(resp.StatusCode), start, sent.Load())

	logger.Ctx(ctx).Debug().
		Str("op", req.Op).
		Str("method", req.Method).
		Str("url", httpReq.URL.Redacted()).
		Int("status", resp.StatusCode).
		Int64("sent", sent.Load()).
		Int("received", len(data)).
		Str("request_id", resp.Header.Get(ossconsts.XOssRequestID)).
		Msg("http exchange")

	return &multipart.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func (t *HTTP) observe(op, status string, start time.Time, sent int64) {
	RequestsTotal.WithLabelValues(op, status).Inc()
	RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if sent > 0 {
		BytesSent.WithLabelValues(op).Add(float64(sent))
	}
}

type countingReader struct {
	r io.Reader
	n *atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}
