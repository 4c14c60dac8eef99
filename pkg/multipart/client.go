// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/LeeDigitalWorks/ossmpu/pkg/logger"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/keycodec"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/osserr"

	"github.com/rs/zerolog"
)

// Request is one protocol exchange handed to the Transport.
type Request struct {
	// Op names the protocol operation, for logs and metrics.
	Op     string
	Method string
	Bucket string
	// Object is the raw object key. Empty addresses the bucket itself.
	Object string
	Query  url.Values
	Header http.Header
	Body   io.Reader
	// ContentLength is the exact body size, or -1 when unknown.
	ContentLength int64
}

// Path returns the escaped request path, "/" for bucket level requests.
func (r *Request) Path() string {
	return "/" + keycodec.EscapePath(r.Object)
}

// Response is a completed exchange. Body has been read in full.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport sends a Request and returns the service's response. A non-nil
// error means no response was obtained; HTTP error statuses are not errors.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Client speaks the multipart upload protocol. It holds no per-transaction
// state and is safe for concurrent use if its Transport is.
type Client struct {
	transport Transport
	logger    *zerolog.Logger
}

type Option func(*Client)

// WithLogger sets the logger used when the call context carries none.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = &l
	}
}

func NewClient(t Transport, opts ...Option) *Client {
	c := &Client{transport: t}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) log(ctx context.Context) *zerolog.Logger {
	if l, ok := logger.FromContext(ctx); ok {
		return l
	}
	if c.logger != nil {
		return c.logger
	}
	return logger.Ctx(ctx)
}

// do sends req and maps the response to an error. The returned Response is
// only non-nil when err is nil.
func (c *Client) do(ctx context.Context, req *Request, uploadID string) (*Response, error) {
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	if req.Body == nil {
		req.ContentLength = 0
	}

	start := time.Now()
	resp, err := c.transport.Send(ctx, req)
	l := c.log(ctx)
	if err != nil {
		l.Warn().Err(err).
			Str("op", req.Op).
			Str("bucket", req.Bucket).
			Str("object", req.Object).
			Str("upload_id", uploadID).
			Msg("transport failed")
		return nil, &osserr.TransportError{Op: req.Op, Err: err}
	}

	l.Debug().
		Str("op", req.Op).
		Str("bucket", req.Bucket).
		Str("object", req.Object).
		Str("upload_id", uploadID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("oss exchange")

	if err := osserr.FromResponse(req.Op, resp.StatusCode, resp.Header, resp.Body); err != nil {
		if se, ok := osserr.AsServiceError(err); ok {
			l.Warn().
				Str("op", req.Op).
				Str("code", se.Code).
				Str("request_id", se.RequestID).
				Int("status", resp.StatusCode).
				Msg(se.Message)
		}
		return nil, err
	}
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	return resp, nil
}
