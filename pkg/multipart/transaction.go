// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/ossconsts"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/osserr"
)

// Begin opens a new transaction for bucket/object and returns its id.
func (c *Client) Begin(ctx context.Context, bucket, object string, opts *BeginOptions) (string, error) {
	if err := checkObject(OpBegin, bucket, object); err != nil {
		return "", err
	}
	if opts == nil {
		opts = &BeginOptions{}
	}

	header := make(http.Header)
	for k, v := range opts.Metas {
		header.Set(ossconsts.XOssMetaPrefix+strings.ToLower(k), v)
	}
	setIf(header, ossconsts.ContentType, opts.ContentType)
	setIf(header, ossconsts.CacheControl, opts.CacheControl)
	setIf(header, ossconsts.ContentDisposition, opts.ContentDisposition)
	setIf(header, ossconsts.ContentEncoding, opts.ContentEncoding)
	if !opts.Expires.IsZero() {
		header.Set(ossconsts.Expires, opts.Expires.UTC().Format(http.TimeFormat))
	}

	resp, err := c.do(ctx, &Request{
		Op:     OpBegin,
		Method: http.MethodPost,
		Bucket: bucket,
		Object: object,
		Query:  url.Values{ossconsts.QueryUploads: {""}},
		Header: header,
	}, "")
	if err != nil {
		return "", err
	}

	id, err := ParseBeginResult(resp.Body)
	if err != nil {
		return "", err
	}
	c.log(ctx).Info().
		Str("bucket", bucket).
		Str("object", object).
		Str("upload_id", id).
		Msg("transaction opened")
	return id, nil
}

// CommitTransaction assembles the object from parts, in the order given.
func (c *Client) CommitTransaction(ctx context.Context, bucket, object, id string, parts []Part) (*CommitResult, error) {
	if err := checkTarget(OpCommit, bucket, object, id); err != nil {
		return nil, err
	}
	for _, p := range parts {
		if err := checkPartNumber(OpCommit, p.Number); err != nil {
			return nil, err
		}
	}

	body, err := BuildCommitBody(parts)
	if err != nil {
		return nil, osserr.InvalidArgument(OpCommit, "build body: %v", err)
	}

	header := make(http.Header)
	header.Set(ossconsts.ContentType, ossconsts.XMLContentType)
	resp, err := c.do(ctx, &Request{
		Op:            OpCommit,
		Method:        http.MethodPost,
		Bucket:        bucket,
		Object:        object,
		Query:         url.Values{ossconsts.QueryUploadID: {id}},
		Header:        header,
		Body:          bytes.NewReader(body),
		ContentLength: int64(len(body)),
	}, id)
	if err != nil {
		return nil, err
	}
	return ParseCommitResult(resp.Body)
}

// AbortTransaction discards the transaction and every part uploaded to it.
func (c *Client) AbortTransaction(ctx context.Context, bucket, object, id string) error {
	if err := checkTarget(OpAbort, bucket, object, id); err != nil {
		return err
	}
	_, err := c.do(ctx, &Request{
		Op:     OpAbort,
		Method: http.MethodDelete,
		Bucket: bucket,
		Object: object,
		Query:  url.Values{ossconsts.QueryUploadID: {id}},
	}, id)
	return err
}

func checkObject(op, bucket, object string) error {
	if bucket == "" {
		return osserr.InvalidArgument(op, "bucket is required")
	}
	if object == "" {
		return osserr.InvalidArgument(op, "object is required")
	}
	return nil
}

func checkTarget(op, bucket, object, id string) error {
	if err := checkObject(op, bucket, object); err != nil {
		return err
	}
	if id == "" {
		return osserr.InvalidArgument(op, "transaction id is required")
	}
	return nil
}

func checkPartNumber(op string, n int) error {
	if n < ossconsts.MinPartNumber || n > ossconsts.MaxPartNumber {
		return osserr.InvalidArgument(op, "part number %d outside %d..%d",
			n, ossconsts.MinPartNumber, ossconsts.MaxPartNumber)
	}
	return nil
}

func setIf(h http.Header, key, value string) {
	if value != "" {
		h.Set(key, value)
	}
}
