// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/keycodec"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/ossconsts"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/osserr"
)

// UploadPart uploads the content written by produce as part number of the
// transaction. Uploading the same number again replaces the earlier part.
//
// produce runs concurrently with the request and has returned by the time
// UploadPart does, unless ctx ended while produce was blocked outside its
// writer; it then exits on its next write. An error from produce takes
// precedence over the transport's view of the failed exchange.
func (c *Client) UploadPart(ctx context.Context, bucket, object, id string, number int, produce BodyProducer, opts *UploadPartOptions) (Part, error) {
	if err := checkTarget(OpUploadPart, bucket, object, id); err != nil {
		return Part{}, err
	}
	if err := checkPartNumber(OpUploadPart, number); err != nil {
		return Part{}, err
	}
	if produce == nil {
		return Part{}, osserr.InvalidArgument(OpUploadPart, "body producer is required")
	}
	if opts == nil {
		opts = &UploadPartOptions{}
	}
	if opts.Size < 0 {
		return Part{}, osserr.InvalidArgument(OpUploadPart, "negative size %d", opts.Size)
	}

	header := make(http.Header)
	setIf(header, ossconsts.ContentMD5, opts.ContentMD5)
	length := int64(-1)
	if opts.Size > 0 {
		length = opts.Size
	}

	body, finish := startProducer(produce)
	resp, err := c.do(ctx, &Request{
		Op:            OpUploadPart,
		Method:        http.MethodPut,
		Bucket:        bucket,
		Object:        object,
		Query:         partQuery(id, number),
		Header:        header,
		Body:          body,
		ContentLength: length,
	}, id)
	if perr := finish(ctx); perr != nil {
		if err != nil && ctx.Err() != nil && errors.Is(perr, ctx.Err()) {
			return Part{}, err
		}
		return Part{}, fmt.Errorf("oss.%s: body producer: %w", OpUploadPart, perr)
	}
	if err != nil {
		return Part{}, err
	}
	return ParseUploadPartResult(resp.Header, number)
}

// UploadPartFromObject fills part number with a server-side copy of
// sourceKey, optionally restricted to a byte range.
func (c *Client) UploadPartFromObject(ctx context.Context, bucket, object, id string, number int, sourceKey string, opts *CopyPartOptions) (Part, error) {
	if err := checkTarget(OpUploadPartFromObject, bucket, object, id); err != nil {
		return Part{}, err
	}
	if err := checkPartNumber(OpUploadPartFromObject, number); err != nil {
		return Part{}, err
	}
	if sourceKey == "" {
		return Part{}, osserr.InvalidArgument(OpUploadPartFromObject, "source key is required")
	}
	if opts == nil {
		opts = &CopyPartOptions{}
	}

	srcBucket := opts.SourceBucket
	if srcBucket == "" {
		srcBucket = bucket
	}

	header := make(http.Header)
	header.Set(ossconsts.XOssCopySource, keycodec.CopySource(srcBucket, sourceKey))
	if r := opts.Range; r != nil {
		if r.Start < 0 || r.End <= r.Start {
			return Part{}, osserr.InvalidArgument(OpUploadPartFromObject,
				"invalid range [%d, %d)", r.Start, r.End)
		}
		header.Set(ossconsts.Range, fmt.Sprintf("bytes=%d-%d", r.Start, r.End-1))
	}

	cond := opts.Conditions
	if !cond.IfModifiedSince.IsZero() {
		header.Set(ossconsts.XOssCopySourceIfModifiedSince, cond.IfModifiedSince.UTC().Format(http.TimeFormat))
	}
	if !cond.IfUnmodifiedSince.IsZero() {
		header.Set(ossconsts.XOssCopySourceIfUnmodifiedSince, cond.IfUnmodifiedSince.UTC().Format(http.TimeFormat))
	}
	setIf(header, ossconsts.XOssCopySourceIfMatch, cond.IfMatchETag)
	setIf(header, ossconsts.XOssCopySourceIfNoneMatch, cond.IfNoneMatchETag)

	resp, err := c.do(ctx, &Request{
		Op:     OpUploadPartFromObject,
		Method: http.MethodPut,
		Bucket: bucket,
		Object: object,
		Query:  partQuery(id, number),
		Header: header,
	}, id)
	if err != nil {
		return Part{}, err
	}
	return ParseCopyPartResult(resp.Body, resp.Header, number)
}

func partQuery(id string, number int) url.Values {
	return url.Values{
		ossconsts.QueryPartNumber: {strconv.Itoa(number)},
		ossconsts.QueryUploadID:   {id},
	}
}
