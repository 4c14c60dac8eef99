// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"context"
	"iter"
	"net/http"
	"net/url"
	"strconv"

	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/keycodec"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/ossconsts"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/osserr"
)

// ListTransactions returns one page of the open transactions in bucket.
func (c *Client) ListTransactions(ctx context.Context, bucket string, opts *ListTransactionsOptions) ([]Transaction, *Pagination, error) {
	if bucket == "" {
		return nil, nil, osserr.InvalidArgument(OpListTransactions, "bucket is required")
	}
	if opts == nil {
		opts = &ListTransactionsOptions{}
	}
	if err := checkListing(OpListTransactions, opts.Limit, opts.Encoding); err != nil {
		return nil, nil, err
	}

	q := url.Values{ossconsts.QueryUploads: {""}}
	setQuery(q, ossconsts.QueryPrefix, opts.Prefix)
	setQuery(q, ossconsts.QueryDelimiter, opts.Delimiter)
	setQuery(q, ossconsts.QueryKeyMarker, opts.KeyMarker)
	setQuery(q, ossconsts.QueryUploadIDMarker, opts.IDMarker)
	setLimit(q, ossconsts.QueryMaxUploads, opts.Limit)
	if opts.Encoding == keycodec.URL {
		q.Set(ossconsts.QueryEncodingType, string(keycodec.URL))
	}

	resp, err := c.do(ctx, &Request{
		Op:     OpListTransactions,
		Method: http.MethodGet,
		Bucket: bucket,
		Query:  q,
	}, "")
	if err != nil {
		return nil, nil, err
	}
	return ParseListTransactionsResult(bucket, resp.Body)
}

// ListParts returns one page of the parts uploaded to a transaction,
// ordered by part number.
func (c *Client) ListParts(ctx context.Context, bucket, object, id string, opts *ListPartsOptions) ([]Part, *Pagination, error) {
	if err := checkTarget(OpListParts, bucket, object, id); err != nil {
		return nil, nil, err
	}
	if opts == nil {
		opts = &ListPartsOptions{}
	}
	if err := checkListing(OpListParts, opts.Limit, opts.Encoding); err != nil {
		return nil, nil, err
	}

	q := url.Values{ossconsts.QueryUploadID: {id}}
	setQuery(q, ossconsts.QueryPartNumberMarker, opts.Marker)
	setLimit(q, ossconsts.QueryMaxParts, opts.Limit)
	if opts.Encoding == keycodec.URL {
		q.Set(ossconsts.QueryEncodingType, string(keycodec.URL))
	}

	resp, err := c.do(ctx, &Request{
		Op:     OpListParts,
		Method: http.MethodGet,
		Bucket: bucket,
		Object: object,
		Query:  q,
	}, id)
	if err != nil {
		return nil, nil, err
	}
	return ParseListPartsResult(resp.Body)
}

// AllTransactions iterates every open transaction matching opts, following
// next markers page by page. Iteration stops after the first error.
func (c *Client) AllTransactions(ctx context.Context, bucket string, opts *ListTransactionsOptions) iter.Seq2[Transaction, error] {
	return func(yield func(Transaction, error) bool) {
		page := ListTransactionsOptions{}
		if opts != nil {
			page = *opts
		}
		for {
			txns, more, err := c.ListTransactions(ctx, bucket, &page)
			if err != nil {
				yield(Transaction{}, err)
				return
			}
			for _, t := range txns {
				if !yield(t, nil) {
					return
				}
			}
			if more.IsExhausted() {
				return
			}
			page = more.NextTransactionsOptions(page)
		}
	}
}

// AllParts iterates every part of a transaction.
func (c *Client) AllParts(ctx context.Context, bucket, object, id string, opts *ListPartsOptions) iter.Seq2[Part, error] {
	return func(yield func(Part, error) bool) {
		page := ListPartsOptions{}
		if opts != nil {
			page = *opts
		}
		for {
			parts, more, err := c.ListParts(ctx, bucket, object, id, &page)
			if err != nil {
				yield(Part{}, err)
				return
			}
			for _, p := range parts {
				if !yield(p, nil) {
					return
				}
			}
			if more.IsExhausted() {
				return
			}
			page = more.NextPartsOptions(page)
		}
	}
}

func checkListing(op string, limit int, enc keycodec.Encoding) error {
	if limit < 0 {
		return osserr.InvalidArgument(op, "negative limit %d", limit)
	}
	if enc != "" && !enc.IsValid() {
		return osserr.InvalidArgument(op, "unknown encoding %q", enc)
	}
	return nil
}

func setQuery(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func setLimit(q url.Values, key string, n int) {
	if n > 0 {
		q.Set(key, strconv.Itoa(n))
	}
}
