// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"time"

	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/keycodec"
)

// Transaction is one in-progress multipart upload as reported by the service.
type Transaction struct {
	ID           string
	Bucket       string
	Object       string
	CreationTime time.Time
}

// Part is one uploaded chunk of a transaction.
//
// Size and LastModified are only set on parts returned by ListParts. Parts
// built by the caller for CommitTransaction need Number and ETag only.
type Part struct {
	Number       int
	ETag         string
	Size         *int64
	LastModified *time.Time
}

// CommitResult is what the service reports after a successful commit. All
// fields are empty when the service returned no body.
type CommitResult struct {
	Location string
	Bucket   string
	Key      string
	ETag     string
}

// BeginOptions configures a new transaction.
type BeginOptions struct {
	// Metas are user metadata entries, sent as x-oss-meta-<key> headers.
	Metas map[string]string

	ContentType        string
	CacheControl       string
	ContentDisposition string
	ContentEncoding    string
	Expires            time.Time
}

// UploadPartOptions configures a part upload.
type UploadPartOptions struct {
	// Size is the exact number of bytes the producer writes. Zero means
	// unknown and the body is streamed without a Content-Length.
	Size int64

	// ContentMD5 is the base64 MD5 of the part, checked by the service.
	ContentMD5 string
}

// ByteRange is a half-open byte range [Start, End).
type ByteRange struct {
	Start int64
	End   int64
}

// CopyConditions make a copy-part conditional on the state of the source
// object. Zero values are not sent.
type CopyConditions struct {
	IfModifiedSince   time.Time
	IfUnmodifiedSince time.Time
	IfMatchETag       string
	IfNoneMatchETag   string
}

// CopyPartOptions configures UploadPartFromObject.
type CopyPartOptions struct {
	// SourceBucket defaults to the destination bucket.
	SourceBucket string

	// Range limits the copy to part of the source object.
	Range *ByteRange

	Conditions CopyConditions
}

// ListTransactionsOptions filters ListTransactions. Empty fields are not sent.
type ListTransactionsOptions struct {
	Prefix    string
	Delimiter string
	KeyMarker string
	IDMarker  string
	Limit     int

	// Encoding asks the service to encode returned keys. Only URL is sent on
	// the wire; the client decodes the response accordingly.
	Encoding keycodec.Encoding
}

// ListPartsOptions filters ListParts. Empty fields are not sent.
type ListPartsOptions struct {
	Marker   string
	Limit    int
	Encoding keycodec.Encoding
}
