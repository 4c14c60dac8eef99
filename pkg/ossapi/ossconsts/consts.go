// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package ossconsts

// https://help.aliyun.com/document_detail/31991.html
const (
	// MinPartNumber and MaxPartNumber bound the caller-assigned part number.
	MinPartNumber = 1
	MaxPartNumber = 10000

	// MinPartSize is the smallest size the service accepts for any part but the last (100KiB)
	MinPartSize = 100 * 1024
	// MaxPartSize is the largest part the service accepts (5GiB)
	MaxPartSize = 5 * 1024 * 1024 * 1024

	// --- Core request / tracing ---
	XOssDate      = "x-oss-date"
	XOssRequestID = "x-oss-request-id"
	XOssPrefix    = "x-oss-"

	// --- Metadata ---
	XOssMetaPrefix = "x-oss-meta-"

	// --- Copy source ---
	XOssCopySource                  = "x-oss-copy-source"
	XOssCopySourceIfMatch           = "x-oss-copy-source-if-match"
	XOssCopySourceIfNoneMatch       = "x-oss-copy-source-if-none-match"
	XOssCopySourceIfModifiedSince   = "x-oss-copy-source-if-modified-since"
	XOssCopySourceIfUnmodifiedSince = "x-oss-copy-source-if-unmodified-since"

	// --- Standard HTTP headers used by the protocol ---
	Authorization      = "Authorization"
	CacheControl       = "Cache-Control"
	ContentDisposition = "Content-Disposition"
	ContentEncoding    = "Content-Encoding"
	ContentLength      = "Content-Length"
	ContentMD5         = "Content-MD5"
	ContentType        = "Content-Type"
	Date               = "Date"
	ETag               = "ETag"
	Expires            = "Expires"
	Range              = "Range"
)

// Query parameters.
const (
	QueryUploads          = "uploads"
	QueryUploadID         = "uploadId"
	QueryPartNumber       = "partNumber"
	QueryPrefix           = "prefix"
	QueryDelimiter        = "delimiter"
	QueryKeyMarker        = "key-marker"
	QueryUploadIDMarker   = "upload-id-marker"
	QueryMaxUploads       = "max-uploads"
	QueryPartNumberMarker = "part-number-marker"
	QueryMaxParts         = "max-parts"
	QueryEncodingType     = "encoding-type"
	QueryDelete           = "delete"
)

// SubResources are the query parameters that take part in the canonicalized
// resource of a request signature.
var SubResources = []string{
	"acl", "append", "bucketInfo", "cname", "comp", "cors", "delete",
	"lifecycle", "location", "logging", "objectMeta", "partNumber",
	"position", "qos", "referer", "restore", "security-token", "stat",
	"symlink", "tagging", "uploadId", "uploads", "versionId", "versioning",
	"versions", "website",
}

// XMLContentType is sent with every XML request body.
const XMLContentType = "application/xml"
