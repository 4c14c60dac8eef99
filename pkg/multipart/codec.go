// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/keycodec"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/ossconsts"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/osserr"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/osstypes"
)

// Operation names, used in errors, logs and metrics.
const (
	OpBegin                = "begin"
	OpUploadPart           = "uploadPart"
	OpUploadPartFromObject = "uploadPartFromObject"
	OpCommit               = "commitTransaction"
	OpAbort                = "abortTransaction"
	OpListTransactions     = "listTransactions"
	OpListParts            = "listParts"
	OpBatchDelete          = "batchDelete"
)

// timeLayouts are the timestamp formats the service and its emulators use.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
}

func marshalBody(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// BuildCommitBody builds the CompleteMultipartUpload body. Parts are emitted
// in the order given; only number and ETag are sent.
func BuildCommitBody(parts []Part) ([]byte, error) {
	req := osstypes.CompleteMultipartUpload{
		Parts: make([]osstypes.CompletePart, 0, len(parts)),
	}
	for _, p := range parts {
		req.Parts = append(req.Parts, osstypes.CompletePart{
			PartNumber: p.Number,
			ETag:       p.ETag,
		})
	}
	return marshalBody(req)
}

// BuildDeleteBody builds the body of a batch delete request.
func BuildDeleteBody(keys []string, quiet bool) ([]byte, error) {
	req := osstypes.DeleteObjectsRequest{
		Quiet:   quiet,
		Objects: make([]osstypes.DeleteObjectEntry, 0, len(keys)),
	}
	for _, k := range keys {
		req.Objects = append(req.Objects, osstypes.DeleteObjectEntry{Key: k})
	}
	return marshalBody(req)
}

// ParseDeleteResult returns the keys reported as deleted, decoded with the
// echoed encoding type.
func ParseDeleteResult(body []byte) ([]string, error) {
	var result osstypes.DeleteObjectsResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, osserr.NewDecodeError(OpBatchDelete, body, err)
	}
	enc, err := parseEncoding(result.EncodingType)
	if err != nil {
		return nil, osserr.NewDecodeError(OpBatchDelete, body, err)
	}
	deleted := make([]string, 0, len(result.Deleted))
	for _, d := range result.Deleted {
		key, err := keycodec.Decode(d.Key, enc)
		if err != nil {
			return nil, osserr.NewDecodeError(OpBatchDelete, body, err)
		}
		deleted = append(deleted, key)
	}
	return deleted, nil
}

// ParseBeginResult returns the transaction id issued by the service.
func ParseBeginResult(body []byte) (string, error) {
	var result osstypes.InitiateMultipartUploadResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return "", osserr.NewDecodeError(OpBegin, body, err)
	}
	if result.UploadID == "" {
		return "", osserr.NewDecodeError(OpBegin, body, errors.New("missing UploadId"))
	}
	return result.UploadID, nil
}

// ParseCommitResult decodes the CompleteMultipartUploadResult body. An empty
// body yields an empty result.
func ParseCommitResult(body []byte) (*CommitResult, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return &CommitResult{}, nil
	}
	var result osstypes.CompleteMultipartUploadResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, osserr.NewDecodeError(OpCommit, body, err)
	}
	enc, err := parseEncoding(result.EncodingType)
	if err != nil {
		return nil, osserr.NewDecodeError(OpCommit, body, err)
	}
	key, err := keycodec.Decode(result.Key, enc)
	if err != nil {
		return nil, osserr.NewDecodeError(OpCommit, body, err)
	}
	return &CommitResult{
		Location: result.Location,
		Bucket:   result.Bucket,
		Key:      key,
		ETag:     result.ETag,
	}, nil
}

// ParseUploadPartResult builds the uploaded Part from the response headers.
// The service does not echo the part number, so the caller supplies it.
func ParseUploadPartResult(header http.Header, number int) (Part, error) {
	etag := header.Get(ossconsts.ETag)
	if etag == "" {
		return Part{}, osserr.NewDecodeError(OpUploadPart, nil, errors.New("missing ETag header"))
	}
	return Part{Number: number, ETag: etag}, nil
}

// ParseCopyPartResult builds the copied Part. An Error envelope in the body
// is reported as a ServiceError even though the status was a success. The
// ETag comes from the CopyPartResult body, falling back to the ETag header.
func ParseCopyPartResult(body []byte, header http.Header, number int) (Part, error) {
	if osserr.IsErrorBody(body) {
		return Part{}, osserr.FromResponse(OpUploadPartFromObject, http.StatusOK, header, body)
	}

	var etag string
	if len(bytes.TrimSpace(body)) > 0 {
		var result osstypes.CopyPartResult
		if err := xml.Unmarshal(body, &result); err != nil {
			return Part{}, osserr.NewDecodeError(OpUploadPartFromObject, body, err)
		}
		etag = result.ETag
	}
	if etag == "" {
		etag = header.Get(ossconsts.ETag)
	}
	if etag == "" {
		return Part{}, osserr.NewDecodeError(OpUploadPartFromObject, body, errors.New("missing ETag"))
	}
	return Part{Number: number, ETag: etag}, nil
}

// ParseListTransactionsResult decodes a ListMultipartUploadsResult. Key
// bearing fields are decoded with the echoed EncodingType; bucket names the
// listed bucket.
func ParseListTransactionsResult(bucket string, body []byte) ([]Transaction, *Pagination, error) {
	fail := func(err error) ([]Transaction, *Pagination, error) {
		return nil, nil, osserr.NewDecodeError(OpListTransactions, body, err)
	}

	var result osstypes.ListMultipartUploadsResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return fail(err)
	}
	enc, err := parseEncoding(result.EncodingType)
	if err != nil {
		return fail(err)
	}

	more := &Pagination{
		IDMarker:     result.UploadIDMarker,
		NextIDMarker: result.NextUploadIDMarker,
	}
	if result.EncodingType != nil {
		more.Encoding = &enc
	}
	for _, f := range []struct {
		dst **string
		src *string
	}{
		{&more.Prefix, result.Prefix},
		{&more.Delimiter, result.Delimiter},
		{&more.KeyMarker, result.KeyMarker},
		{&more.NextKeyMarker, result.NextKeyMarker},
	} {
		if *f.dst, err = keycodec.DecodePtr(f.src, enc); err != nil {
			return fail(err)
		}
	}
	for _, cp := range result.CommonPrefixes {
		prefix, err := keycodec.Decode(cp.Prefix, enc)
		if err != nil {
			return fail(err)
		}
		more.CommonPrefixes = append(more.CommonPrefixes, prefix)
	}
	if more.Limit, err = parseOptionalInt(result.MaxUploads); err != nil {
		return fail(err)
	}
	if more.Truncated, err = parseOptionalBool(result.IsTruncated); err != nil {
		return fail(err)
	}

	txns := make([]Transaction, 0, len(result.Uploads))
	for _, u := range result.Uploads {
		object, err := keycodec.Decode(u.Key, enc)
		if err != nil {
			return fail(err)
		}
		created, err := parseTime(u.Initiated)
		if err != nil {
			return fail(fmt.Errorf("upload %s: %w", u.UploadID, err))
		}
		txns = append(txns, Transaction{
			ID:           u.UploadID,
			Bucket:       bucket,
			Object:       object,
			CreationTime: created,
		})
	}

	if err := more.settle(OpListTransactions, body); err != nil {
		return nil, nil, err
	}
	return txns, more, nil
}

// ParseListPartsResult decodes a ListPartsResult.
func ParseListPartsResult(body []byte) ([]Part, *Pagination, error) {
	fail := func(err error) ([]Part, *Pagination, error) {
		return nil, nil, osserr.NewDecodeError(OpListParts, body, err)
	}

	var result osstypes.ListPartsResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return fail(err)
	}
	enc, err := parseEncoding(result.EncodingType)
	if err != nil {
		return fail(err)
	}

	more := &Pagination{
		Marker:     result.PartNumberMarker,
		NextMarker: result.NextPartNumberMarker,
	}
	if result.EncodingType != nil {
		more.Encoding = &enc
	}
	if more.Limit, err = parseOptionalInt(result.MaxParts); err != nil {
		return fail(err)
	}
	if more.Truncated, err = parseOptionalBool(result.IsTruncated); err != nil {
		return fail(err)
	}

	parts := make([]Part, 0, len(result.Parts))
	for _, p := range result.Parts {
		number, err := strconv.Atoi(strings.TrimSpace(p.PartNumber))
		if err != nil {
			return fail(fmt.Errorf("PartNumber: %w", err))
		}
		part := Part{Number: number, ETag: p.ETag}
		if s := strings.TrimSpace(p.Size); s != "" {
			size, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fail(fmt.Errorf("part %d Size: %w", number, err))
			}
			part.Size = &size
		}
		if p.LastModified != "" {
			modified, err := parseTime(p.LastModified)
			if err != nil {
				return fail(fmt.Errorf("part %d: %w", number, err))
			}
			part.LastModified = &modified
		}
		parts = append(parts, part)
	}

	if err := more.settle(OpListParts, body); err != nil {
		return nil, nil, err
	}
	return parts, more, nil
}

func parseEncoding(s *string) (keycodec.Encoding, error) {
	if s == nil {
		return keycodec.None, nil
	}
	return keycodec.ParseEncoding(*s)
}

func parseOptionalInt(s *string) (*int, error) {
	if s == nil {
		return nil, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(*s))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptionalBool(s *string) (bool, error) {
	if s == nil {
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(*s))
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
