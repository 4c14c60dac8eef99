// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package osserr maps failed protocol exchanges to typed Go errors.
//
// Three failure kinds exist:
//
//   - *ServiceError: the service answered with an Error envelope. This is
//     detected from the body, not the status code, because some operations
//     answer 200 OK with an Error body.
//   - *ProtocolDecodeError: the body could not be decoded into the shape the
//     operation expects. The raw body is kept for diagnostics.
//   - *TransportError: the transport collaborator failed before a response
//     was available.
package osserr

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/ossconsts"
)

// Error codes returned by the service for multipart operations.
// See: https://help.aliyun.com/document_detail/32005.html
const (
	CodeAccessDenied          = "AccessDenied"
	CodeEntityTooLarge        = "EntityTooLarge"
	CodeEntityTooSmall        = "EntityTooSmall"
	CodeInvalidArgument       = "InvalidArgument"
	CodeInvalidDigest         = "InvalidDigest"
	CodeInvalidPart           = "InvalidPart"
	CodeInvalidPartOrder      = "InvalidPartOrder"
	CodeNoSuchBucket          = "NoSuchBucket"
	CodeNoSuchKey             = "NoSuchKey"
	CodeNoSuchUpload          = "NoSuchUpload"
	CodePreconditionFailed    = "PreconditionFailed"
	CodeSignatureDoesNotMatch = "SignatureDoesNotMatch"
)

// ErrInvalidArgument is wrapped by errors raised before a request is sent
// because the caller supplied an unusable argument.
var ErrInvalidArgument = errors.New("oss: invalid argument")

// ErrorResponse is the XML error envelope returned by the service.
type ErrorResponse struct {
	XMLName   xml.Name `xml:"Error"`
	Code      string   `xml:"Code"`
	Message   string   `xml:"Message"`
	RequestID string   `xml:"RequestId"`
	HostID    string   `xml:"HostId,omitempty"`
}

// ServiceError is a failure reported by the service through an Error envelope.
type ServiceError struct {
	Code       string
	Message    string
	RequestID  string
	HostID     string
	HTTPStatus int
}

// Error returns the envelope's Message verbatim.
func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Code, e.HTTPStatus)
}

// ProtocolDecodeError reports a response body that did not match the schema
// the operation expects.
type ProtocolDecodeError struct {
	Op   string
	Body []byte
	Err  error
}

func (e *ProtocolDecodeError) Error() string {
	var b strings.Builder
	b.WriteString("oss.")
	b.WriteString(e.Op)
	b.WriteString(": decode response: ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProtocolDecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError creates a ProtocolDecodeError.
func NewDecodeError(op string, body []byte, err error) *ProtocolDecodeError {
	return &ProtocolDecodeError{Op: op, Body: body, Err: err}
}

// TransportError wraps a failure of the transport collaborator.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("oss.%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// InvalidArgument returns an error wrapping ErrInvalidArgument.
func InvalidArgument(op, format string, args ...any) error {
	return fmt.Errorf("oss.%s: %w: %s", op, ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// FromResponse inspects a completed exchange and returns the failure it
// carries, or nil when the response is a success. The Error envelope is
// honoured regardless of status code.
func FromResponse(op string, status int, header http.Header, body []byte) error {
	if envelope, ok := parseEnvelope(body); ok {
		se := &ServiceError{
			Code:       envelope.Code,
			Message:    envelope.Message,
			RequestID:  envelope.RequestID,
			HostID:     envelope.HostID,
			HTTPStatus: status,
		}
		if se.RequestID == "" && header != nil {
			se.RequestID = header.Get(ossconsts.XOssRequestID)
		}
		return se
	}

	if status >= 200 && status < 300 {
		return nil
	}

	if len(bytes.TrimSpace(body)) > 0 {
		return NewDecodeError(op, body, fmt.Errorf("HTTP %d with unrecognized body", status))
	}

	se := &ServiceError{
		Code:       "Unknown" + strings.ReplaceAll(http.StatusText(status), " ", ""),
		HTTPStatus: status,
	}
	if header != nil {
		se.RequestID = header.Get(ossconsts.XOssRequestID)
	}
	return se
}

// parseEnvelope decodes body as an Error envelope. It only succeeds when the
// root element is <Error>.
func parseEnvelope(body []byte) (*ErrorResponse, bool) {
	if !IsErrorBody(body) {
		return nil, false
	}
	var envelope ErrorResponse
	if err := xml.Unmarshal(body, &envelope); err != nil {
		return nil, false
	}
	return &envelope, true
}

// IsErrorBody reports whether the root element of body is <Error>.
func IsErrorBody(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err != nil {
			return false
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local == "Error"
		}
	}
}

// AsServiceError returns the ServiceError in err's chain, if any.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// HasCode reports whether err carries a ServiceError with the given code.
func HasCode(err error, code string) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == code
}

// IsNoSuchUpload reports whether the transaction referenced by the failed
// call is not open (never begun, committed, aborted or expired).
func IsNoSuchUpload(err error) bool {
	return HasCode(err, CodeNoSuchUpload)
}

// IsInvalidPart reports whether a commit referenced a part that was never
// uploaded or whose ETag does not match.
func IsInvalidPart(err error) bool {
	return HasCode(err, CodeInvalidPart) || HasCode(err, CodeInvalidPartOrder)
}

// IsPreconditionFailed reports whether a conditional copy was rejected.
func IsPreconditionFailed(err error) bool {
	return HasCode(err, CodePreconditionFailed)
}

// IsDecodeError reports whether err is a ProtocolDecodeError.
func IsDecodeError(err error) bool {
	var de *ProtocolDecodeError
	return errors.As(err, &de)
}

// IsTransportError reports whether err originated in the transport.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
