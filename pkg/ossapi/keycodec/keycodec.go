// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package keycodec converts object keys between their caller form and the
// form they take on the wire.
//
// Two unrelated encodings live here. Encode/Decode implement the
// encoding-type directive of listing requests: when a listing is issued with
// encoding-type=url, the service percent-encodes every key-bearing element of
// the XML response and the client must decode them before handing them out.
// EscapePath is the transport-level escaping applied to every outbound key in
// a request path or copy-source header, independent of encoding-type.
package keycodec

import (
	"fmt"
	"net/url"
	"strings"
)

// Encoding selects how key-bearing fields of a listing response are encoded.
type Encoding string

const (
	// None leaves keys untouched. It is what the service assumes when a
	// request carries no encoding-type.
	None Encoding = "none"
	// URL percent-encodes keys with form encoding (space becomes '+').
	URL Encoding = "url"
)

// IsValid reports whether e is a known encoding.
func (e Encoding) IsValid() bool {
	return e == None || e == URL
}

func (e Encoding) String() string {
	return string(e)
}

// ParseEncoding parses the EncodingType echoed by the service. An empty
// string means the response carried no encoding and maps to None.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(None):
		return None, nil
	case string(URL):
		return URL, nil
	default:
		return "", fmt.Errorf("unknown key encoding %q", s)
	}
}

// Encode encodes key according to mode. The key is treated as raw bytes:
// invalid UTF-8 sequences are percent-encoded byte by byte so that Decode
// restores them exactly.
func Encode(key string, mode Encoding) string {
	if mode != URL {
		return key
	}
	return url.QueryEscape(key)
}

// Decode reverses Encode. Malformed percent escapes are reported as an error.
func Decode(key string, mode Encoding) (string, error) {
	if mode != URL {
		return key, nil
	}
	decoded, err := url.QueryUnescape(key)
	if err != nil {
		return "", fmt.Errorf("decode key %q: %w", key, err)
	}
	return decoded, nil
}

// DecodePtr decodes an optional field, leaving nil untouched.
func DecodePtr(key *string, mode Encoding) (*string, error) {
	if key == nil {
		return nil, nil
	}
	decoded, err := Decode(*key, mode)
	if err != nil {
		return nil, err
	}
	return &decoded, nil
}

// EscapePath percent-escapes key for use in a request path. Slashes are kept
// as segment separators; everything else outside the unreserved set is
// escaped. '+' is sent as %2B so the service never reads it as a space.
func EscapePath(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = strings.ReplaceAll(url.PathEscape(s), "+", "%2B")
	}
	return strings.Join(segments, "/")
}

// CopySource builds the x-oss-copy-source value for a key in bucket.
func CopySource(bucket, key string) string {
	return "/" + bucket + "/" + EscapePath(key)
}
