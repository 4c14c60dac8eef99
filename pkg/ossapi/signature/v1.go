// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package signature

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/ossconsts"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// AuthHeaderV1 is the scheme of the Authorization header.
const AuthHeaderV1 = "OSS"

// headerSecurityToken carries the session token of temporary credentials.
const headerSecurityToken = "x-oss-security-token"

// V1Signer signs requests with the OSS header signature:
//
//	Authorization: OSS AccessKeyId:base64(HMAC-SHA1(secret, StringToSign))
//
// where StringToSign is
//
//	VERB + "\n" +
//	Content-MD5 + "\n" +
//	Content-Type + "\n" +
//	Date + "\n" +
//	CanonicalizedOSSHeaders +
//	CanonicalizedResource
type V1Signer struct {
	credentials aws.CredentialsProvider
	now         func() time.Time
}

// NewV1Signer creates a signer reading credentials from provider on every
// request, so rotating providers are honoured.
func NewV1Signer(provider aws.CredentialsProvider) *V1Signer {
	return &V1Signer{
		credentials: provider,
		now:         time.Now,
	}
}

// NewStaticV1Signer creates a signer for a fixed access key pair.
func NewStaticV1Signer(accessKeyID, accessKeySecret string) *V1Signer {
	return NewV1Signer(credentials.NewStaticCredentialsProvider(accessKeyID, accessKeySecret, ""))
}

// Sign sets the Date and Authorization headers of r. bucket and object are
// the raw names the request addresses; either may be empty.
func (s *V1Signer) Sign(ctx context.Context, r *http.Request, bucket, object string) error {
	creds, err := s.credentials.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("retrieve credentials: %w", err)
	}
	if creds.SessionToken != "" {
		r.Header.Set(headerSecurityToken, creds.SessionToken)
	}
	if r.Header.Get(ossconsts.Date) == "" {
		r.Header.Set(ossconsts.Date, s.now().UTC().Format(http.TimeFormat))
	}

	sig := calculateSignature(creds.SecretAccessKey, StringToSign(r, bucket, object))
	r.Header.Set(ossconsts.Authorization, AuthHeaderV1+" "+creds.AccessKeyID+":"+sig)
	return nil
}

// StringToSign builds the string the V1 signature is computed over.
func StringToSign(r *http.Request, bucket, object string) string {
	return strings.Join([]string{
		r.Method,
		r.Header.Get(ossconsts.ContentMD5),
		r.Header.Get(ossconsts.ContentType),
		r.Header.Get(ossconsts.Date),
		canonicalizedOSSHeaders(r) + canonicalizedResource(r, bucket, object),
	}, "\n")
}

// canonicalizedOSSHeaders lists the x-oss-* headers, lower-cased and sorted,
// one "name:value" per line.
func canonicalizedOSSHeaders(r *http.Request) string {
	var names []string
	for name := range r.Header {
		if strings.HasPrefix(strings.ToLower(name), ossconsts.XOssPrefix) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	slices.SortFunc(names, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})

	var b strings.Builder
	for _, name := range names {
		values := r.Header.Values(name)
		trimmed := make([]string, len(values))
		for i, v := range values {
			trimmed[i] = strings.TrimSpace(v)
		}
		b.WriteString(strings.ToLower(name))
		b.WriteByte(':')
		b.WriteString(strings.Join(trimmed, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// canonicalizedResource is /bucket/object followed by the sub-resources of
// the query string in sorted order.
func canonicalizedResource(r *http.Request, bucket, object string) string {
	resource := "/"
	if bucket != "" {
		resource += bucket + "/" + object
	}

	query := r.URL.Query()
	var found []string
	for _, sub := range ossconsts.SubResources {
		if !query.Has(sub) {
			continue
		}
		if val := query.Get(sub); val != "" {
			found = append(found, sub+"="+val)
		} else {
			found = append(found, sub)
		}
	}
	if len(found) == 0 {
		return resource
	}
	slices.Sort(found)
	return resource + "?" + strings.Join(found, "&")
}

func calculateSignature(secret, stringToSign string) string {
	h := hmac.New(sha1.New, []byte(secret))
	h.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
