// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"errors"

	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/keycodec"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/osserr"
)

// Pagination is the listing state returned next to a page of results.
//
// Fields the service did not echo are nil. Truncated is true exactly when at
// least one Next* marker is set; those markers feed the next page request.
type Pagination struct {
	Prefix    *string
	Delimiter *string
	Marker    *string
	KeyMarker *string
	IDMarker  *string
	Limit     *int
	Encoding  *keycodec.Encoding

	// CommonPrefixes are the keys rolled up by Delimiter, decoded. Only
	// transaction listings carry them.
	CommonPrefixes []string

	NextMarker    *string
	NextKeyMarker *string
	NextIDMarker  *string

	Truncated bool
}

// IsExhausted reports whether this was the last page.
func (p *Pagination) IsExhausted() bool {
	return p == nil || !p.Truncated
}

// NextTransactionsOptions returns prev advanced to the page after this one.
func (p *Pagination) NextTransactionsOptions(prev ListTransactionsOptions) ListTransactionsOptions {
	next := prev
	next.KeyMarker = ""
	next.IDMarker = ""
	if p.NextKeyMarker != nil {
		next.KeyMarker = *p.NextKeyMarker
	}
	if p.NextIDMarker != nil {
		next.IDMarker = *p.NextIDMarker
	}
	return next
}

// NextPartsOptions returns prev advanced to the page after this one.
func (p *Pagination) NextPartsOptions(prev ListPartsOptions) ListPartsOptions {
	next := prev
	next.Marker = ""
	if p.NextMarker != nil {
		next.Marker = *p.NextMarker
	}
	return next
}

var errTruncatedWithoutMarker = errors.New("IsTruncated is true but no next marker is present")

// settle enforces the truncation invariant on a freshly decoded page. Empty
// next markers count as absent, and markers on a final page are dropped.
func (p *Pagination) settle(op string, body []byte) error {
	p.NextMarker = nonEmpty(p.NextMarker)
	p.NextKeyMarker = nonEmpty(p.NextKeyMarker)
	p.NextIDMarker = nonEmpty(p.NextIDMarker)

	hasNext := p.NextMarker != nil || p.NextKeyMarker != nil || p.NextIDMarker != nil
	if p.Truncated && !hasNext {
		return osserr.NewDecodeError(op, body, errTruncatedWithoutMarker)
	}
	if !p.Truncated {
		p.NextMarker = nil
		p.NextKeyMarker = nil
		p.NextIDMarker = nil
	}
	return nil
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
