// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"testing"

	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/keycodec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginationSettle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        Pagination
		wantErr   bool
		wantTrunc bool
		wantNext  bool
	}{
		{name: "final page", in: Pagination{}},
		{name: "truncated with marker", in: Pagination{Truncated: true, NextMarker: ptr("5")}, wantTrunc: true, wantNext: true},
		{name: "truncated with id marker only", in: Pagination{Truncated: true, NextIDMarker: ptr("id")}, wantTrunc: true, wantNext: true},
		{name: "truncated without marker", in: Pagination{Truncated: true}, wantErr: true},
		{name: "truncated with empty marker", in: Pagination{Truncated: true, NextKeyMarker: ptr("")}, wantErr: true},
		{name: "stray marker dropped", in: Pagination{NextMarker: ptr("5"), NextKeyMarker: ptr("k")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := tt.in
			err := p.settle(OpListParts, []byte("<x/>"))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTrunc, p.Truncated)
			hasNext := p.NextMarker != nil || p.NextKeyMarker != nil || p.NextIDMarker != nil
			assert.Equal(t, tt.wantNext, hasNext)
			assert.Equal(t, !tt.wantTrunc, p.IsExhausted())
		})
	}
}

func TestPaginationNextOptions(t *testing.T) {
	t.Parallel()

	more := &Pagination{
		Truncated:     true,
		NextKeyMarker: ptr("next-key"),
		NextIDMarker:  ptr("next-id"),
		NextMarker:    ptr("7"),
	}

	txOpts := more.NextTransactionsOptions(ListTransactionsOptions{
		Prefix:    "foo-",
		KeyMarker: "key",
		IDMarker:  "id",
		Limit:     10,
		Encoding:  keycodec.URL,
	})
	assert.Equal(t, ListTransactionsOptions{
		Prefix:    "foo-",
		KeyMarker: "next-key",
		IDMarker:  "next-id",
		Limit:     10,
		Encoding:  keycodec.URL,
	}, txOpts)

	partOpts := more.NextPartsOptions(ListPartsOptions{Marker: "3", Limit: 2})
	assert.Equal(t, ListPartsOptions{Marker: "7", Limit: 2}, partOpts)

	var none *Pagination
	assert.True(t, none.IsExhausted())
}
