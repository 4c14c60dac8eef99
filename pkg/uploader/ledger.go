// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package uploader

import (
	"sync"

	"github.com/LeeDigitalWorks/ossmpu/pkg/multipart"

	"github.com/google/btree"
)

// ledger keeps the parts of one transaction ordered by part number. Parts
// complete out of order under concurrent upload; commit needs them sorted.
type ledger struct {
	mu   sync.Mutex
	tree *btree.BTree
}

// partItem implements btree.Item ordered by part number
type partItem struct {
	part multipart.Part
}

func (a *partItem) Less(b btree.Item) bool {
	return a.part.Number < b.(*partItem).part.Number
}

func newLedger() *ledger {
	return &ledger{tree: btree.New(16)}
}

// record stores p, replacing an earlier upload of the same number.
func (l *ledger) record(p multipart.Part) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tree.ReplaceOrInsert(&partItem{part: p})
}

// has reports whether part number n is recorded with the given size. Parts
// recorded without a size never match.
func (l *ledger) has(n int, size int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	item := l.tree.Get(&partItem{part: multipart.Part{Number: n}})
	if item == nil {
		return false
	}
	p := item.(*partItem).part
	return p.Size != nil && *p.Size == size
}

// upTo returns the recorded parts numbered 1..n in ascending order.
func (l *ledger) upTo(n int) []multipart.Part {
	l.mu.Lock()
	defer l.mu.Unlock()
	parts := make([]multipart.Part, 0, min(n, l.tree.Len()))
	l.tree.AscendLessThan(&partItem{part: multipart.Part{Number: n + 1}}, func(item btree.Item) bool {
		parts = append(parts, item.(*partItem).part)
		return true
	})
	return parts
}

func (l *ledger) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tree.Len()
}
