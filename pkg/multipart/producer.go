// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"context"
	"errors"
	"io"
)

// BodyProducer writes a part's content to w. It runs on its own goroutine
// while the transport reads the other end, so the part is never held in
// memory. A returned error aborts the upload.
type BodyProducer func(w io.Writer) error

// ReaderProducer returns a BodyProducer that copies r.
func ReaderProducer(r io.Reader) BodyProducer {
	return func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	}
}

var errBodyAbandoned = errors.New("request body abandoned")

// startProducer runs p against a pipe and returns the read side. finish
// must be called once the transport is done with the body; it unblocks the
// producer and waits for it to return, or for ctx to end. A producer stuck
// reading its own source is left behind in that case and exits on its next
// write.
func startProducer(p BodyProducer) (body io.Reader, finish func(ctx context.Context) error) {
	pr, pw := io.Pipe()
	done := make(chan error, 1)

	go func() {
		err := p(pw)
		// nil closes with io.EOF
		pw.CloseWithError(err)
		done <- err
	}()

	result := func(err error) error {
		if errors.Is(err, errBodyAbandoned) {
			return nil
		}
		return err
	}
	finish = func(ctx context.Context) error {
		pr.CloseWithError(errBodyAbandoned)
		select {
		case err := <-done:
			return result(err)
		case <-ctx.Done():
		}
		select {
		case err := <-done:
			return result(err)
		default:
			return ctx.Err()
		}
	}
	return pr, finish
}
