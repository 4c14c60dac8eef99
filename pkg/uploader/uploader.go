// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package uploader drives a whole object through the multipart protocol:
// begin, concurrent part uploads, commit.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/LeeDigitalWorks/ossmpu/pkg/logger"
	"github.com/LeeDigitalWorks/ossmpu/pkg/multipart"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/ossconsts"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPartSize    = 8 << 20
	DefaultConcurrency = 4
)

// ErrTooManyParts is returned when the object needs more parts than the
// service allows at the configured part size.
var ErrTooManyParts = errors.New("object needs more than 10000 parts")

// Config tunes an Uploader. Zero values pick the defaults.
type Config struct {
	PartSize    int64
	Concurrency int

	// AbortOnError aborts the transaction when a part or the commit fails.
	// When false the transaction stays open so Resume can finish it.
	AbortOnError bool
}

// Result describes a finished or interrupted upload.
type Result struct {
	// ID is set as soon as the transaction exists, also on failure.
	ID       string
	Parts    int
	Uploaded int
	Skipped  int
	Commit   *multipart.CommitResult
}

type Uploader struct {
	client *multipart.Client
	cfg    Config
}

func New(client *multipart.Client, cfg Config) (*Uploader, error) {
	if cfg.PartSize == 0 {
		cfg.PartSize = DefaultPartSize
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.PartSize < ossconsts.MinPartSize || cfg.PartSize > ossconsts.MaxPartSize {
		return nil, fmt.Errorf("part size %s outside %s..%s",
			humanize.IBytes(uint64(max(cfg.PartSize, 0))),
			humanize.IBytes(ossconsts.MinPartSize),
			humanize.IBytes(ossconsts.MaxPartSize))
	}
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("negative concurrency %d", cfg.Concurrency)
	}
	return &Uploader{client: client, cfg: cfg}, nil
}

// Upload stores size bytes of r as bucket/object.
func (u *Uploader) Upload(ctx context.Context, bucket, object string, r io.ReaderAt, size int64, opts *multipart.BeginOptions) (*Result, error) {
	count, err := u.partCount(size)
	if err != nil {
		return nil, err
	}

	ctx = withSession(ctx, bucket, object)
	id, err := u.client.Begin(ctx, bucket, object, opts)
	if err != nil {
		UploadsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	return u.run(ctx, bucket, object, id, r, size, count, newLedger())
}

// Resume finishes transaction id. Parts already present with the expected
// size are kept; the rest are uploaded again.
func (u *Uploader) Resume(ctx context.Context, bucket, object, id string, r io.ReaderAt, size int64) (*Result, error) {
	count, err := u.partCount(size)
	if err != nil {
		return nil, err
	}

	ctx = withSession(ctx, bucket, object)
	done := newLedger()
	for p, err := range u.client.AllParts(ctx, bucket, object, id, nil) {
		if err != nil {
			return &Result{ID: id, Parts: count}, err
		}
		done.record(p)
	}
	logger.Ctx(ctx).Info().
		Str("upload_id", id).
		Int("listed", done.len()).
		Msg("resuming transaction")
	return u.run(ctx, bucket, object, id, r, size, count, done)
}

func (u *Uploader) partCount(size int64) (int, error) {
	if size < 0 {
		return 0, fmt.Errorf("negative size %d", size)
	}
	n := (size + u.cfg.PartSize - 1) / u.cfg.PartSize
	if n == 0 {
		n = 1
	}
	if n > ossconsts.MaxPartNumber {
		return 0, fmt.Errorf("%w: %s at %s per part", ErrTooManyParts,
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(u.cfg.PartSize)))
	}
	return int(n), nil
}

func (u *Uploader) run(ctx context.Context, bucket, object, id string, r io.ReaderAt, size int64, count int, done *ledger) (*Result, error) {
	log := logger.Ctx(ctx)
	start := time.Now()
	res := &Result{ID: id, Parts: count}

	var todo []int
	for n := 1; n <= count; n++ {
		if done.has(n, u.partLen(n, size)) {
			res.Skipped++
			PartsTotal.WithLabelValues("skipped").Inc()
			continue
		}
		todo = append(todo, n)
	}

	var uploaded atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	if u.cfg.Concurrency > 0 {
		g.SetLimit(u.cfg.Concurrency)
	}
	for _, n := range todo {
		g.Go(func() error {
			off := int64(n-1) * u.cfg.PartSize
			length := u.partLen(n, size)
			p, err := u.client.UploadPart(gctx, bucket, object, id, n,
				multipart.ReaderProducer(io.NewSectionReader(r, off, length)),
				&multipart.UploadPartOptions{Size: length})
			if err != nil {
				PartsTotal.WithLabelValues("failed").Inc()
				return fmt.Errorf("part %d: %w", n, err)
			}
			p.Size = &length
			done.record(p)
			uploaded.Add(1)
			PartsTotal.WithLabelValues("uploaded").Inc()
			log.Debug().Int("part", n).Str("size", humanize.IBytes(uint64(length))).Msg("part uploaded")
			return nil
		})
	}
	err := g.Wait()
	res.Uploaded = int(uploaded.Load())
	if err != nil {
		return res, u.fail(ctx, bucket, object, id, err)
	}

	commit, err := u.client.CommitTransaction(ctx, bucket, object, id, done.upTo(count))
	if err != nil {
		return res, u.fail(ctx, bucket, object, id, fmt.Errorf("commit: %w", err))
	}
	res.Commit = commit
	UploadsTotal.WithLabelValues("committed").Inc()

	elapsed := time.Since(start)
	log.Info().
		Str("upload_id", id).
		Int("parts", count).
		Int("uploaded", res.Uploaded).
		Int("skipped", res.Skipped).
		Str("size", humanize.IBytes(uint64(size))).
		Dur("elapsed", elapsed).
		Msg("upload committed")
	return res, nil
}

// partLen is the length of part n of an object of the given size.
func (u *Uploader) partLen(n int, size int64) int64 {
	off := int64(n-1) * u.cfg.PartSize
	return max(0, min(u.cfg.PartSize, size-off))
}

func (u *Uploader) fail(ctx context.Context, bucket, object, id string, cause error) error {
	log := logger.Ctx(ctx)
	if !u.cfg.AbortOnError {
		UploadsTotal.WithLabelValues("failed").Inc()
		log.Warn().Err(cause).Str("upload_id", id).Msg("upload failed, transaction left open")
		return cause
	}

	UploadsTotal.WithLabelValues("aborted").Inc()
	if err := u.client.AbortTransaction(context.WithoutCancel(ctx), bucket, object, id); err != nil {
		log.Error().Err(err).Str("upload_id", id).Msg("abort after failure")
		return errors.Join(cause, fmt.Errorf("abort: %w", err))
	}
	log.Warn().Err(cause).Str("upload_id", id).Msg("upload failed, transaction aborted")
	return cause
}

// withSession tags every log line of one upload with a session id.
func withSession(ctx context.Context, bucket, object string) context.Context {
	l := logger.Ctx(ctx).With().
		Str("session", uuid.NewString()).
		Str("bucket", bucket).
		Str("object", object).
		Logger()
	return logger.WithLogger(ctx, &l)
}
