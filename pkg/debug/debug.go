// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package debug serves Prometheus metrics and pprof while a long running
// command is in progress.
package debug

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"sync/atomic"
	"time"

	"github.com/LeeDigitalWorks/ossmpu/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var busy atomic.Int64

// Begin marks one unit of work (an upload) as running. The returned func
// ends it.
func Begin() func() {
	busy.Add(1)
	return func() { busy.Add(-1) }
}

// Busy reports how many units of work are running.
func Busy() int64 {
	return busy.Load()
}

func GetMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
	mux.Handle("/debug/", http.HandlerFunc(pprof.Index))
	mux.Handle("/debug/goroutine/", pprof.Handler("goroutine"))
	mux.Handle("/debug/heap/", pprof.Handler("heap"))
	mux.Handle("/debug/profile", http.HandlerFunc(pprof.Profile))
	mux.Handle("/debug/trace", http.HandlerFunc(pprof.Trace))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// busy while an upload runs, so scrapers can tell idle from stalled
	mux.HandleFunc("/busy", func(w http.ResponseWriter, r *http.Request) {
		if Busy() > 0 {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNoContent)
		}
	})
	return mux
}

// Serve listens on addr until ctx is done. It returns once the listener is
// bound; the returned func waits for shutdown.
func Serve(ctx context.Context, addr string) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: GetMux(), ReadHeaderTimeout: 10 * time.Second}
	logger.Info().Str("addr", ln.Addr().String()).Msg("debug server listening")

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("debug server")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	return func() { <-done }, nil
}
