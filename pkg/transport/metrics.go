// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts exchanges by operation and HTTP status. Transport
	// failures are recorded with status "error".
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ossmpu",
			Subsystem: "transport",
			Name:      "requests_total",
			Help:      "Total requests sent to the object storage service",
		},
		[]string{"op", "status"},
	)

	// RequestDuration tracks the time from send to fully read response
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ossmpu",
			Subsystem: "transport",
			Name:      "request_duration_seconds",
			Help:      "Time spent on a request, including reading the response body",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// BytesSent counts request body bytes handed to the connection
	BytesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ossmpu",
			Subsystem: "transport",
			Name:      "bytes_sent_total",
			Help:      "Total request body bytes sent",
		},
		[]string{"op"},
	)

	// RateLimitWait tracks time spent waiting on the request rate limiter
	RateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ossmpu",
			Subsystem: "transport",
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting for the request rate limiter",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		},
	)
)
