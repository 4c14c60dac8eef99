// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package uploader

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PartsTotal counts parts by outcome: uploaded, skipped, failed
	PartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ossmpu",
			Subsystem: "uploader",
			Name:      "parts_total",
			Help:      "Parts handled by the uploader, by outcome",
		},
		[]string{"result"},
	)

	// UploadsTotal counts finished uploads by outcome: committed, failed, aborted
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ossmpu",
			Subsystem: "uploader",
			Name:      "uploads_total",
			Help:      "Uploads finished by the uploader, by outcome",
		},
		[]string{"result"},
	)
)
