// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aleutian",
		Subsystem: "impact",
		Name:      "analyses_total",
		Help:      "Impact analyses by terminal status.",
	}, []string{"status"})

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "aleutian",
		Subsystem: "impact",
		Name:      "analysis_duration_seconds",
		Help:      "Wall time of impact analyses including collaborator calls.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 4, 10),
	})
)

func recordAnalysis(status string, d time.Duration) {
	analysesTotal.WithLabelValues(status).Inc()
	analysisDuration.Observe(d.Seconds())
}
