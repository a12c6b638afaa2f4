// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aleutian",
		Subsystem: "impact",
		Name:      "graph_builds_total",
		Help:      "Graph builds by outcome (ok, cancelled, error).",
	}, []string{"status"})

	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "aleutian",
		Subsystem: "impact",
		Name:      "graph_build_duration_seconds",
		Help:      "Wall time of graph builds including centrality computation.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	unresolvedImports = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aleutian",
		Subsystem: "impact",
		Name:      "graph_unresolved_imports_total",
		Help:      "Imports that matched no file in the scanned set.",
	})

	centralityDegeneracies = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aleutian",
		Subsystem: "impact",
		Name:      "graph_centrality_degeneracies_total",
		Help:      "Per-node centrality values zeroed due to numerical degeneracy.",
	})
)

func recordBuild(status string, d time.Duration) {
	buildsTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		buildDuration.Observe(d.Seconds())
	}
}
