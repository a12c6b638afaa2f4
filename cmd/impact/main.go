// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command impact starts the Aleutian Impact API server.
//
// Aleutian Impact performs change-impact analysis over a repository's
// dependency graph:
//   - Graph construction from parsed source artifacts
//   - Forward and reverse reachability from a changed-file set
//   - Criticality scoring and risk classification
//   - Rule-based recommendations and test planning
//
// Usage:
//
//	go run ./cmd/impact
//	go run ./cmd/impact -port 9090 -data-dir /var/lib/aleutian/impact
//
// With a config file:
//
//	go run ./cmd/impact -config impact.yaml
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/impact/health
//
//	# Build a graph from a directory
//	curl -X POST http://localhost:8080/v1/impact/scan \
//	  -H "Content-Type: application/json" \
//	  -d '{"repo_id": "myrepo", "branch": "main", "path": "/path/to/repo"}'
//
//	# Analyze a change
//	curl -X POST http://localhost:8080/v1/impact/analyze \
//	  -H "Content-Type: application/json" \
//	  -d '{"repo_id": "myrepo", "change_description": "refactor auth", "affected_files": ["services/auth/login.py"]}'
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/AleutianAI/AleutianImpact/services/impact"
	"github.com/AleutianAI/AleutianImpact/services/impact/store"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	configPath := flag.String("config", "", "Path to YAML config file")
	dataDir := flag.String("data-dir", "", "BadgerDB data directory (default ~/.aleutian/impact)")
	flag.Parse()

	if *debug {
		gin.SetMode(gin.DebugMode)
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	cfg, err := impact.LoadServiceConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Graph store with graceful degradation: if the data directory cannot
	// be opened the service runs without persistence.
	dir := *dataDir
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".aleutian", "impact")
		}
	}
	var graphStore store.GraphStore
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Warn("Data directory unavailable, graph persistence disabled",
				slog.String("path", dir),
				slog.String("error", err.Error()))
		} else if s, err := store.OpenBadger(dir, slog.Default()); err != nil {
			slog.Warn("Graph store BadgerDB unavailable, graph persistence disabled",
				slog.String("path", dir),
				slog.String("error", err.Error()))
		} else {
			graphStore = s
			slog.Info("Graph store BadgerDB opened", slog.String("path", dir))
		}
	}

	svc := impact.NewService(cfg, graphStore, slog.Default())
	handlers := impact.NewHandlers(svc)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("aleutian-impact"))
	if *debug {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	impact.RegisterRoutes(v1, handlers)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	printBanner(*port, graphStore != nil)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		slog.Info("Shutting down Aleutian Impact server")
		if graphStore != nil {
			if err := graphStore.Close(); err != nil {
				slog.Warn("Failed to close graph store", slog.String("error", err.Error()))
			}
		}
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Starting Aleutian Impact server", slog.String("address", addr))
	if err := router.Run(addr); err != nil {
		slog.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func printBanner(port int, persistence bool) {
	persistStatus := "disabled"
	if persistence {
		persistStatus = "enabled"
	}

	banner := `
  Aleutian Impact: change-impact analysis service

  Persistence: %s
  Listening:   http://localhost:%d

  POST /v1/impact/scan      build a dependency graph
  POST /v1/impact/analyze   analyze a change set
  GET  /v1/impact/health    health check

`
	fmt.Printf(banner, persistStatus, port)
}
