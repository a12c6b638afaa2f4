// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package impact

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all Impact routes with the router.
//
// Description:
//
//	Registers all /v1/impact/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Analysis Endpoints:
//
//	POST /v1/impact/analyze - Run a change-impact analysis
//	POST /v1/impact/scan - Build and persist a dependency graph
//	POST /v1/impact/criticality - Score every node of a graph
//	POST /v1/impact/path - Find paths between two nodes
//
// Graph Inspection Endpoints:
//
//	GET  /v1/impact/graph/stats - Structural metrics and top central nodes
//	GET  /v1/impact/node/:id/report - Per-node dependency report
//
// Health Endpoints:
//
//	GET  /v1/impact/health - Health check
//	GET  /v1/impact/ready - Readiness check
//
// Example:
//
//	service := impact.NewService(impact.DefaultServiceConfig(), graphStore, logger)
//	handlers := impact.NewHandlers(service)
//
//	v1 := router.Group("/v1")
//	impact.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	impact := rg.Group("/impact")
	{
		// Analysis pipeline
		impact.POST("/analyze", handlers.HandleAnalyze)
		impact.POST("/scan", handlers.HandleScan)
		impact.POST("/criticality", handlers.HandleCriticality)
		impact.POST("/path", handlers.HandlePathAnalyze)

		// Graph inspection
		impact.GET("/graph/stats", handlers.HandleGraphStats)
		impact.GET("/node/:id/report", handlers.HandleNodeReport)

		// Health checks
		impact.GET("/health", handlers.HandleHealth)
		impact.GET("/ready", handlers.HandleReady)
	}
}
