// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rag provides the context-retrieval collaborator: given a change
// description it fetches related documents for the narrative report. The
// retrieved context is advisory only and never feeds the numeric pipeline.
package rag

import (
	"context"
)

// Document is one retrieved context item.
type Document struct {
	Content        string            `json:"content"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	RelevanceScore float64           `json:"relevance_score"`
}

// Retriever fetches up to k documents relevant to a query.
//
// Implementations must treat failures as their own concern at the call
// site: the orchestrator degrades to an empty context when retrieval is
// unavailable.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Document, error)
}

// NoopRetriever always returns an empty context. Used when no retrieval
// backend is configured.
type NoopRetriever struct{}

// Retrieve returns an empty document list.
func (NoopRetriever) Retrieve(_ context.Context, _ string, _ int) ([]Document, error) {
	return nil, nil
}
