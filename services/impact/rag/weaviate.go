// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// WeaviateConfig configures the Weaviate-backed retriever.
type WeaviateConfig struct {
	// Host is the Weaviate host:port.
	Host string `yaml:"host"`

	// Scheme is "http" or "https".
	Scheme string `yaml:"scheme"`

	// ClassName is the Weaviate class holding code context documents.
	ClassName string `yaml:"class_name"`
}

// DefaultWeaviateConfig returns the local-deployment defaults.
func DefaultWeaviateConfig() WeaviateConfig {
	return WeaviateConfig{
		Host:      "localhost:8080",
		Scheme:    "http",
		ClassName: "CodeContext",
	}
}

// WeaviateRetriever retrieves context documents with a nearText query
// against a Weaviate class.
//
// Thread Safety: Safe for concurrent use; the underlying client is.
type WeaviateRetriever struct {
	client *weaviate.Client
	config WeaviateConfig
	logger *slog.Logger
}

// NewWeaviateRetriever connects a retriever to the configured instance.
func NewWeaviateRetriever(cfg WeaviateConfig, logger *slog.Logger) (*WeaviateRetriever, error) {
	if cfg.Host == "" {
		cfg = DefaultWeaviateConfig()
	}
	if cfg.ClassName == "" {
		cfg.ClassName = "CodeContext"
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := weaviate.NewClient(weaviate.Config{Host: cfg.Host, Scheme: cfg.Scheme})
	if err != nil {
		return nil, fmt.Errorf("creating weaviate client: %w", err)
	}
	return &WeaviateRetriever{
		client: client,
		config: cfg,
		logger: logger.With("component", "rag.WeaviateRetriever"),
	}, nil
}

// Retrieve runs a nearText query and maps the hits to Documents.
//
// Description:
//
//	Queries the configured class for the k objects nearest to the query
//	text, reading content and source properties plus the match distance.
//	Relevance is reported as 1 - distance, floored at 0.
func (w *WeaviateRetriever) Retrieve(ctx context.Context, query string, k int) ([]Document, error) {
	if k <= 0 {
		k = 5
	}

	nearText := w.client.GraphQL().NearTextArgBuilder().WithConcepts([]string{query})
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}

	resp, err := w.client.GraphQL().Get().
		WithClassName(w.config.ClassName).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate query: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate query: %s", resp.Errors[0].Message)
	}

	docs := w.parseResponse(resp.Data)
	w.logger.Debug("context retrieved",
		slog.Int("requested", k),
		slog.Int("returned", len(docs)))
	return docs, nil
}

// parseResponse walks the generic GraphQL Get payload. Anything shaped
// unexpectedly is skipped rather than failing the whole retrieval.
func (w *WeaviateRetriever) parseResponse(data map[string]models.JSONObject) []Document {
	get, ok := data["Get"].(map[string]any)
	if !ok {
		return nil
	}
	items, ok := get[w.config.ClassName].([]any)
	if !ok {
		return nil
	}

	docs := make([]Document, 0, len(items))
	for _, raw := range items {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		doc := Document{Metadata: map[string]string{}}
		if content, ok := obj["content"].(string); ok {
			doc.Content = content
		}
		if source, ok := obj["source"].(string); ok {
			doc.Metadata["source"] = source
		}
		if add, ok := obj["_additional"].(map[string]any); ok {
			if dist, ok := add["distance"].(float64); ok {
				score := 1 - dist
				if score < 0 {
					score = 0
				}
				doc.RelevanceScore = score
			}
		}
		docs = append(docs, doc)
	}
	return docs
}
