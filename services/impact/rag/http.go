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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpRetrieveRequest is the wire request for the generic retrieval API.
type httpRetrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// httpRetrieveResponse is the wire response for the generic retrieval API.
type httpRetrieveResponse struct {
	Documents []Document `json:"documents"`
}

// HTTPRetriever talks to any retrieval service exposing a single
// POST /retrieve endpoint with the JSON shapes above. Used when the
// deployment fronts its vector store with its own API.
type HTTPRetriever struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPRetriever creates a retriever for the given base URL.
func NewHTTPRetriever(baseURL string, timeout time.Duration) *HTTPRetriever {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPRetriever{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Retrieve posts the query and decodes the returned documents.
func (r *HTTPRetriever) Retrieve(ctx context.Context, query string, k int) ([]Document, error) {
	if k <= 0 {
		k = 5
	}
	body, err := json.Marshal(httpRetrieveRequest{Query: query, TopK: k})
	if err != nil {
		return nil, fmt.Errorf("marshaling retrieve request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/retrieve", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating retrieve request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieval service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("retrieval service returned %d: %s", resp.StatusCode, string(raw))
	}

	var out httpRetrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding retrieve response: %w", err)
	}
	return out.Documents, nil
}
