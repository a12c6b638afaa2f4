// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store persists encoded graph documents keyed by repository and
// branch, backed by BadgerDB.
package store

import (
	"context"
	"errors"

	"github.com/AleutianAI/AleutianImpact/services/impact/graph"
)

// ErrNotFound is returned when no document exists for a (repo, branch).
var ErrNotFound = errors.New("graph document not found")

// GraphStore persists and retrieves encoded graph documents.
//
// Put stores a document as the latest for its (repo_id, branch); earlier
// documents are superseded, not mutated. Get returns the latest document
// or ErrNotFound.
type GraphStore interface {
	Put(ctx context.Context, doc *graph.Document) error
	Get(ctx context.Context, repoID, branch string) (*graph.Document, error)
	Close() error
}
