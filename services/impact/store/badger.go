// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianImpact/services/impact/graph"
)

// BadgerDB key layout.
//
//	impact:graph:{repo_id}:{branch}:latest       → JSON(Document)
//	impact:graph:{repo_id}:{branch}:rev:{uuid}   → JSON(Document)
const (
	keyPrefixGraph  = "impact:graph:"
	keySuffixLatest = ":latest"
	keyInfixRev     = ":rev:"
)

// BadgerStore is a GraphStore backed by a BadgerDB instance.
//
// Description:
//
//	Each Put writes the document twice: under the latest key for its
//	(repo_id, branch), overwriting the previous pointer, and under a
//	revision key derived from the document's graph_id so prior revisions
//	remain retrievable by operators.
//
// Thread Safety: Safe for concurrent use; BadgerDB transactions provide
// isolation.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenBadger opens or creates a BadgerDB at dir and wraps it in a store.
// An empty dir opens an in-memory database, used by tests and degraded
// deployments without a data volume.
func OpenBadger(dir string, logger *slog.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store.BadgerStore")

	opts := badger.DefaultOptions(dir)
	opts = opts.WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %q: %w", dir, err)
	}
	return &BadgerStore{db: db, logger: logger}, nil
}

// NewBadgerStore wraps an already-open BadgerDB.
func NewBadgerStore(db *badger.DB, logger *slog.Logger) (*BadgerStore, error) {
	if db == nil {
		return nil, fmt.Errorf("badger db must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerStore{db: db, logger: logger.With("component", "store.BadgerStore")}, nil
}

// Put stores doc as the latest document for its (repo_id, branch).
func (s *BadgerStore) Put(ctx context.Context, doc *graph.Document) error {
	if doc == nil {
		return fmt.Errorf("document must not be nil")
	}
	if doc.RepoID == "" || doc.Branch == "" {
		return fmt.Errorf("document missing repo_id or branch")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}

	latestKey := latestKey(doc.RepoID, doc.Branch)
	revKey := keyPrefixGraph + doc.RepoID + ":" + doc.Branch + keyInfixRev + doc.GraphID

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(latestKey), raw); err != nil {
			return err
		}
		return txn.Set([]byte(revKey), raw)
	})
	if err != nil {
		return fmt.Errorf("writing graph document: %w", err)
	}

	s.logger.Info("graph document stored",
		slog.String("repo_id", doc.RepoID),
		slog.String("branch", doc.Branch),
		slog.String("graph_id", doc.GraphID),
		slog.Int("nodes", doc.NodesCount),
		slog.Int("edges", doc.EdgesCount))
	return nil
}

// Get returns the latest document for (repo_id, branch), or ErrNotFound.
func (s *BadgerStore) Get(ctx context.Context, repoID, branch string) (*graph.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(latestKey(repoID, branch)))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading graph document: %w", err)
	}

	var doc graph.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling graph document: %w", err)
	}
	return &doc, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func latestKey(repoID, branch string) string {
	return keyPrefixGraph + repoID + ":" + branch + keySuffixLatest
}
