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
	"os"
	"path/filepath"
	"testing"
)

func TestLoadServiceConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadServiceConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RetrievalBackend != "none" || cfg.RetrieveK != 5 || cfg.PathCutoff != 10 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadServiceConfig_MissingFile(t *testing.T) {
	cfg, err := LoadServiceConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if cfg.RetrievalBackend != "none" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadServiceConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "impact.yaml")
	content := `
retrieval_backend: http
retrieval_url: http://retriever:9000
planner_enabled: true
planner:
  model: llama3.1:70b
retrieve_k: 8
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadServiceConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RetrievalBackend != "http" || cfg.RetrievalURL != "http://retriever:9000" {
		t.Errorf("retrieval not applied: %+v", cfg)
	}
	if !cfg.PlannerEnabled || cfg.Planner.Model != "llama3.1:70b" {
		t.Errorf("planner not applied: %+v", cfg)
	}
	if cfg.RetrieveK != 8 {
		t.Errorf("retrieve_k = %d", cfg.RetrieveK)
	}
	// Untouched keys keep their defaults.
	if cfg.PathCutoff != 10 || cfg.MaxSimplePaths != 100 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadServiceConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "impact.yaml")
	if err := os.WriteFile(path, []byte("retrieval_backend: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadServiceConfig(path); err == nil {
		t.Fatal("malformed config must be an error")
	}
}
