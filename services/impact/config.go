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
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianImpact/services/impact/planner"
	"github.com/AleutianAI/AleutianImpact/services/impact/rag"
)

// ServiceConfig is the YAML-backed service configuration.
type ServiceConfig struct {
	// RetrievalBackend selects the context retriever: "weaviate", "http",
	// or "none".
	RetrievalBackend string `yaml:"retrieval_backend"`

	// RetrievalURL is the base URL for the "http" backend.
	RetrievalURL string `yaml:"retrieval_url"`

	// Weaviate configures the "weaviate" backend.
	Weaviate rag.WeaviateConfig `yaml:"weaviate"`

	// PlannerEnabled turns on the language-model planner. Off means the
	// deterministic heuristic planner.
	PlannerEnabled bool `yaml:"planner_enabled"`

	// Planner configures the language-model planner.
	Planner planner.LLMConfig `yaml:"planner"`

	// RetrieveK is how many context documents an analysis requests.
	RetrieveK int `yaml:"retrieve_k"`

	// PathCutoff bounds simple-path depth on the path endpoint.
	PathCutoff int `yaml:"path_cutoff"`

	// MaxSimplePaths bounds simple-path enumeration on the path endpoint.
	MaxSimplePaths int `yaml:"max_simple_paths"`
}

// DefaultServiceConfig returns the standalone-deployment defaults: no
// collaborators, heuristic planner, standard limits.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		RetrievalBackend: "none",
		Weaviate:         rag.DefaultWeaviateConfig(),
		Planner:          planner.DefaultLLMConfig(),
		RetrieveK:        5,
		PathCutoff:       10,
		MaxSimplePaths:   100,
	}
}

// LoadServiceConfig reads a YAML config file over the defaults.
//
// Description:
//
//	A missing file is not an error; the defaults are returned so the
//	service starts with zero configuration. A present but malformed file
//	is an error.
func LoadServiceConfig(path string) (ServiceConfig, error) {
	cfg := DefaultServiceConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
