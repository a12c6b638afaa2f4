// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package planner provides the optional natural-language planner
// collaborator. Its output annotates reports with advisory narrative and
// never influences numeric scores.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Planner turns a prompt into an advisory narrative. Implementations may
// be absent at runtime; callers degrade to the heuristic planner.
type Planner interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// LLMConfig configures the language-model planner.
type LLMConfig struct {
	// ServerURL is the Ollama endpoint. Empty means the library default.
	ServerURL string `yaml:"server_url"`

	// Model is the model name to run.
	Model string `yaml:"model"`
}

// DefaultLLMConfig returns the local-deployment defaults.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{Model: "llama3.1:8b"}
}

// LLMPlanner generates narratives with a local model via Ollama.
//
// Thread Safety: Safe for concurrent use.
type LLMPlanner struct {
	llm    llms.Model
	logger *slog.Logger
}

// NewLLMPlanner connects a planner to the configured model server.
func NewLLMPlanner(cfg LLMConfig, logger *slog.Logger) (*LLMPlanner, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultLLMConfig().Model
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.ServerURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.ServerURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}
	return &LLMPlanner{llm: llm, logger: logger.With("component", "planner.LLMPlanner")}, nil
}

// Invoke runs a single-prompt completion.
func (p *LLMPlanner) Invoke(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, p.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("planner completion: %w", err)
	}
	return out, nil
}

// HeuristicPlanner produces a deterministic template narrative. It is the
// fallback when no model is configured or the model call fails.
type HeuristicPlanner struct{}

// Invoke extracts the first line of the prompt's subject and wraps it in a
// fixed analysis template.
func (HeuristicPlanner) Invoke(_ context.Context, prompt string) (string, error) {
	subject := prompt
	if idx := strings.IndexByte(subject, '\n'); idx > 0 {
		subject = subject[:idx]
	}
	subject = strings.TrimSpace(subject)
	if len(subject) > 200 {
		subject = subject[:200]
	}
	return fmt.Sprintf(
		"Analysis plan: evaluate the dependency impact of %q, review each impacted component, and verify test coverage before rollout.",
		subject), nil
}

// BuildAnalysisPrompt renders the planner prompt for an analysis request.
// Retrieved context snippets are appended when present.
func BuildAnalysisPrompt(description string, changedFiles []string, contextSnippets []string) string {
	var b strings.Builder
	b.WriteString(description)
	b.WriteString("\n\nChanged files:\n")
	for _, f := range changedFiles {
		b.WriteString("- ")
		b.WriteString(f)
		b.WriteByte('\n')
	}
	if len(contextSnippets) > 0 {
		b.WriteString("\nRelated context:\n")
		for _, s := range contextSnippets {
			b.WriteString("- ")
			b.WriteString(s)
			b.WriteByte('\n')
		}
	}
	b.WriteString("\nDescribe the likely blast radius and what to verify before deploying.")
	return b.String()
}
