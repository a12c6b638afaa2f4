// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command impactctl runs impact analyses offline, without the API server:
// scan a source tree into a dependency graph and analyze a changed-file
// set against it, printing JSON to stdout.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianImpact/services/impact/artifact"
	"github.com/AleutianAI/AleutianImpact/services/impact/graph"
	"github.com/AleutianAI/AleutianImpact/services/impact/orchestrator"
)

var (
	repoID      string
	branch      string
	description string
	changed     []string
	verbose     bool
)

func main() {
	root := &cobra.Command{
		Use:   "impactctl",
		Short: "Offline change-impact analysis",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().StringVar(&repoID, "repo-id", "local", "Repository identifier")
	root.PersistentFlags().StringVar(&branch, "branch", "main", "Branch name")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	scanCmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "Build a dependency graph from a source tree and print its document",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze <path>",
		Short: "Analyze a changed-file set against a freshly scanned tree",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().StringVarP(&description, "description", "d", "", "Change description (required)")
	analyzeCmd.Flags().StringSliceVarP(&changed, "file", "f", nil, "Changed file, relative to the scanned root (repeatable)")
	_ = analyzeCmd.MarkFlagRequired("description")

	root.AddCommand(scanCmd, analyzeCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func buildFromDir(ctx context.Context, path string) (*graph.Graph, error) {
	parser := artifact.NewParser()
	results, err := parser.ParseDirectory(ctx, path)
	if err != nil {
		return nil, err
	}
	g, _, err := graph.NewBuilder().Build(ctx, repoID, branch, results)
	return g, err
}

func runScan(cmd *cobra.Command, args []string) error {
	g, err := buildFromDir(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(graph.Encode(g))
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	g, err := buildFromDir(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	orch := orchestrator.New()
	report := orch.Analyze(cmd.Context(), orchestrator.Request{
		AnalysisID:        uuid.NewString(),
		RepoID:            repoID,
		Branch:            branch,
		ChangeDescription: description,
		ChangedFiles:      changed,
	}, g)
	return printJSON(report)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
