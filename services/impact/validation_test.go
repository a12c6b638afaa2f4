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

import "testing"

func validAnalyzeRequest() *AnalyzeRequest {
	return &AnalyzeRequest{
		ChangeDescription: "refactor auth",
		AffectedFiles:     []string{"services/auth/login.py"},
		RepoID:            "my-repo_1",
	}
}

func TestValidateAnalyzeRequest(t *testing.T) {
	t.Run("valid request defaults branch", func(t *testing.T) {
		req := validAnalyzeRequest()
		if err := ValidateAnalyzeRequest(req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Branch != "main" {
			t.Errorf("branch = %q, want main", req.Branch)
		}
	})

	t.Run("explicit branch kept", func(t *testing.T) {
		req := validAnalyzeRequest()
		req.Branch = "dev"
		if err := ValidateAnalyzeRequest(req); err != nil {
			t.Fatal(err)
		}
		if req.Branch != "dev" {
			t.Errorf("branch = %q, want dev", req.Branch)
		}
	})

	badRepoIDs := []string{"", "my repo", "repo/sub", "repo!", "a.b"}
	for _, id := range badRepoIDs {
		t.Run("rejects repo id "+id, func(t *testing.T) {
			req := validAnalyzeRequest()
			req.RepoID = id
			if err := ValidateAnalyzeRequest(req); err == nil {
				t.Errorf("repo_id %q should be rejected", id)
			}
		})
	}

	badPaths := []string{
		"",
		"/etc/passwd",
		"../outside.py",
		"inner/../../outside.py",
		`bad<file>.py`,
		"quoted\".py",
		"star*.py",
	}
	for _, p := range badPaths {
		t.Run("rejects path "+p, func(t *testing.T) {
			req := validAnalyzeRequest()
			req.AffectedFiles = []string{p}
			if err := ValidateAnalyzeRequest(req); err == nil {
				t.Errorf("path %q should be rejected", p)
			}
		})
	}

	goodPaths := []string{
		"a.py",
		"services/auth/login.py",
		"deep/nested/dir/file_name-v2.ts",
	}
	for _, p := range goodPaths {
		t.Run("accepts path "+p, func(t *testing.T) {
			req := validAnalyzeRequest()
			req.AffectedFiles = []string{p}
			if err := ValidateAnalyzeRequest(req); err != nil {
				t.Errorf("path %q should be accepted: %v", p, err)
			}
		})
	}
}

func TestValidateRepoBranch(t *testing.T) {
	branch := ""
	if err := ValidateRepoBranch("repo", &branch); err != nil {
		t.Fatal(err)
	}
	if branch != "main" {
		t.Errorf("branch = %q, want main", branch)
	}

	branch = "feature-x"
	if err := ValidateRepoBranch("repo", &branch); err != nil {
		t.Fatal(err)
	}
	if branch != "feature-x" {
		t.Errorf("branch = %q, want feature-x", branch)
	}

	if err := ValidateRepoBranch("bad repo", &branch); err == nil {
		t.Error("expected rejection of invalid repo id")
	}
}
