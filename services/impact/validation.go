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
	"fmt"
	"regexp"
	"strings"
)

// repoIDPattern constrains repository identifiers to a safe character set.
var repoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// forbiddenPathChars are rejected anywhere in an affected-file path.
const forbiddenPathChars = `<>:"|?*`

// ValidateAnalyzeRequest checks the request fields the binding tags cannot
// express and fills defaults.
//
// Description:
//
//	Affected-file paths must be relative, traversal-free, and contain no
//	shell-hostile characters. The repo id must match ^[A-Za-z0-9_-]+$.
//	An empty branch defaults to "main". Returns the first violation found.
func ValidateAnalyzeRequest(req *AnalyzeRequest) error {
	if !repoIDPattern.MatchString(req.RepoID) {
		return fmt.Errorf("repo_id must match ^[A-Za-z0-9_-]+$")
	}
	if req.Branch == "" {
		req.Branch = "main"
	}
	for _, f := range req.AffectedFiles {
		if err := validateFilePath(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRepoBranch applies the repo id and branch rules shared by the
// scan, criticality, path, and stats surfaces.
func ValidateRepoBranch(repoID string, branch *string) error {
	if !repoIDPattern.MatchString(repoID) {
		return fmt.Errorf("repo_id must match ^[A-Za-z0-9_-]+$")
	}
	if *branch == "" {
		*branch = "main"
	}
	return nil
}

func validateFilePath(p string) error {
	if p == "" {
		return fmt.Errorf("affected file path must not be empty")
	}
	if strings.HasPrefix(p, "/") {
		return fmt.Errorf("affected file path %q must be relative", p)
	}
	if strings.Contains(p, "..") {
		return fmt.Errorf("affected file path %q must not contain '..'", p)
	}
	if strings.ContainsAny(p, forbiddenPathChars) {
		return fmt.Errorf("affected file path %q contains forbidden characters", p)
	}
	return nil
}
