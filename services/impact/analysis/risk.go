// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// RiskLevel is the overall blast-radius classification.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// blastRadiusThreshold triggers the integration-test recommendation.
const blastRadiusThreshold = 20

// Classify maps a score set to a risk level.
//
// Description:
//
//	High-risk nodes are those scoring above 0.7. Conditions are evaluated
//	top to bottom, first match wins:
//
//	  >= 5 high-risk                    CRITICAL
//	  >= 3 high-risk or max > 0.85      HIGH
//	  >= 1 high-risk or max > 0.65      MEDIUM
//	  otherwise                         LOW
//
// Outputs:
//
//	RiskLevel - The classification.
//	[]string - High-risk node ids, sorted. Empty slice when none.
//	float64 - The maximum score, 0 when scores is empty.
func Classify(scores map[string]float64) (RiskLevel, []string, float64) {
	highRisk := make([]string, 0)
	maxScore := 0.0
	for id, score := range scores {
		if score > highRiskThreshold {
			highRisk = append(highRisk, id)
		}
		if score > maxScore {
			maxScore = score
		}
	}
	sort.Strings(highRisk)

	switch {
	case len(highRisk) >= 5:
		return RiskCritical, highRisk, maxScore
	case len(highRisk) >= 3 || maxScore > 0.85:
		return RiskHigh, highRisk, maxScore
	case len(highRisk) >= 1 || maxScore > 0.65:
		return RiskMedium, highRisk, maxScore
	default:
		return RiskLow, highRisk, maxScore
	}
}

// Recommendations produces the ordered recommendation list.
//
// Description:
//
//	Appends lines in a fixed order: risk-level lines first, then the
//	blast-radius line, the high-risk focus line, and finally the
//	changed-file keyword lines (database, api, auth/security), matched
//	case-insensitively against the changed file paths. The output order
//	is part of the contract and is covered by tests.
func Recommendations(level RiskLevel, impactedCount, highRiskCount int, changedFiles []string) []string {
	recs := make([]string, 0, 6)

	switch level {
	case RiskCritical:
		recs = append(recs,
			"URGENT: Extensive impact detected. Recommend staged rollout with feature flags",
			"Implement enhanced monitoring and alerting",
			"Consider rolling back plan if issues detected")
	case RiskHigh:
		recs = append(recs,
			"High impact detected. Plan comprehensive testing",
			"Deploy with caution, monitor all affected endpoints")
	case RiskMedium:
		recs = append(recs, "Standard testing procedures recommended")
	}

	if impactedCount > blastRadiusThreshold {
		recs = append(recs, fmt.Sprintf("Large blast radius (%d components). Execute thorough integration tests", impactedCount))
	}
	if highRiskCount > 0 {
		recs = append(recs, fmt.Sprintf("Focus testing on %d high-criticality components", highRiskCount))
	}

	var hasDatabase, hasAPI, hasSecurity bool
	for _, f := range changedFiles {
		lower := strings.ToLower(f)
		hasDatabase = hasDatabase || strings.Contains(lower, "database")
		hasAPI = hasAPI || strings.Contains(lower, "api")
		hasSecurity = hasSecurity || strings.Contains(lower, "auth") || strings.Contains(lower, "security")
	}
	if hasDatabase {
		recs = append(recs, "Database schema changes detected. Verify migration strategy")
	}
	if hasAPI {
		recs = append(recs, "API changes detected. Verify backward compatibility")
	}
	if hasSecurity {
		recs = append(recs, "Security-related changes. Perform security review")
	}
	return recs
}

// AffectedServices extracts service names from impacted node ids.
//
// Description:
//
//	A node id of the form "services/<name>/..." contributes <name>. The
//	result is a sorted set.
func AffectedServices(impacted []string) []string {
	seen := make(map[string]bool)
	for _, id := range impacted {
		parts := strings.Split(id, "/")
		if len(parts) >= 2 && parts[0] == "services" && parts[1] != "" {
			seen[parts[1]] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Result is the assembled impact analysis for one changed-file set.
type Result struct {
	ChangedFiles      []string           `json:"changed_files"`
	Impacted          []string           `json:"impacted_components"`
	CriticalityScores map[string]float64 `json:"criticality_scores"`
	HighRiskAreas     []string           `json:"high_risk_areas"`
	MaxScore          float64            `json:"max_criticality_score"`
	RiskLevel         RiskLevel          `json:"risk_level"`
	AffectedServices  []string           `json:"affected_services"`
	Recommendations   []string           `json:"recommendations"`
}
