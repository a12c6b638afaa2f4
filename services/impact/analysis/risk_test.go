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
	"reflect"
	"strings"
	"testing"
)

func scoreSet(high int, max float64) map[string]float64 {
	scores := make(map[string]float64)
	for i := 0; i < high; i++ {
		scores["high"+string(rune('a'+i))+".py"] = 0.75
	}
	if max > 0 {
		scores["max.py"] = max
	}
	return scores
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		scores   map[string]float64
		want     RiskLevel
		wantHigh int
	}{
		{"empty", map[string]float64{}, RiskLow, 0},
		{"all low", map[string]float64{"a.py": 0.2, "b.py": 0.4}, RiskLow, 0},
		{"medium by max", map[string]float64{"a.py": 0.66}, RiskMedium, 0},
		{"medium by one high", scoreSet(1, 0), RiskMedium, 1},
		{"high by max", map[string]float64{"a.py": 0.9}, RiskHigh, 1},
		{"high by three", scoreSet(3, 0), RiskHigh, 3},
		{"critical by five", scoreSet(5, 0), RiskCritical, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, highRisk, _ := Classify(tt.scores)
			if level != tt.want {
				t.Errorf("level = %s, want %s", level, tt.want)
			}
			if len(highRisk) != tt.wantHigh {
				t.Errorf("high-risk count = %d, want %d", len(highRisk), tt.wantHigh)
			}
			if !sortedStrings(highRisk) {
				t.Errorf("high-risk list not sorted: %v", highRisk)
			}
		})
	}
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}

func TestClassify_ExactBoundaries(t *testing.T) {
	// 0.7 is not high risk; strictly above is.
	level, highRisk, _ := Classify(map[string]float64{"a.py": 0.7})
	if level != RiskMedium || len(highRisk) != 0 {
		t.Errorf("score 0.7: level=%s high=%v, want MEDIUM with none high", level, highRisk)
	}
	// 0.65 exactly stays LOW.
	if level, _, _ := Classify(map[string]float64{"a.py": 0.65}); level != RiskLow {
		t.Errorf("score 0.65: level=%s, want LOW", level)
	}
	// 0.85 exactly stays MEDIUM (one high-risk node at 0.85 > 0.7).
	if level, _, _ := Classify(map[string]float64{"a.py": 0.85}); level != RiskMedium {
		t.Errorf("score 0.85: level=%s, want MEDIUM", level)
	}
}

func TestRecommendations_Order(t *testing.T) {
	recs := Recommendations(RiskCritical, 25, 6, []string{
		"services/db/database_schema.py",
		"services/gateway/api_routes.py",
		"services/auth/login.py",
	})

	want := []string{
		"URGENT: Extensive impact detected. Recommend staged rollout with feature flags",
		"Implement enhanced monitoring and alerting",
		"Consider rolling back plan if issues detected",
		"Large blast radius (25 components). Execute thorough integration tests",
		"Focus testing on 6 high-criticality components",
		"Database schema changes detected. Verify migration strategy",
		"API changes detected. Verify backward compatibility",
		"Security-related changes. Perform security review",
	}
	if !reflect.DeepEqual(recs, want) {
		t.Errorf("recommendations:\n got %v\nwant %v", recs, want)
	}
}

func TestRecommendations_Levels(t *testing.T) {
	high := Recommendations(RiskHigh, 0, 0, nil)
	if len(high) != 2 || !strings.HasPrefix(high[0], "High impact detected") {
		t.Errorf("HIGH recommendations = %v", high)
	}

	medium := Recommendations(RiskMedium, 0, 0, nil)
	if !reflect.DeepEqual(medium, []string{"Standard testing procedures recommended"}) {
		t.Errorf("MEDIUM recommendations = %v", medium)
	}

	if low := Recommendations(RiskLow, 0, 0, nil); len(low) != 0 {
		t.Errorf("LOW should produce no level lines, got %v", low)
	}

	// Blast radius is strictly greater than 20.
	if recs := Recommendations(RiskLow, 20, 0, nil); len(recs) != 0 {
		t.Errorf("exactly 20 impacted should not trigger the blast-radius line, got %v", recs)
	}
}

func TestRecommendations_KeywordsCaseInsensitive(t *testing.T) {
	recs := Recommendations(RiskLow, 0, 0, []string{"src/DATABASE_utils.py"})
	if !reflect.DeepEqual(recs, []string{"Database schema changes detected. Verify migration strategy"}) {
		t.Errorf("recommendations = %v", recs)
	}
}

func TestAffectedServices(t *testing.T) {
	impacted := []string{
		"services/auth/login.py",
		"services/auth/session.py::refresh",
		"services/db/models.py",
		"lib/helpers.py",
		"services_other/thing.py",
	}
	got := AffectedServices(impacted)
	if !reflect.DeepEqual(got, []string{"auth", "db"}) {
		t.Errorf("affected services = %v, want [auth db]", got)
	}

	if got := AffectedServices(nil); len(got) != 0 {
		t.Errorf("expected empty for no input, got %v", got)
	}
}
