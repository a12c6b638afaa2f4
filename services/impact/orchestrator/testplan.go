// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import "fmt"

// maxUnitStubs caps how many per-component unit stubs a plan names.
const maxUnitStubs = 5

// TestPlan is the rule-based test plan attached to every completed report.
type TestPlan struct {
	UnitTests        []string `json:"unit_tests"`
	IntegrationTests []string `json:"integration_tests"`
	SmokeTests       []string `json:"smoke_tests"`
}

// BuildTestPlan derives the default plan from the impacted set.
//
// Description:
//
//	Names min(5, |impacted|) unit-test stubs test_affected_component_i,
//	one integration stub, and one smoke stub. Deterministic for a given
//	impacted count.
func BuildTestPlan(impacted []string) *TestPlan {
	k := len(impacted)
	if k > maxUnitStubs {
		k = maxUnitStubs
	}
	unit := make([]string, 0, k)
	for i := 0; i < k; i++ {
		unit = append(unit, fmt.Sprintf("test_affected_component_%d", i))
	}
	return &TestPlan{
		UnitTests:        unit,
		IntegrationTests: []string{"integration_test_main_flow"},
		SmokeTests:       []string{"smoke_test_critical_paths"},
	}
}
