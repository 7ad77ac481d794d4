package guard

import (
	"reflect"
	"testing"
)

func TestNewPolicyDefaults(t *testing.T) {
	p := NewPolicy()

	if !p.RequireClaims {
		t.Error("RequireClaims should default to true")
	}
	if !p.TreatMetroAsMinor {
		t.Error("TreatMetroAsMinor should default to true")
	}
	if len(p.AllowedToolNames) != 0 {
		t.Error("AllowedToolNames should default to empty")
	}
	if len(p.BlockOn) != 0 {
		t.Error("BlockOn should default to empty")
	}
}

func TestPolicyMapRoundTrip(t *testing.T) {
	p := NewPolicy()
	p.AllowedToolNames = map[string]bool{"job_scraper": true, "web_search": true}
	p.AllowedURLDomains = map[string]bool{"example.com": true}
	p.BlockOn = map[string]bool{"goal_drift": true, "data_leak:high": true}
	p.MinPayThreshold = 5000
	p.MinCompanySize = 50
	p.RequireClaims = false
	p.TreatMetroAsMinor = false

	rebuilt := PolicyFromMap(p.ToMap())

	if !reflect.DeepEqual(rebuilt, p) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", rebuilt, p)
	}
}

func TestPolicyToMapStableOrder(t *testing.T) {
	p := NewPolicy()
	p.BlockOn = map[string]bool{"jailbreak": true, "data_leak": true, "goal_drift": true}

	got := p.ToMap()["block_on"].([]string)
	want := []string{"data_leak", "goal_drift", "jailbreak"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("block_on = %v, want sorted %v", got, want)
	}
}

func TestPolicyFromMapLooseTypes(t *testing.T) {
	// JSON decoding produces []any and float64
	p := PolicyFromMap(map[string]any{
		"allowed_tool_names": []any{"job_scraper", 42},
		"block_on":           []any{"goal_drift"},
		"min_pay_threshold":  float64(5000),
		"min_company_size":   int64(50),
		"require_claims":     false,
	})

	if !p.AllowedToolNames["job_scraper"] {
		t.Error("expected job_scraper in allow-list")
	}
	if len(p.AllowedToolNames) != 1 {
		t.Errorf("non-string entries should be dropped, got %v", p.AllowedToolNames)
	}
	if p.MinPayThreshold != 5000 {
		t.Errorf("MinPayThreshold = %d, want 5000", p.MinPayThreshold)
	}
	if p.MinCompanySize != 50 {
		t.Errorf("MinCompanySize = %d, want 50", p.MinCompanySize)
	}
	if p.RequireClaims {
		t.Error("RequireClaims should be overridden to false")
	}
}

func TestPolicyFromMapNil(t *testing.T) {
	p := PolicyFromMap(nil)
	if !p.RequireClaims || !p.TreatMetroAsMinor {
		t.Error("nil map should yield default policy")
	}
}

func TestPolicyMerge(t *testing.T) {
	base := NewPolicy()
	base.BlockOn = map[string]bool{"goal_drift": true}
	base.MinPayThreshold = 5000

	merged := base.Merge(map[string]any{
		"block_on":          []string{"jailbreak"},
		"min_pay_threshold": 3000,
	})

	if merged.BlockOn["goal_drift"] {
		t.Error("override should replace block_on, not union it")
	}
	if !merged.BlockOn["jailbreak"] {
		t.Error("merged policy missing overridden block key")
	}
	if merged.MinPayThreshold != 3000 {
		t.Errorf("MinPayThreshold = %d, want 3000", merged.MinPayThreshold)
	}

	// Base must be untouched
	if base.MinPayThreshold != 5000 || !base.BlockOn["goal_drift"] {
		t.Error("Merge mutated the base policy")
	}
}

func TestPolicyMergeEmptyReturnsClone(t *testing.T) {
	base := NewPolicy()
	base.AllowedToolNames["job_scraper"] = true

	clone := base.Merge(nil)
	clone.AllowedToolNames["other"] = true

	if base.AllowedToolNames["other"] {
		t.Error("Merge(nil) should deep-copy, not alias")
	}
}
