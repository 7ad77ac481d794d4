package guard

import "sort"

// Policy is the guardrail configuration that parameterizes an evaluation.
// It is immutable per evaluation and safe to share across concurrent
// evaluations.
type Policy struct {
	// AllowedToolNames is the tool firewall allow-list. Empty disables the
	// firewall check.
	AllowedToolNames map[string]bool

	// AllowedURLDomains holds normalized domains tool calls may reference.
	// Empty disables the off-policy domain scan.
	AllowedURLDomains map[string]bool

	// RequireClaims is consumed by embedding adapters; the engine ignores it.
	RequireClaims bool

	// BlockOn is the set of match keys that flip a verdict to blocked.
	// Keys take the forms "kind", "kind:any", "kind:<severity>" and
	// "kind:<classification>". Empty means never block.
	BlockOn map[string]bool

	// MinCompanySize is the minimum acceptable staff count extracted from
	// output text. Zero means "use the baseline extraction".
	MinCompanySize int

	// MinPayThreshold is the minimum acceptable monthly pay. Zero means
	// "use the baseline extraction".
	MinPayThreshold int

	// TreatMetroAsMinor downgrades Austin-metro satellite cities in the
	// output from high to medium severity when Austin was requested.
	TreatMetroAsMinor bool
}

// NewPolicy returns a policy with the default knobs: claims required and
// metro drift treated as minor, everything else empty.
func NewPolicy() *Policy {
	return &Policy{
		AllowedToolNames:  map[string]bool{},
		AllowedURLDomains: map[string]bool{},
		RequireClaims:     true,
		BlockOn:           map[string]bool{},
		TreatMetroAsMinor: true,
	}
}

// ToMap serializes the policy to a JSON-friendly map. Sets are emitted as
// sorted slices so the serialization is stable.
func (p *Policy) ToMap() map[string]any {
	return map[string]any{
		"allowed_tool_names":   sortedKeys(p.AllowedToolNames),
		"allowed_url_domains":  sortedKeys(p.AllowedURLDomains),
		"require_claims":       p.RequireClaims,
		"block_on":             sortedKeys(p.BlockOn),
		"min_company_size":     p.MinCompanySize,
		"min_pay_threshold":    p.MinPayThreshold,
		"treat_metro_as_minor": p.TreatMetroAsMinor,
	}
}

// PolicyFromMap builds a policy from a string-keyed map, tolerating the
// loose value types produced by JSON and YAML decoding.
func PolicyFromMap(data map[string]any) *Policy {
	p := NewPolicy()
	if data == nil {
		return p
	}
	p.AllowedToolNames = stringSet(data["allowed_tool_names"])
	p.AllowedURLDomains = stringSet(data["allowed_url_domains"])
	if v, ok := data["require_claims"]; ok {
		p.RequireClaims = asBool(v)
	}
	p.BlockOn = stringSet(data["block_on"])
	p.MinCompanySize = asInt(data["min_company_size"])
	p.MinPayThreshold = asInt(data["min_pay_threshold"])
	if v, ok := data["treat_metro_as_minor"]; ok {
		p.TreatMetroAsMinor = asBool(v)
	}
	return p
}

// Merge returns a copy of the policy with the non-nil entries of overrides
// applied on top. Used by scenario variants and the evaluate tool.
func (p *Policy) Merge(overrides map[string]any) *Policy {
	if len(overrides) == 0 {
		return p.Clone()
	}
	base := p.ToMap()
	for k, v := range overrides {
		base[k] = v
	}
	return PolicyFromMap(base)
}

// Clone returns a deep copy of the policy.
func (p *Policy) Clone() *Policy {
	return PolicyFromMap(p.ToMap())
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringSet(v any) map[string]bool {
	set := map[string]bool{}
	switch items := v.(type) {
	case []string:
		for _, s := range items {
			set[s] = true
		}
	case []any:
		for _, item := range items {
			if s, ok := item.(string); ok {
				set[s] = true
			}
		}
	case map[string]bool:
		for s, ok := range items {
			if ok {
				set[s] = true
			}
		}
	}
	return set
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
