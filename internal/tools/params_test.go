package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringParam(t *testing.T) {
	args := map[string]interface{}{
		"name":  "evaluate_run",
		"count": 3,
	}

	assert.Equal(t, "evaluate_run", stringParam(args, "name"))
	assert.Equal(t, "", stringParam(args, "count"), "non-string value yields empty")
	assert.Equal(t, "", stringParam(args, "missing"))
}

func TestBoolParam(t *testing.T) {
	args := map[string]interface{}{
		"enabled": true,
		"label":   "yes",
	}

	assert.True(t, boolParam(args, "enabled"))
	assert.False(t, boolParam(args, "label"), "non-bool value yields false")
	assert.False(t, boolParam(args, "missing"))
}

func TestMapParam(t *testing.T) {
	args := map[string]interface{}{
		"policy": map[string]interface{}{"min_pay_threshold": 5000.0},
		"flat":   "not a map",
	}

	assert.Equal(t, map[string]interface{}{"min_pay_threshold": 5000.0}, mapParam(args, "policy"))
	assert.Nil(t, mapParam(args, "flat"))
	assert.Nil(t, mapParam(args, "missing"))
}

func TestStringList(t *testing.T) {
	args := map[string]interface{}{
		"constraints": []interface{}{"Austin metro only", 42, "Redact secrets"},
		"scalar":      "x",
	}

	assert.Equal(t, []string{"Austin metro only", "Redact secrets"}, stringList(args, "constraints"),
		"non-string items are dropped")
	assert.Nil(t, stringList(args, "scalar"))
	assert.Nil(t, stringList(args, "missing"))
}
