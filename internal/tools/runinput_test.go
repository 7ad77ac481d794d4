package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
)

func TestParseRunInputEmpty(t *testing.T) {
	run := ParseRunInput(map[string]interface{}{})

	assert.Equal(t, "", run.Goal)
	assert.Nil(t, run.Constraints)
	assert.Nil(t, run.Messages)
	assert.Nil(t, run.Contexts)
	assert.Nil(t, run.ToolCalls)
	assert.Nil(t, run.Output, "absent output stays nil")
}

func TestParseRunInputFull(t *testing.T) {
	payload := map[string]interface{}{
		"goal":        "Find Austin internship",
		"constraints": []interface{}{"Austin metro only"},
		"messages": []interface{}{
			map[string]interface{}{"role": "assistant", "content": "Searching now."},
			map[string]interface{}{"content": "Find me a role."},
		},
		"contexts": []interface{}{
			map[string]interface{}{"source": "web", "text": "A listing."},
			map[string]interface{}{"text": "Another listing."},
		},
		"tool_calls": []interface{}{
			map[string]interface{}{
				"name": "job_scraper",
				"args": map[string]interface{}{"url": "https://jobs.example.com/1"},
			},
			map[string]interface{}{"name": "job_scraper"},
		},
		"output": map[string]interface{}{
			"text": "Found a role.",
			"claims": []interface{}{
				map[string]interface{}{
					"statement":     "Pays $5,200 per month",
					"evidence_urls": []interface{}{"https://jobs.example.com/1"},
					"extraction": map[string]interface{}{
						"kind":         "css",
						"pattern":      "span.pay",
						"must_include": "$5,200",
					},
				},
			},
		},
	}

	run := ParseRunInput(payload)

	assert.Equal(t, "Find Austin internship", run.Goal)
	assert.Equal(t, []string{"Austin metro only"}, run.Constraints)

	require.Len(t, run.Messages, 2)
	assert.Equal(t, "assistant", run.Messages[0].Role)
	assert.Equal(t, "user", run.Messages[1].Role, "missing role defaults to user")

	require.Len(t, run.Contexts, 2)
	assert.Equal(t, "web", run.Contexts[0].Source)
	assert.Equal(t, "retriever", run.Contexts[1].Source, "missing source defaults to retriever")

	require.Len(t, run.ToolCalls, 2)
	assert.Equal(t, "job_scraper", run.ToolCalls[0].Name)
	assert.Equal(t, "https://jobs.example.com/1", run.ToolCalls[0].Args["url"])
	assert.NotNil(t, run.ToolCalls[1].Args, "missing args defaults to an empty map")

	require.NotNil(t, run.Output)
	assert.Equal(t, "Found a role.", run.Output.Text)
	require.Len(t, run.Output.Claims, 1)
	claim := run.Output.Claims[0]
	assert.Equal(t, "Pays $5,200 per month", claim.Statement)
	assert.Equal(t, []string{"https://jobs.example.com/1"}, claim.EvidenceURLs)
	assert.Equal(t, guard.ExtractionCSS, claim.Extraction.Kind)
	assert.Equal(t, "span.pay", claim.Extraction.Pattern)
	assert.Equal(t, "$5,200", claim.Extraction.MustInclude)
}

func TestParseRunInputSkipsMalformedItems(t *testing.T) {
	payload := map[string]interface{}{
		"messages":   []interface{}{"not a map", map[string]interface{}{"content": "ok"}},
		"contexts":   []interface{}{42},
		"tool_calls": []interface{}{nil, map[string]interface{}{"name": "scraper"}},
	}

	run := ParseRunInput(payload)

	require.Len(t, run.Messages, 1)
	assert.Equal(t, "ok", run.Messages[0].Content)
	assert.Empty(t, run.Contexts)
	require.Len(t, run.ToolCalls, 1)
	assert.Equal(t, "scraper", run.ToolCalls[0].Name)
}

func TestParseRunInputOutputWithoutClaims(t *testing.T) {
	run := ParseRunInput(map[string]interface{}{
		"output": map[string]interface{}{"text": "done"},
	})

	require.NotNil(t, run.Output)
	assert.Equal(t, "done", run.Output.Text)
	assert.Empty(t, run.Output.Claims)
}
