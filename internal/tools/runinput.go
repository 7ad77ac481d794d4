package tools

import (
	"github.com/sentrykit/guardrail-mcp-server/internal/guard"
)

// ParseRunInput materializes a guard.RunInput from a decoded JSON payload.
// Missing fields default to empty; an absent output leaves Output nil.
func ParseRunInput(payload map[string]interface{}) *guard.RunInput {
	run := &guard.RunInput{
		Goal:        stringParam(payload, "goal"),
		Constraints: stringList(payload, "constraints"),
	}

	for _, item := range listParam(payload, "messages") {
		msg, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		role := stringParam(msg, "role")
		if role == "" {
			role = "user"
		}
		run.Messages = append(run.Messages, guard.Message{
			Role:    role,
			Content: stringParam(msg, "content"),
		})
	}

	for _, item := range listParam(payload, "contexts") {
		chunk, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		source := stringParam(chunk, "source")
		if source == "" {
			source = "retriever"
		}
		run.Contexts = append(run.Contexts, guard.ContextChunk{
			Source: source,
			Text:   stringParam(chunk, "text"),
		})
	}

	for _, item := range listParam(payload, "tool_calls") {
		call, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		args := mapParam(call, "args")
		if args == nil {
			args = map[string]interface{}{}
		}
		run.ToolCalls = append(run.ToolCalls, guard.ToolCall{
			Name: stringParam(call, "name"),
			Args: args,
		})
	}

	if outputPayload := mapParam(payload, "output"); outputPayload != nil {
		output := &guard.RunOutput{Text: stringParam(outputPayload, "text")}
		for _, item := range listParam(outputPayload, "claims") {
			claimPayload, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			extraction := mapParam(claimPayload, "extraction")
			output.Claims = append(output.Claims, guard.Claim{
				Statement:    stringParam(claimPayload, "statement"),
				EvidenceURLs: stringList(claimPayload, "evidence_urls"),
				Extraction: guard.Extraction{
					Kind:        guard.ExtractionKind(stringParam(extraction, "kind")),
					Pattern:     stringParam(extraction, "pattern"),
					MustInclude: stringParam(extraction, "must_include"),
				},
			})
		}
		run.Output = output
	}

	return run
}
