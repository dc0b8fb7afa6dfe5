// Package tools defines the function tool the language model fills in with its
// artifact findings.
package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/openai/openai-go"

	"github.com/sozercan/image-verdict/apimodels"
)

const FindingsToolName = "report_image_findings"

const findingsToolDescription = `
Report the visual artifacts found in the image and the overall assessment of
whether it was produced by an image generation model. Call this exactly once.
`

// FindingsTool returns the tool definition whose parameters mirror apimodels.GPTResult.
func FindingsTool() (openai.ChatCompletionToolParam, error) {
	schema, err := typeToJSONSchema(reflect.TypeOf(apimodels.GPTResult{}))
	if err != nil {
		return openai.ChatCompletionToolParam{}, fmt.Errorf("failed to generate findings schema: %w", err)
	}

	return openai.ChatCompletionToolParam{
		Type: openai.F(openai.ChatCompletionToolTypeFunction),
		Function: openai.F(openai.FunctionDefinitionParam{
			Name:        openai.String(FindingsToolName),
			Description: openai.String(strings.TrimSpace(findingsToolDescription)),
			Parameters:  openai.F(openai.FunctionParameters(schema)),
		}),
	}, nil
}

// DecodeFindings unmarshals tool arguments, or a plain JSON reply, into a GPTResult.
// A reply wrapped in a markdown code fence is accepted.
func DecodeFindings(data string) (*apimodels.GPTResult, error) {
	trimmed := stripCodeFence(data)
	if trimmed == "" {
		return nil, fmt.Errorf("empty findings")
	}

	var result apimodels.GPTResult
	if err := json.Unmarshal([]byte(trimmed), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal findings: %w", err)
	}
	if result.Artifacts == nil {
		result.Artifacts = []apimodels.Artifact{}
	}
	return &result, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
