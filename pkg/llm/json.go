package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/uiforge/uiforge-engine/pkg/apperrors"
)

// thinkTagPattern matches <think>...</think> tags that may appear at the
// start of model responses.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// ExtractJSON extracts a JSON object from a model response that may contain
// <think> tags, markdown code fences, or surrounding prose.
func ExtractJSON(response string) (string, error) {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")

	if jsonStr, ok := extractBalancedJSON(cleaned, '{', '}'); ok {
		if json.Valid([]byte(jsonStr)) {
			return jsonStr, nil
		}
	}

	trimmed := strings.TrimSpace(cleaned)
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	return "", fmt.Errorf("no valid JSON found in response")
}

// extractBalancedJSON finds the first balanced JSON structure starting with
// openChar, counting bracket depth and skipping string contents.
func extractBalancedJSON(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// generationPayload mirrors the wire contract with pointer fields so missing
// keys can be distinguished from zero values.
type generationPayload struct {
	Code    *string  `json:"code"`
	Changed *bool    `json:"changed"`
	Actions []string `json:"actions"`
}

// ParseGenerationResult extracts and validates the {code, changed, actions}
// object from a raw model response. Any shape violation maps to
// apperrors.ErrMalformedGenerationResponse so callers get a single error
// kind for the malformed-response path.
func ParseGenerationResult(response string) (*GenerationResult, error) {
	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedGenerationResponse, err)
	}

	var payload generationPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedGenerationResponse, err)
	}

	if payload.Code == nil {
		return nil, fmt.Errorf("%w: missing code field", apperrors.ErrMalformedGenerationResponse)
	}
	if payload.Changed == nil {
		return nil, fmt.Errorf("%w: missing changed field", apperrors.ErrMalformedGenerationResponse)
	}
	if *payload.Changed && strings.TrimSpace(*payload.Code) == "" {
		return nil, fmt.Errorf("%w: changed response with empty code", apperrors.ErrMalformedGenerationResponse)
	}

	actions := payload.Actions
	if actions == nil {
		actions = []string{}
	}

	return &GenerationResult{
		Code:    *payload.Code,
		Changed: *payload.Changed,
		Actions: actions,
	}, nil
}
