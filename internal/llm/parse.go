package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripFences removes a markdown code fence (```json ... ``` or ``` ... ```)
// wrapping a reply. Models occasionally fence their output despite being
// asked for raw JSON.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// UnmarshalReply decodes an LLM reply into v with best effort:
// direct unmarshal first, then again after stripping markdown fences.
func UnmarshalReply(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	stripped := StripFences(string(raw))
	if err := json.Unmarshal([]byte(stripped), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
