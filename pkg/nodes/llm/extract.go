package llm

import (
	"encoding/json"
	"strings"

	"github.com/petrijr/nodeflux/pkg/api"
)

// ExtractJSON strips a Markdown code fence (```json or plain ```) around a
// model answer. Text without a closed fence is returned trimmed.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)

	open, skip := strings.Index(text, "```json"), len("```json")
	if open < 0 {
		open, skip = strings.Index(text, "```"), len("```")
	}
	if open < 0 {
		return text
	}
	start := open + skip
	end := strings.Index(text[start:], "```")
	if end < 0 {
		return text
	}
	return strings.TrimSpace(text[start : start+end])
}

// DecodeJSON extracts and decodes a JSON answer into v. Parse failures
// quote the start of the raw answer.
func DecodeJSON(text string, v any) error {
	if err := json.Unmarshal([]byte(ExtractJSON(text)), v); err != nil {
		return api.Wrap(api.FailureInternal, err, "could not parse model answer as JSON (raw: %s...)", truncate(text, 200))
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
