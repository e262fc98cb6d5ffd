// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"encoding/json"
	"strings"
)

// StripCodeFence removes a wrapping markdown code fence (``` or ```json)
// from s, if present. Text without a fence is returned trimmed.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 {
		lines = lines[1:] // drop the opening fence line, with any language tag
	}
	s = strings.Join(lines, "\n")
	s = strings.TrimRight(strings.TrimSpace(s), "`")
	return strings.TrimSpace(s)
}

// DecodeLenient strips code fences from raw model output and decodes the
// remainder into v. Callers treat a decode failure as normal control flow
// and fall back to defaults.
func DecodeLenient(raw string, v any) error {
	return json.Unmarshal([]byte(StripCodeFence(raw)), v)
}
