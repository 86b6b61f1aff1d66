package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/panelmesh/panelmesh/core"
)

// extractPlan pulls an AllocationPlan out of loosely-structured model output.
// Strategies are tried in order; within a strategy, candidates are tried in
// the order found. The first candidate that parses and validates wins:
//
//  1. a fenced block explicitly tagged as json
//  2. any fenced block
//  3. balanced {...} spans in the text, left to right
//  4. the whole response as-is
//
// Failures of individual candidates are not errors; only exhausting the
// ladder is.
func extractPlan(raw string) (*core.AllocationPlan, error) {
	strategies := []func(string) []string{
		taggedFencedBlocks,
		anyFencedBlocks,
		balancedBraceSpans,
		wholeResponse,
	}
	for _, locate := range strategies {
		for _, candidate := range locate(raw) {
			plan, err := parsePlan(candidate)
			if err != nil {
				continue
			}
			return plan, nil
		}
	}
	return nil, fmt.Errorf("no extraction strategy produced a valid plan")
}

// parsePlan decodes and shape-checks one candidate. Unknown fields are
// tolerated; wrong types are not.
func parsePlan(candidate string) (*core.AllocationPlan, error) {
	var plan core.AllocationPlan
	if err := json.Unmarshal([]byte(candidate), &plan); err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// taggedFencedBlocks finds ```json ... ``` blocks (case insensitive tag).
func taggedFencedBlocks(raw string) []string {
	var candidates []string
	rest := raw
	for {
		lower := strings.ToLower(rest)
		start := strings.Index(lower, "```json")
		if start < 0 {
			return candidates
		}
		body := rest[start+len("```json"):]
		end := strings.Index(body, "```")
		if end < 0 {
			return candidates
		}
		candidates = append(candidates, strings.TrimSpace(body[:end]))
		rest = body[end+3:]
	}
}

// anyFencedBlocks finds ``` ... ``` blocks regardless of tag.
func anyFencedBlocks(raw string) []string {
	var candidates []string
	rest := raw
	for {
		start := strings.Index(rest, "```")
		if start < 0 {
			return candidates
		}
		body := rest[start+3:]
		// Drop an info string on the opening fence line.
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			firstLine := strings.TrimSpace(body[:nl])
			if firstLine != "" && !strings.HasPrefix(firstLine, "{") {
				body = body[nl+1:]
			}
		}
		end := strings.Index(body, "```")
		if end < 0 {
			return candidates
		}
		candidates = append(candidates, strings.TrimSpace(body[:end]))
		rest = body[end+3:]
	}
}

// balancedBraceSpans scans for balanced top-level {...} spans left to right,
// respecting JSON string literals and escapes. Prose braces yield small junk
// spans; the parser discards those and moves on to the next.
func balancedBraceSpans(raw string) []string {
	var spans []string
	offset := 0
	for offset < len(raw) {
		start := strings.IndexByte(raw[offset:], '{')
		if start < 0 {
			return spans
		}
		start += offset
		span, end, ok := scanBalanced(raw, start)
		if !ok {
			// Unterminated span; nothing further can balance.
			return spans
		}
		spans = append(spans, span)
		offset = end
	}
	return spans
}

// scanBalanced walks one balanced span starting at raw[start] == '{' and
// returns the span plus the index just past it.
func scanBalanced(raw string, start int) (string, int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], i + 1, true
			}
		}
	}
	return "", 0, false
}

// wholeResponse hands the trimmed response to the parser unchanged.
func wholeResponse(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return []string{trimmed}
}
