package llm

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// This file implements the lenient decoder for model output. Local models
// routinely wrap their answer in prose and emit almost-JSON: unquoted keys,
// single-quoted strings, trailing commas, bare string values. The decoder
// has a fixed repair contract: isolate the brace-delimited payload, then
// apply progressive repair passes, attempting a strict decode after each
// one. Repairs only ever touch the listed grammar defects; content is
// never rewritten.

var (
	unquotedKeyPattern   = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	singleQuotedPattern  = regexp.MustCompile(`:\s*'([^']*)'`)
	trailingCommaObject  = regexp.MustCompile(`,\s*}`)
	trailingCommaArray   = regexp.MustCompile(`,\s*]`)
	bareStringPattern    = regexp.MustCompile(`:\s*([A-Za-z][A-Za-z0-9_ ]*?)\s*([,}])`)
	percentagePattern    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	numberPattern        = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
)

// DecodeLenient extracts the first brace-delimited payload from raw model
// output and decodes it into v, repairing common grammar defects along the
// way. It returns ErrNoJSONPayload when no braces are found and
// ErrUnrepairableJSON when no repair pass yields decodable JSON.
func DecodeLenient(raw string, v any) error {
	payload, ok := extractPayload(raw)
	if !ok {
		return ErrNoJSONPayload
	}

	if err := json.Unmarshal([]byte(payload), v); err == nil {
		return nil
	}

	repaired := payload
	for _, pass := range repairPasses {
		repaired = pass(repaired)
		if err := json.Unmarshal([]byte(repaired), v); err == nil {
			return nil
		}
	}
	return ErrUnrepairableJSON
}

// extractPayload isolates the outermost brace-delimited span, stripping
// any surrounding prose.
func extractPayload(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return strings.TrimSpace(raw[start : end+1]), true
}

// repairPasses are applied cumulatively, cheapest defect first. Order
// matters: keys must be quoted before bare values are, or the key fix
// would requote value quotes.
var repairPasses = []func(string) string{
	// Collapse literal escape sequences the model sometimes emits inside
	// otherwise-valid JSON.
	func(s string) string {
		s = strings.ReplaceAll(s, `\n`, " ")
		return strings.ReplaceAll(s, `\t`, " ")
	},
	// Quote unquoted keys: {key: 1} -> {"key": 1}.
	func(s string) string {
		return unquotedKeyPattern.ReplaceAllString(s, `$1"$2":`)
	},
	// Normalize single-quoted string values to double quotes.
	func(s string) string {
		s = singleQuotedPattern.ReplaceAllString(s, `:"$1"`)
		return strings.ReplaceAll(s, "'", `"`)
	},
	// Strip trailing separators: {"a": 1,} -> {"a": 1}.
	func(s string) string {
		s = trailingCommaObject.ReplaceAllString(s, "}")
		return trailingCommaArray.ReplaceAllString(s, "]")
	},
	// Quote bare string values, leaving booleans, null, and numbers alone.
	func(s string) string {
		return bareStringPattern.ReplaceAllStringFunc(s, func(match string) string {
			groups := bareStringPattern.FindStringSubmatch(match)
			value := strings.TrimSpace(groups[1])
			lower := strings.ToLower(value)
			if lower == "true" || lower == "false" || lower == "null" {
				return ": " + lower + groups[2]
			}
			return `: "` + value + `"` + groups[2]
		})
	},
}

// ExtractNumber pulls a numeric value out of free text, preferring an
// explicit percentage. It is the last-resort parse when a model answers
// with prose instead of the requested payload.
func ExtractNumber(text string, fallback float64) float64 {
	if m := percentagePattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v
		}
	}
	if m := numberPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v
		}
	}
	return fallback
}
