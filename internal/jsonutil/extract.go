// Package jsonutil pulls a JSON object out of model output that may be wrapped
// in markdown fences or surrounded by prose.
package jsonutil

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var ErrNoJSON = errors.New("no JSON found in model output")

// Strategies run in this order; the first candidate that decodes wins.
var (
	fencedJSON = regexp.MustCompile("(?is)```json\\s*(\\{.*?\\})\\s*```")
	fencedAny  = regexp.MustCompile("(?s)```\\s*(\\{.*?\\})\\s*```")
	braceSpan  = regexp.MustCompile(`(?s)\{.*\}`)
)

// Candidates returns the JSON fragments found in text, in strategy order:
// a ```json fenced block, any fenced block, then the span from the first
// '{' to the last '}'.
func Candidates(text string) []string {
	var out []string
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		out = append(out, m[1])
	}
	if m := fencedAny.FindStringSubmatch(text); m != nil {
		out = append(out, m[1])
	}
	if m := braceSpan.FindString(text); m != "" {
		out = append(out, m)
	}
	return out
}

// Parse decodes the first candidate fragment of raw that unmarshals into T.
func Parse[T any](raw string) (T, error) {
	var zero T
	if strings.TrimSpace(raw) == "" {
		return zero, ErrNoJSON
	}
	for _, candidate := range Candidates(raw) {
		var decoded T
		if err := json.Unmarshal([]byte(candidate), &decoded); err == nil {
			return decoded, nil
		}
	}
	return zero, ErrNoJSON
}

// ExtractObject decodes the first JSON object in raw, keeping values raw so the
// caller can apply its own shape check.
func ExtractObject(raw string) (map[string]json.RawMessage, error) {
	obj, err := Parse[map[string]json.RawMessage](raw)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, ErrNoJSON
	}
	return obj, nil
}
