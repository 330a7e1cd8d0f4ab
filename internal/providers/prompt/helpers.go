package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"productshot/internal/domain"
)

const (
	plannerSystemMessage = "Return only valid JSON. No commentary."
	promptKeyPrefix      = "prompt"
	missingIndex         = 9999
)

var keyFolder = cases.Fold()

func buildPlannerText(k int, description string) string {
	sb := &strings.Builder{}
	sb.WriteString("You are a creative ad art director.\n")
	fmt.Fprintf(sb, "Given the reference product image (see attached), produce EXACTLY %d diverse, high-impact enhancement ideas as JSON:\n", k)
	sb.WriteString("{\n")
	for i := 1; i <= k; i++ {
		fmt.Fprintf(sb, "  \"prompt%d\": \"...\"", i)
		if i < k {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
	if description = strings.TrimSpace(description); description != "" {
		fmt.Fprintf(sb, "Here is a description of the image:\n%s\n", description)
	}
	sb.WriteString("Rules:\n")
	sb.WriteString("- Keep the same product identity/packaging; change only scene/lighting/props/composition/angle.\n")
	sb.WriteString("- Prefer short, concrete directions (background, lighting, props, vibe).\n")
	sb.WriteString("- Include 9:16 composition guidance if relevant.\n")
	sb.WriteString("- Return ONLY valid JSON. No commentary.")
	return sb.String()
}

const describeText = `Describe the image in detail, focus on the main subject in the image usually in the center,
extract all brand info like brand name and slogan if applicable. Make sure to include all details of the image.

IMPORTANT: If there is Arabic text in the image:
- Clearly identify that Arabic text is present
- Note the direction and layout of the Arabic text
- Describe the style and positioning of Arabic text elements
- Mention if there's bilingual text (Arabic with other languages)
- Preserve the exact appearance and positioning of Arabic script elements`

type keyedPrompt struct {
	key   string
	index int
	text  string
}

// selectPrompts keeps string values under keys that start with "prompt"
// (case-insensitive), orders them by numeric suffix and returns at most k.
// Keys without a numeric suffix sort last.
func selectPrompts(obj map[string]json.RawMessage, k int) []domain.EnhancementPrompt {
	var keyed []keyedPrompt
	for key, raw := range obj {
		folded := keyFolder.String(strings.TrimSpace(key))
		if !strings.HasPrefix(folded, promptKeyPrefix) {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		keyed = append(keyed, keyedPrompt{key: folded, index: suffixIndex(folded), text: text})
	}
	sort.SliceStable(keyed, func(i, j int) bool {
		if keyed[i].index != keyed[j].index {
			return keyed[i].index < keyed[j].index
		}
		return keyed[i].key < keyed[j].key
	})
	if k >= 0 && len(keyed) > k {
		keyed = keyed[:k]
	}
	out := make([]domain.EnhancementPrompt, 0, len(keyed))
	for _, kp := range keyed {
		out = append(out, domain.EnhancementPrompt{Index: kp.index, Text: kp.text})
	}
	return out
}

func suffixIndex(key string) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, strings.TrimPrefix(key, promptKeyPrefix))
	if digits == "" {
		return missingIndex
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return missingIndex
	}
	return n
}
