package imagegen

import (
	"fmt"
	"strings"
)

var textHandlingRules = []string{
	"Maintain all text, logos, and brand elements exactly as they appear in the original.",
	"Arabic text MUST be written right-to-left with properly connected letterforms; never mirror or flip it.",
	"Keep Arabic diacritics, numerals and spacing as in the original.",
	"For bilingual text keep the correct direction for each script.",
	"Text must stay natural, readable and identical to the original, not distorted or backwards.",
}

// BuildInstruction renders the text sent with the reference image for one
// synthesis call.
func BuildInstruction(req Request) string {
	aspect := strings.TrimSpace(req.AspectRatio)
	if aspect == "" {
		aspect = DefaultAspectRatio
	}
	description := strings.TrimSpace(req.Description)

	sb := &strings.Builder{}
	if description != "" {
		fmt.Fprintf(sb, "ORIGINAL IMAGE DESCRIPTION: %s\n\n", description)
	}
	fmt.Fprintf(sb, "ENHANCEMENT IDEA: %s\n\n", strings.TrimSpace(req.Prompt.Text))
	sb.WriteString("STRICT:\n")
	sb.WriteString("- Enhance only scene/lighting/props/composition/angle.\n")
	sb.WriteString("- Keep product/branding unchanged and readable.\n")
	sb.WriteString("- The product must remain clearly recognizable as the same item; do not change its colors, shape, size or packaging.\n")
	fmt.Fprintf(sb, "- Output %s aspect%s.", aspect, platformHint(aspect))
	if description != "" {
		sb.WriteString("\n\nTEXT HANDLING:")
		for _, rule := range textHandlingRules {
			sb.WriteString("\n- ")
			sb.WriteString(rule)
		}
	}
	return sb.String()
}

func platformHint(aspect string) string {
	switch aspect {
	case "9:16":
		return " suitable for TikTok"
	case "1:1":
		return " suitable for an Instagram feed post"
	default:
		return ""
	}
}
