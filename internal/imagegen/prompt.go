package imagegen

import (
	"fmt"
	"strings"
)

// BuildPrompt turns a post into a text-to-image prompt. The provider tends to
// paint the title into the picture unless told otherwise, hence the last line.
func BuildPrompt(title, body, style string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a visually stunning and contextually accurate image based on the post: %q.\n", strings.TrimSpace(title))
	fmt.Fprintf(&b, "Illustrate a scene that best represents the main idea, highlighting key themes and emotions from the text: %q.\n", strings.TrimSpace(body))
	b.WriteString("Incorporate essential elements that define the atmosphere and narrative of the post, ensuring an engaging and artistic depiction.\n")
	if style = strings.TrimSpace(style); style != "" {
		fmt.Fprintf(&b, "Render it in %s style.\n", style)
	}
	b.WriteString("Avoid using any text, words, or letter-like symbols. Allow for abstract symbols like arrows or icons if necessary.")
	return b.String()
}
