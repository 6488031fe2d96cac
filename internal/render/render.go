package render

import "strings"

// Markdown renders markdown content for terminal display with a pooled renderer.
func Markdown(content string, opts Options) (string, error) {
	tr, giveBack, err := idle.borrow(opts)
	if err != nil {
		return "", err
	}
	defer giveBack()

	return tr.Render(content)
}

// Answer renders an assistant reply. Replies are shown even when the style
// cannot be loaded, so a render failure falls back to the raw text.
func Answer(content string, opts Options) string {
	out, err := Markdown(content, opts)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
