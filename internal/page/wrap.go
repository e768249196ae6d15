package page

import "strings"

// Wrap soft-wraps Text lines (never Preformatted or Link lines) to the
// given column width, as a pure function of (lines, width). A width of
// 0 disables wrapping, matching the config `textwrap` field.
func Wrap(lines []Line, width int) []Line {
	if width <= 0 {
		return lines
	}

	var out []Line
	for _, l := range lines {
		if l.Kind != KindText {
			out = append(out, l)
			continue
		}
		for _, wrapped := range wrapText(l.Text, width) {
			out = append(out, NewText(wrapped))
		}
	}
	return out
}

// wrapText greedily packs words onto lines no longer than width.
func wrapText(text string, width int) []string {
	if text == "" {
		return []string{""}
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{text}
	}

	var result []string
	var cur strings.Builder
	for _, w := range words {
		if cur.Len() == 0 {
			cur.WriteString(w)
			continue
		}
		if cur.Len()+1+len(w) > width {
			result = append(result, cur.String())
			cur.Reset()
			cur.WriteString(w)
			continue
		}
		cur.WriteByte(' ')
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		result = append(result, cur.String())
	}
	return result
}
