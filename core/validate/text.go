package validate

import "github.com/FocuswithJustin/Apparatus/core/apparatus"

// ReadingText serializes a reading's content to the plain-text form used for
// duplicate detection. The rules are fixed per content tag: word-like
// elements concatenate their text, gaps and spaces render bracketed with
// reason and extent, expansions render in parentheses, uncertain or supplied
// text in brackets, alternatives joined by slashes, and cross-references in
// brackets. Anything else serializes to the empty string.
func ReadingText(r *apparatus.Reading) string {
	text := r.Text
	for i, el := range r.Content {
		if i > 0 {
			text += " "
		}
		text += elementText(el)
	}
	return text
}

func elementText(e *apparatus.Element) string {
	switch e.Tag {
	case "w", "abbr", "hi":
		text := e.Text
		for _, child := range e.Children {
			text += elementText(child)
		}
		return text + e.Tail

	case "space":
		text := "[space"
		if reason := e.Attr("reason"); reason != "" {
			text += " (" + reason + ")"
		}
		if e.Attr("unit") != "" && e.Attr("extent") != "" {
			text += ", " + e.Attr("extent") + " " + e.Attr("unit")
		}
		return text + "]" + e.Tail

	case "ex":
		text := "(" + e.Text
		text += joinChildren(e, " ")
		return text + ")" + e.Tail

	case "gap":
		text := "[gap"
		if reason := e.Attr("reason"); reason != "" {
			text += " (" + reason + ")"
		}
		if e.Attr("unit") != "" && e.Attr("extent") != "" {
			text += ", " + e.Attr("extent") + " " + e.Attr("unit")
		} else {
			text += "..."
		}
		return text + "]" + e.Tail

	case "unclear", "supplied":
		return "[" + e.Text + joinChildren(e, " ") + "]" + e.Tail

	case "choice":
		return "[" + e.Text + joinChildren(e, "/") + "]" + e.Tail

	case "ref":
		return "[" + e.Text + "]" + e.Tail
	}
	return ""
}

func joinChildren(e *apparatus.Element, sep string) string {
	text := ""
	for i, child := range e.Children {
		if i > 0 {
			text += sep
		}
		text += elementText(child)
	}
	return text
}
