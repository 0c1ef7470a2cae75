// Package render turns lesson body markup into HTML and assembles try-it
// previews. The markup is a deliberately small line-oriented subset:
// #/## headings, - bullets, fenced code blocks, **bold** and `code` spans.
// There is no nesting and no raw HTML passthrough.
package render

import (
	"html"
	"strings"
)

// Markup renders the lesson body subset to HTML. Input is processed line by
// line; anything the subset does not define renders as a plain paragraph.
func Markup(src string) string {
	var b strings.Builder
	inCode := false
	inList := false

	closeList := func() {
		if inList {
			b.WriteString("</ul>\n")
			inList = false
		}
	}

	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimRight(line, " \t")

		if strings.HasPrefix(trimmed, "```") {
			closeList()
			if inCode {
				b.WriteString("</code></pre>\n")
			} else {
				b.WriteString("<pre><code>")
			}
			inCode = !inCode
			continue
		}
		if inCode {
			b.WriteString(html.EscapeString(line))
			b.WriteString("\n")
			continue
		}

		switch {
		case trimmed == "":
			closeList()
		case strings.HasPrefix(trimmed, "## "):
			closeList()
			b.WriteString("<h2>")
			b.WriteString(spans(strings.TrimPrefix(trimmed, "## ")))
			b.WriteString("</h2>\n")
		case strings.HasPrefix(trimmed, "# "):
			closeList()
			b.WriteString("<h1>")
			b.WriteString(spans(strings.TrimPrefix(trimmed, "# ")))
			b.WriteString("</h1>\n")
		case strings.HasPrefix(trimmed, "- "):
			if !inList {
				b.WriteString("<ul>\n")
				inList = true
			}
			b.WriteString("<li>")
			b.WriteString(spans(strings.TrimPrefix(trimmed, "- ")))
			b.WriteString("</li>\n")
		default:
			closeList()
			b.WriteString("<p>")
			b.WriteString(spans(trimmed))
			b.WriteString("</p>\n")
		}
	}
	closeList()
	if inCode {
		// Unterminated fence: close it rather than leak the tag.
		b.WriteString("</code></pre>\n")
	}
	return b.String()
}

// spans escapes a line and applies the two inline forms, **bold** and
// `code`. Code spans win over bold markers inside them.
func spans(line string) string {
	var b strings.Builder
	rest := line
	for {
		tick := strings.Index(rest, "`")
		if tick < 0 {
			break
		}
		end := strings.Index(rest[tick+1:], "`")
		if end < 0 {
			break
		}
		b.WriteString(bold(html.EscapeString(rest[:tick])))
		b.WriteString("<code>")
		b.WriteString(html.EscapeString(rest[tick+1 : tick+1+end]))
		b.WriteString("</code>")
		rest = rest[tick+1+end+1:]
	}
	b.WriteString(bold(html.EscapeString(rest)))
	return b.String()
}

func bold(escaped string) string {
	var b strings.Builder
	rest := escaped
	for {
		open := strings.Index(rest, "**")
		if open < 0 {
			break
		}
		end := strings.Index(rest[open+2:], "**")
		if end < 0 {
			break
		}
		b.WriteString(rest[:open])
		b.WriteString("<strong>")
		b.WriteString(rest[open+2 : open+2+end])
		b.WriteString("</strong>")
		rest = rest[open+2+end+2:]
	}
	b.WriteString(rest)
	return b.String()
}
