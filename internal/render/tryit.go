package render

import (
	"strings"

	"github.com/vertechie/vertechie-learn/internal/catalog"
)

// DefaultRunHint is shown for non-runnable tutorials that did not configure
// their own instruction text.
const DefaultRunHint = "This language does not run in the browser. Copy the code and run it with the appropriate tool installed locally."

// TryIt is the outcome of an explicit "run" action on the lesson editor.
// Exactly one of Document (runnable) or Instructions (static) is populated.
type TryIt struct {
	Runnable     bool   `json:"runnable"`
	Document     string `json:"-"`
	Code         string `json:"code,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Preview builds the try-it response for a submitted editor buffer. The
// buffer never replaces canonical lesson content; it only feeds this one
// response.
func Preview(t *catalog.Tutorial, code string) TryIt {
	if !t.Runnable {
		hint := t.RunHint
		if hint == "" {
			hint = DefaultRunHint
		}
		return TryIt{Code: code, Instructions: hint}
	}
	return TryIt{Runnable: true, Document: previewDocument(code)}
}

// previewDocument wraps a buffer into a self-contained HTML document.
// Buffers that already carry a document structure pass through unchanged.
func previewDocument(code string) string {
	low := strings.ToLower(code)
	if strings.Contains(low, "<html") || strings.Contains(low, "<!doctype") {
		return code
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"></head>\n<body>\n")
	b.WriteString(code)
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}
