package render

import (
	"strings"
	"testing"
)

func TestMarkupHeadingsAndParagraphs(t *testing.T) {
	got := Markup("# Title\n## Sub\nplain text")
	want := "<h1>Title</h1>\n<h2>Sub</h2>\n<p>plain text</p>\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMarkupListGrouping(t *testing.T) {
	got := Markup("- one\n- two\n\n- three")
	want := "<ul>\n<li>one</li>\n<li>two</li>\n</ul>\n<ul>\n<li>three</li>\n</ul>\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMarkupCodeFence(t *testing.T) {
	got := Markup("```\n<b>raw</b>\n```")
	want := "<pre><code>&lt;b&gt;raw&lt;/b&gt;\n</code></pre>\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMarkupUnterminatedFenceClosed(t *testing.T) {
	got := Markup("```\ncode")
	if !strings.HasSuffix(got, "</code></pre>\n") {
		t.Fatalf("unterminated fence not closed: %q", got)
	}
}

func TestMarkupInlineSpans(t *testing.T) {
	got := Markup("use `<br>` for **line breaks**")
	want := "<p>use <code>&lt;br&gt;</code> for <strong>line breaks</strong></p>\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMarkupCodeSpanWinsOverBold(t *testing.T) {
	got := Markup("`**not bold**`")
	if !strings.Contains(got, "<code>**not bold**</code>") {
		t.Fatalf("bold applied inside code span: %q", got)
	}
}

func TestMarkupEscapesText(t *testing.T) {
	got := Markup("<script>alert(1)</script>")
	if strings.Contains(got, "<script>") {
		t.Fatalf("raw HTML passed through: %q", got)
	}
}
