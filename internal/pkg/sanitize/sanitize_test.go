package sanitize

import (
	"strings"
	"testing"
)

func TestCleanStripsMarkup(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"hello", "hello"},
		{"  padded  ", "padded"},
		{"<script>alert(1)</script>safe", "safe"},
		{"<b>bold</b> name", "bold name"},
		{"a & b", "a &amp; b"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := Clean(tc.input); got != tc.want {
			t.Fatalf("Clean(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	inputs := []string{
		"plain text",
		"<img src=x onerror=alert(1)>caption",
		"quotes \"and\" symbols & more",
		"<a href=\"https://example.com\">link</a>",
		"&lt;script&gt;alert(1)&lt;/script&gt;hi",
		"a &amp; b",
		"&#34;quoted&#34;",
	}

	for _, input := range inputs {
		once := Clean(input)
		twice := Clean(once)
		if once != twice {
			t.Fatalf("Clean is not idempotent for %q: first=%q second=%q", input, once, twice)
		}
	}
}

func TestCleanNeverRevivesEscapedMarkup(t *testing.T) {
	out := Clean("&lt;script&gt;alert(1)&lt;/script&gt;hi")
	if strings.Contains(out, "<") || strings.Contains(out, ">") {
		t.Fatalf("escaped markup became live markup: %q", out)
	}
}
