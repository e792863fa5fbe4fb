package textutil_test

import (
	"testing"

	"nucliasync/internal/textutil"
)

func TestCleanTitle(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"tags stripped entities decoded", "<b>Hi</b> & co", "Hi & co"},
		{"encoded entities", "Caf&eacute; &amp; bar", "Café & bar"},
		{"nested markup", `<span class="x"><em>Deep</em> title</span>`, "Deep title"},
		{"script dropped", "<script>alert(1)</script>Safe", "Safe"},
		{"style dropped", "<style>p{}</style>Plain", "Plain"},
		{"whitespace collapsed", "A\n\t  B", "A B"},
		{"plain text untouched", "Just a title", "Just a title"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := textutil.CleanTitle(tc.input); got != tc.want {
				t.Fatalf("CleanTitle(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestStripTagsKeepsTextOrder(t *testing.T) {
	input := "<h1>One</h1><p>Two <a href='#'>Three</a></p>"
	if got := textutil.StripTags(input); got != "OneTwo Three" {
		t.Fatalf("StripTags = %q", got)
	}
}
