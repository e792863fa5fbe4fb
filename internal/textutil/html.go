package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var collapseSpaces = regexp.MustCompile(`[ \t\r\n]+`)

// StripTags removes all HTML markup from text, dropping script and style
// contents entirely, and collapses runs of whitespace into single spaces.
func StripTags(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(text))
	skipDepth := 0

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			return strings.TrimSpace(collapseSpaces.ReplaceAllString(b.String(), " "))
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isSkippedTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isSkippedTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

// CleanTitle strips markup and decodes entities, producing the plain-text
// form of a rendered title. The tokenizer already decodes entities in text
// nodes, so plain "&amp; co" input also comes out decoded.
func CleanTitle(title string) string {
	stripped := StripTags(title)
	return strings.TrimSpace(html.UnescapeString(stripped))
}

func isSkippedTag(name string) bool {
	return name == "script" || name == "style"
}
