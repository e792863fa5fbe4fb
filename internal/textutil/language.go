package textutil

import (
	"strings"

	"golang.org/x/text/language"
)

// NormalizeLanguage converts host-system locale strings such as "en_US"
// or "PT_br" into canonical BCP 47 tags. Unparseable values are returned
// unchanged so the caller never loses information.
func NormalizeLanguage(locale string) string {
	trimmed := strings.TrimSpace(locale)
	if trimmed == "" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(trimmed, "_", "-"))
	if err != nil {
		return trimmed
	}
	return tag.String()
}
