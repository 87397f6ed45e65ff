// Package lang provides the coarse script-based language classification
// used to pick the instruction template and the fallback phrasing.
package lang

import (
	"strings"
	"unicode"
)

// Language is a coarse language tag derived from the script of the input.
type Language string

const (
	English Language = "en"
	Arabic  Language = "ar"
)

// Supported lists every language the gateway has templates for.
func Supported() []Language {
	return []Language{English, Arabic}
}

// Classify returns Arabic if the text contains at least one code point from
// the Arabic script, English otherwise. Persian and Urdu share the script and
// classify as Arabic, which is the intended behavior for this user base.
func Classify(text string) Language {
	for _, r := range text {
		if unicode.Is(unicode.Arabic, r) {
			return Arabic
		}
	}
	return English
}

// ParseHint maps a user-declared locale hint (e.g. "ar", "fa-IR", "en_US")
// onto a supported language. The second return value is false when the hint
// is empty or unrecognized, in which case callers fall back to Classify.
func ParseHint(hint string) (Language, bool) {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if i := strings.IndexAny(hint, "-_"); i > 0 {
		hint = hint[:i]
	}
	switch hint {
	case "ar", "fa", "ur":
		return Arabic, true
	case "en":
		return English, true
	}
	return "", false
}
