// Package format produces the final user-visible answer: it bounds the text
// to the transport's message-size ceiling and substitutes a language-matched
// fallback phrase when extraction failed. Nothing past this package ever sees
// an error value or an oversized string.
package format

import (
	"strings"

	"fatwabot/internal/extract"
	"fatwabot/internal/instruction"
	"fatwabot/internal/lang"
)

// MaxMessageLen is the transport's single-message ceiling (Telegram).
const MaxMessageLen = 4096

const ellipsis = "..."

// Answer is the final artifact of a turn. Text is never empty and never
// exceeds MaxMessageLen.
type Answer struct {
	Text      string
	Truncated bool
}

// Formatter resolves extraction results to Answers using the fallback
// phrases from the instruction catalog.
type Formatter struct {
	catalog *instruction.Catalog
}

func New(catalog *instruction.Catalog) *Formatter {
	return &Formatter{catalog: catalog}
}

// Format turns an extraction result into the Answer sent to the user. fail is
// nil on success. An empty success text is treated as a blank answer rather
// than trusted, so the non-empty guarantee holds for any input.
func (f *Formatter) Format(l lang.Language, text string, fail *extract.Failure) Answer {
	if fail == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			fail = &extract.Failure{Reason: extract.ReasonEmpty}
		}
	}

	if fail != nil {
		return Answer{Text: f.fallback(l, fail.Reason)}
	}

	return truncate(text)
}

func (f *Formatter) fallback(l lang.Language, reason extract.Reason) string {
	tmpl := f.catalog.Select(l)
	if reason == extract.ReasonEmpty {
		return tmpl.FallbackNoRuling
	}
	return tmpl.FallbackUnavailable
}

// truncate bounds text to MaxMessageLen characters, marking the cut with an
// ellipsis. Counting is by rune so Arabic answers are not cut mid-codepoint.
func truncate(text string) Answer {
	runes := []rune(text)
	if len(runes) <= MaxMessageLen {
		return Answer{Text: text}
	}
	return Answer{
		Text:      string(runes[:MaxMessageLen-len(ellipsis)]) + ellipsis,
		Truncated: true,
	}
}
