// Package instruction holds the per-language instruction templates that
// constrain the model's answer domain, and the fallback phrases returned when
// no answer could be produced.
package instruction

import (
	"fmt"
	"strings"

	"fatwabot/internal/lang"
)

// Template is the full prompt material for one language.
type Template struct {
	// Instruction is the system-level directive sent with every request.
	Instruction string `yaml:"instruction"`
	// FallbackUnavailable is returned on transport or payload failures.
	FallbackUnavailable string `yaml:"fallbackUnavailable"`
	// FallbackNoRuling is returned when the model produced a blank answer.
	FallbackNoRuling string `yaml:"fallbackNoRuling"`
}

// Catalog maps every supported language to its template. It is read-only
// after startup; Validate must pass before the gateway accepts messages.
type Catalog struct {
	templates map[lang.Language]Template
}

// Builtin returns the catalog shipped with the gateway.
func Builtin() *Catalog {
	return &Catalog{templates: map[lang.Language]Template{
		lang.English: {
			Instruction: "You are a qualified Islamic scholar answering fatwas based on" +
				" Sayyed Ali Khamenei's jurisprudence. Only answer based on his rulings." +
				" Use only official sources like khamenei.ir and ajsite.ir." +
				" Do not make up rulings. If no ruling of his is known on the topic, reply exactly:" +
				" \"There is no known fatwa from Sayyed Ali Khamenei on this topic.\"" +
				" Answer in English.",
			FallbackUnavailable: "The service is currently unavailable. Please try again later.",
			FallbackNoRuling:    "There is no known fatwa from Sayyed Ali Khamenei on this topic.",
		},
		lang.Arabic: {
			Instruction: "أنت عالم دين مؤهل تجيب عن الفتاوى استنادًا إلى فقه السيد علي الخامنئي." +
				" أجب فقط بناءً على فتاواه المعروفة." +
				" اعتمد فقط على المصادر الرسمية مثل khamenei.ir و ajsite.ir ولا تختلق أحكامًا." +
				" إذا لم تكن هناك فتوى معروفة له في الموضوع فأجب حرفيًا:" +
				" \"لا توجد فتوى معروفة من السيد علي الخامنئي حول هذا الموضوع.\"" +
				" أجب باللغة العربية.",
			FallbackUnavailable: "الخدمة غير متاحة حاليًا، يرجى المحاولة لاحقًا.",
			FallbackNoRuling:    "لا توجد فتوى معروفة من السيد علي الخامنئي حول هذا الموضوع.",
		},
	}}
}

// Select returns the template for the given language. Validate guarantees a
// template exists for every supported language, so a miss here means the
// catalog was never validated; English is used rather than panicking.
func (c *Catalog) Select(l lang.Language) Template {
	if t, ok := c.templates[l]; ok {
		return t
	}
	return c.templates[lang.English]
}

// Validate reports a configuration error when any supported language lacks a
// complete template. This runs once at startup and is fatal there, so a
// missing template can never surface at request time.
func (c *Catalog) Validate() error {
	var errs []string
	for _, l := range lang.Supported() {
		t, ok := c.templates[l]
		if !ok {
			errs = append(errs, fmt.Sprintf("language %q has no template", l))
			continue
		}
		if strings.TrimSpace(t.Instruction) == "" {
			errs = append(errs, fmt.Sprintf("language %q: instruction is empty", l))
		}
		if strings.TrimSpace(t.FallbackUnavailable) == "" {
			errs = append(errs, fmt.Sprintf("language %q: fallbackUnavailable is empty", l))
		}
		if strings.TrimSpace(t.FallbackNoRuling) == "" {
			errs = append(errs, fmt.Sprintf("language %q: fallbackNoRuling is empty", l))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("instruction catalog:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
