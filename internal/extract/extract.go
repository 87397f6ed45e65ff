// Package extract pulls a plain-text answer out of an upstream completion
// payload. Providers have shipped several response shapes over time and the
// same deployment can see more than one of them, so extraction probes a
// priority-ordered table of known shapes instead of trusting a single schema.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Reason classifies why no answer could be extracted.
type Reason string

const (
	// ReasonTransport covers network failures, timeouts, and non-2xx
	// responses from the provider.
	ReasonTransport Reason = "transport_error"
	// ReasonMalformed means the payload decoded but matched no known shape.
	ReasonMalformed Reason = "malformed_payload"
	// ReasonEmpty means a shape matched but its answer text was blank.
	ReasonEmpty Reason = "empty_answer"
)

// Failure is a typed extraction failure. It is never shown to the end user
// directly; the formatter maps it to a language-matched fallback phrase.
type Failure struct {
	Reason Reason
	Err    error // underlying cause, nil for malformed/empty
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Reason, f.Err)
	}
	return string(f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

// Transport wraps an upstream call error as a transport failure.
func Transport(err error) *Failure {
	return &Failure{Reason: ReasonTransport, Err: err}
}

// shape pairs a name (for logging) with a probe. The probe reports whether
// the shape's fields are present; the returned string may still be blank.
type shape struct {
	name string
	pick func(root map[string]any) (string, bool)
}

// shapes is ordered by extraction priority; the first shape whose fields are
// present and whose value is non-blank wins.
var shapes = []shape{
	{"output", func(root map[string]any) (string, bool) {
		s, ok := root["output"].(string)
		return s, ok
	}},
	{"output.choices.text", func(root map[string]any) (string, bool) {
		inner, ok := root["output"].(map[string]any)
		if !ok {
			return "", false
		}
		choice, ok := firstChoice(inner)
		if !ok {
			return "", false
		}
		s, ok := choice["text"].(string)
		return s, ok
	}},
	{"choices.text", func(root map[string]any) (string, bool) {
		choice, ok := firstChoice(root)
		if !ok {
			return "", false
		}
		s, ok := choice["text"].(string)
		return s, ok
	}},
	{"choices.message.content", func(root map[string]any) (string, bool) {
		choice, ok := firstChoice(root)
		if !ok {
			return "", false
		}
		msg, ok := choice["message"].(map[string]any)
		if !ok {
			return "", false
		}
		s, ok := msg["content"].(string)
		return s, ok
	}},
}

// Extract probes the known payload shapes in priority order and returns the
// trimmed answer text. A shape that matches with a blank value yields an
// empty_answer failure rather than falling back to the generic malformed one,
// since a blank completion is usually the model declining to answer.
func Extract(payload []byte) (string, *Failure) {
	var root map[string]any
	if err := json.Unmarshal(payload, &root); err != nil {
		return "", &Failure{Reason: ReasonMalformed, Err: err}
	}

	matchedBlank := false
	for _, s := range shapes {
		raw, ok := s.pick(root)
		if !ok {
			continue
		}
		if text := strings.TrimSpace(raw); text != "" {
			return text, nil
		}
		matchedBlank = true
	}

	if matchedBlank {
		return "", &Failure{Reason: ReasonEmpty}
	}
	return "", &Failure{Reason: ReasonMalformed}
}

func firstChoice(m map[string]any) (map[string]any, bool) {
	list, ok := m["choices"].([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	choice, ok := list[0].(map[string]any)
	return choice, ok
}
