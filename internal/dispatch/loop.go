// Package dispatch runs the per-message pipeline: classify the language,
// select the instruction, issue the upstream call, extract an answer, and
// format it for the transport. Every inbound message is an independent task;
// nothing is shared for mutation between turns.
package dispatch

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"fatwabot/internal/audit"
	"fatwabot/internal/domain"
	"fatwabot/internal/extract"
	"fatwabot/internal/format"
	"fatwabot/internal/instruction"
	"fatwabot/internal/lang"
	"fatwabot/internal/metrics"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultConcurrency = 5
)

// Loop consumes inbound questions from the bus and answers them.
type Loop struct {
	provider     domain.Provider
	instructions *instruction.Catalog
	formatter    *format.Formatter
	bus          domain.MessageBus
	audit        *audit.Log // optional
	logger       *slog.Logger
	timeout      time.Duration
	concurrency  int
}

// LoopConfig holds all dependencies and tuning parameters for the dispatcher.
type LoopConfig struct {
	Provider     domain.Provider
	Instructions *instruction.Catalog
	Formatter    *format.Formatter
	Bus          domain.MessageBus
	Audit        *audit.Log // nil disables the audit log
	Logger       *slog.Logger
	Timeout      time.Duration // per-upstream-call bound (default 30s)
	Concurrency  int           // max parallel messages (default 5)
}

func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Loop{
		provider:     cfg.Provider,
		instructions: cfg.Instructions,
		formatter:    cfg.Formatter,
		bus:          cfg.Bus,
		audit:        cfg.Audit,
		logger:       cfg.Logger,
		timeout:      cfg.Timeout,
		concurrency:  cfg.Concurrency,
	}
}

// Run consumes inbound messages and processes them with bounded concurrency.
// It returns when the context is cancelled or the bus closes.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("dispatcher started",
		"provider", l.provider.Name(),
		"concurrency", l.concurrency,
		"timeout", l.timeout,
	)

	sem := make(chan struct{}, l.concurrency)
	inbound := l.bus.Subscribe()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("dispatcher stopping")
			return
		case msg, ok := <-inbound:
			if !ok {
				l.logger.Info("inbound channel closed, dispatcher stopping")
				return
			}
			sem <- struct{}{}
			go func(m domain.InboundMessage) {
				defer func() { <-sem }()
				l.processMessage(ctx, m)
			}(msg)
		}
	}
}

// Ask answers one question synchronously. Used by the one-shot CLI command.
func (l *Loop) Ask(ctx context.Context, text, localeHint string) format.Answer {
	ans, _ := l.answer(ctx, domain.InboundMessage{
		Channel:    "cli",
		ChatID:     "direct",
		Text:       text,
		LocaleHint: localeHint,
		Timestamp:  time.Now(),
	})
	return ans
}

func (l *Loop) processMessage(ctx context.Context, msg domain.InboundMessage) {
	ans, send := l.answer(ctx, msg)
	if !send {
		// Shutdown mid-flight: never deliver a partial answer.
		return
	}
	l.bus.SendOutbound(domain.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Text:    ans.Text,
	})
}

// answer runs one full turn. The second return value is false only when the
// hosting context was cancelled, in which case nothing must be sent.
func (l *Loop) answer(ctx context.Context, msg domain.InboundMessage) (format.Answer, bool) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		// A blank question never reaches the upstream provider.
		l.logger.Debug("blank message dropped", "channel", msg.Channel, "chat", msg.ChatID)
		return format.Answer{}, false
	}

	language := lang.Classify(text)
	if hinted, ok := lang.ParseHint(msg.LocaleHint); ok {
		language = hinted
	}
	countQuery(language)

	tmpl := l.instructions.Select(language)

	callCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	metrics.InFlight.Inc()
	start := time.Now()
	payload, err := l.provider.Complete(callCtx, domain.CompletionRequest{
		Instruction: tmpl.Instruction,
		UserText:    text,
	})
	elapsed := time.Since(start)
	metrics.InFlight.Dec()
	metrics.UpstreamLatency.Observe(elapsed.Seconds())

	var answerText string
	var fail *extract.Failure
	switch {
	case err != nil && ctx.Err() != nil:
		// The process is shutting down, not the upstream failing.
		l.logger.Info("turn abandoned", "channel", msg.Channel, "chat", msg.ChatID)
		return format.Answer{}, false
	case err != nil:
		l.logger.Warn("upstream call failed",
			"provider", l.provider.Name(),
			"latency_ms", elapsed.Milliseconds(),
			"err", err,
		)
		fail = extract.Transport(err)
	default:
		answerText, fail = extract.Extract(payload)
		if fail != nil && fail.Reason == extract.ReasonMalformed {
			// The raw payload is the only clue to a new upstream shape.
			l.logger.Error("unrecognized upstream payload",
				"provider", l.provider.Name(),
				"payload", string(payload),
			)
		}
	}

	ans := l.formatter.Format(language, answerText, fail)

	outcome := "ok"
	switch {
	case fail != nil:
		outcome = string(fail.Reason)
	case ans.Truncated:
		outcome = "truncated"
	}
	countOutcome(outcome)

	l.logger.Info("turn answered",
		"channel", msg.Channel,
		"lang", language,
		"outcome", outcome,
		"latency_ms", elapsed.Milliseconds(),
		"answer_len", len(ans.Text),
	)

	if l.audit != nil {
		entry := audit.Entry{
			Channel:   msg.Channel,
			ChatID:    msg.ChatID,
			Provider:  l.provider.Name(),
			Language:  string(language),
			Outcome:   outcome,
			LatencyMs: elapsed.Milliseconds(),
		}
		if fail != nil && fail.Reason == extract.ReasonMalformed {
			entry.RawPayload = string(payload)
		}
		l.audit.Record(ctx, entry)
	}

	return ans, true
}

func countQuery(l lang.Language) {
	if l == lang.Arabic {
		metrics.QueriesArabic.Inc()
		return
	}
	metrics.QueriesEnglish.Inc()
}

func countOutcome(outcome string) {
	switch outcome {
	case "ok":
		metrics.AnswersOK.Inc()
	case "truncated":
		metrics.AnswersTruncated.Inc()
	case string(extract.ReasonTransport):
		metrics.FailuresTransport.Inc()
	case string(extract.ReasonMalformed):
		metrics.FailuresMalformed.Inc()
	case string(extract.ReasonEmpty):
		metrics.FailuresEmpty.Inc()
	}
}
