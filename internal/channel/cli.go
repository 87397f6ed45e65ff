package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"fatwabot/internal/domain"
)

// CLI implements domain.Channel for interactive terminal use, mainly for
// trying out instruction templates without a bot token.
type CLI struct {
	bus       domain.MessageBus
	logger    *slog.Logger
	in        io.Reader
	out       io.Writer
	waiting   bool
	waitMu    sync.Mutex
	waitStop  chan struct{}
}

type CLIConfig struct {
	Logger *slog.Logger
	In     io.Reader
	Out    io.Writer
}

func NewCLI(cfg CLIConfig) *CLI {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return &CLI{
		logger: cfg.Logger,
		in:     cfg.In,
		out:    cfg.Out,
	}
}

func (c *CLI) Name() string { return "cli" }

// Start runs the interactive REPL and blocks until context is cancelled.
func (c *CLI) Start(ctx context.Context, bus domain.MessageBus) error {
	c.bus = bus

	bus.OnOutbound("cli", func(msg domain.OutboundMessage) {
		c.stopWaiting()
		_, _ = fmt.Fprintln(c.out, "\r\033[K") // clear spinner line
		_, _ = fmt.Fprintln(c.out, msg.Text)
		_, _ = fmt.Fprintln(c.out)
		_, _ = fmt.Fprint(c.out, "? ")
	})

	_, _ = fmt.Fprintln(c.out, "fatwabot CLI. Ask a question in Arabic or English. Type /quit to exit.")
	_, _ = fmt.Fprint(c.out, "? ")

	scanner := bufio.NewScanner(c.in)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return nil // EOF
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			_, _ = fmt.Fprint(c.out, "? ")
			continue
		}
		if line == "/quit" || line == "/exit" || line == "/q" {
			c.logger.Info("user requested quit")
			return nil
		}

		c.startWaiting()
		c.bus.Publish(domain.InboundMessage{
			Channel:   "cli",
			ChatID:    "direct",
			SenderID:  "user",
			Text:      line,
			Timestamp: time.Now(),
		})
	}
}

func (c *CLI) startWaiting() {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()
	if c.waiting {
		return
	}
	c.waiting = true
	c.waitStop = make(chan struct{})
	go func() {
		frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		i := 0
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-c.waitStop:
				return
			case <-ticker.C:
				fmt.Fprintf(c.out, "\r%s Waiting...", frames[i%len(frames)])
				i++
			}
		}
	}()
}

func (c *CLI) stopWaiting() {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()
	if !c.waiting {
		return
	}
	c.waiting = false
	close(c.waitStop)
}

// Stop is a no-op for CLI (we exit when Start returns).
func (c *CLI) Stop() error { return nil }

func (c *CLI) Send(ctx context.Context, chatID string, text string) error {
	_, err := fmt.Fprintln(c.out, text)
	return err
}
