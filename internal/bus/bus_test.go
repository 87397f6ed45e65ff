package bus

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"fatwabot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestPublishSubscribe(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()

	b.Publish(domain.InboundMessage{Channel: "telegram", ChatID: "1", Text: "question"})

	select {
	case msg := <-b.Subscribe():
		if msg.Text != "question" {
			t.Fatalf("unexpected text: %q", msg.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestSendOutbound_RoutesToHandler(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()

	got := make(chan domain.OutboundMessage, 1)
	b.OnOutbound("telegram", func(msg domain.OutboundMessage) { got <- msg })

	b.SendOutbound(domain.OutboundMessage{Channel: "telegram", ChatID: "1", Text: "answer"})

	select {
	case msg := <-got:
		if msg.Text != "answer" {
			t.Fatalf("unexpected text: %q", msg.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("handler not invoked")
	}
}

func TestSendOutbound_NoHandlerIsSafe(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()
	// Must not panic.
	b.SendOutbound(domain.OutboundMessage{Channel: "nobody", Text: "x"})
}

func TestPublishAfterClose(t *testing.T) {
	b := New(10, testLogger())
	b.Close()
	// Must not panic on a closed bus.
	b.Publish(domain.InboundMessage{Channel: "cli", Text: "late"})
}

func TestClose_Idempotent(t *testing.T) {
	b := New(10, testLogger())
	b.Close()
	b.Close()
}
