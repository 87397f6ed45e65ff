package provider

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"fatwabot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestTogether_Complete_SingleCall(t *testing.T) {
	calls := 0
	var gotAuth string
	var gotBody inferenceRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/inference" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"output": "the ruling"}`))
	}))
	defer srv.Close()

	p := NewTogether(TogetherConfig{
		APIKey:  "sk-test",
		APIBase: srv.URL,
		Client:  srv.Client(),
		Logger:  testLogger(),
	})

	payload, err := p.Complete(context.Background(), domain.CompletionRequest{
		Instruction: "answer from rulings only",
		UserText:    "may I?",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one upstream call, got %d", calls)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if !strings.Contains(gotBody.Prompt, "System: answer from rulings only") {
		t.Fatalf("instruction missing from prompt: %q", gotBody.Prompt)
	}
	if !strings.Contains(gotBody.Prompt, "User: may I?") {
		t.Fatalf("user text missing from prompt: %q", gotBody.Prompt)
	}
	if len(gotBody.Stop) == 0 {
		t.Fatal("completion-style request must carry stop markers")
	}
	if string(payload) != `{"output": "the ruling"}` {
		t.Fatalf("Complete must return the raw body, got %s", payload)
	}
}

func TestTogether_Complete_NonSuccessStatus(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewTogether(TogetherConfig{APIKey: "k", APIBase: srv.URL, Client: srv.Client(), Logger: testLogger()})
	_, err := p.Complete(context.Background(), domain.CompletionRequest{UserText: "q"})
	if err == nil {
		t.Fatal("expected error for 503")
	}
	if calls != 1 {
		t.Fatalf("a failed call must not be retried, got %d calls", calls)
	}
}

func TestTogether_Complete_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	p := NewTogether(TogetherConfig{APIKey: "k", APIBase: srv.URL, Client: srv.Client(), Logger: testLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Complete(ctx, domain.CompletionRequest{UserText: "q"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestOpenAI_Complete_ChatBody(t *testing.T) {
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "the ruling"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAI(OpenAIConfig{
		APIKey:  "sk-test",
		APIBase: srv.URL,
		Model:   "gpt-4o-mini",
		Client:  srv.Client(),
		Logger:  testLogger(),
	})

	payload, err := p.Complete(context.Background(), domain.CompletionRequest{
		Instruction: "instr",
		UserText:    "question",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if gotBody.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %q", gotBody.Model)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", gotBody.Messages)
	}
	if gotBody.MaxTokens != defaultMaxTokens {
		t.Fatalf("expected default max tokens %d, got %d", defaultMaxTokens, gotBody.MaxTokens)
	}
	if !strings.Contains(string(payload), "the ruling") {
		t.Fatalf("unexpected payload: %s", payload)
	}
}

func TestNewTogether_SamplingDefaults(t *testing.T) {
	p := NewTogether(TogetherConfig{APIKey: "k", Logger: testLogger()})
	if p.maxTokens != defaultMaxTokens {
		t.Fatalf("expected %d, got %d", defaultMaxTokens, p.maxTokens)
	}
	if p.temperature != defaultTemperature {
		t.Fatalf("expected %v, got %v", defaultTemperature, p.temperature)
	}
}
