package provider

import "fmt"

// Completion-style endpoints take a single concatenated prompt string. The
// stop markers keep the model from continuing the dialogue past its one
// answer and hallucinating further "User:" turns.
var promptStops = []string{"User:", "Assistant:"}

func buildPrompt(instruction, userText string) string {
	return fmt.Sprintf("System: %s\n\nUser: %s\n\nAssistant:", instruction, userText)
}

// chatMessage is one role-tagged turn for chat-style endpoints.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func buildMessages(instruction, userText string) []chatMessage {
	return []chatMessage{
		{Role: "system", Content: instruction},
		{Role: "user", Content: userText},
	}
}
