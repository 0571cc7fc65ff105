package gemini

import (
	"context"
	"encoding/json"
	"fmt"
)

// ChatMessage is one turn in an assistant conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

const assistantPromptFmt = `You are a helpful insurance claim assistant. Your role is to:
- Help users understand their insurance policies
- Guide them through the claim submission process
- Answer questions about claim status and requirements
- Explain rejection reasons in simple terms
- Be empathetic and patient with users

Current context:
%s

Always be professional, clear, and helpful. If you don't know something, say so honestly.`

// Chat sends the conversation so far plus user context and returns the
// assistant's reply.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage, contextData any) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages: %w", ErrUnavailable)
	}

	ctxJSON, _ := json.MarshalIndent(contextData, "", "  ")
	systemPrompt := fmt.Sprintf(assistantPromptFmt, ctxJSON)

	contents := make([]content, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role != "user" {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: m.Content}}})
	}

	return c.generateConversation(ctx, systemPrompt, contents)
}
