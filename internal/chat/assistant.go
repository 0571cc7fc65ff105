package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/insureco/claims-backend/internal/gemini"
	"github.com/insureco/claims-backend/internal/models"
)

// ErrNotSessionOwner is returned when a caller addresses a session that
// belongs to another user.
var ErrNotSessionOwner = errors.New("session belongs to another user")

// Completer produces assistant replies from a conversation and user context.
type Completer interface {
	Chat(ctx context.Context, messages []gemini.ChatMessage, contextData any) (string, error)
}

// ClaimLister supplies a user's claims for context enrichment.
type ClaimLister interface {
	ListByUser(ctx context.Context, userID string, limit int32) ([]models.Claim, error)
}

// Reply is the assistant's answer to one user message.
type Reply struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Assistant drives the help conversation: session handling, claim-context
// enrichment and the model call.
type Assistant struct {
	store    *Store
	complete Completer
	claims   ClaimLister
	logger   *slog.Logger
}

// NewAssistant wires the session store, the completion backend and the claim
// lister used for context.
func NewAssistant(store *Store, complete Completer, claims ClaimLister, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{store: store, complete: complete, claims: claims, logger: logger}
}

// Handle appends the user's message to the session, gathers context and
// returns the assistant's reply.
func (a *Assistant) Handle(ctx context.Context, sessionID, userID, message string, extra map[string]any) (Reply, error) {
	session, ok := a.store.Load(sessionID)
	if !ok {
		if sessionID == "" {
			sessionID = fmt.Sprintf("chat-%d", time.Now().UnixMilli())
		}
		session = Session{ID: sessionID, UserID: userID, Context: map[string]any{}}
	}
	if session.UserID != userID {
		return Reply{}, ErrNotSessionOwner
	}
	for k, v := range extra {
		if session.Context == nil {
			session.Context = map[string]any{}
		}
		session.Context[k] = v
	}

	now := time.Now().UTC().Format(time.RFC3339)
	session.Messages = append(session.Messages, Message{Role: "user", Content: message, Timestamp: now})

	enriched := a.enrichContext(ctx, session)

	conversation := make([]gemini.ChatMessage, 0, len(session.Messages))
	for _, m := range session.Messages {
		conversation = append(conversation, gemini.ChatMessage{Role: m.Role, Content: m.Content})
	}

	reply, err := a.complete.Chat(ctx, conversation, enriched)
	if err != nil {
		return Reply{}, err
	}

	replyAt := time.Now().UTC().Format(time.RFC3339)
	session.Messages = append(session.Messages, Message{Role: "assistant", Content: reply, Timestamp: replyAt})
	a.store.Save(session)

	return Reply{SessionID: session.ID, Message: reply, Timestamp: replyAt}, nil
}

// History returns a session's stored messages.
func (a *Assistant) History(sessionID string) (Session, bool) {
	return a.store.Load(sessionID)
}

// Clear drops a session.
func (a *Assistant) Clear(sessionID string) {
	a.store.Delete(sessionID)
}

// enrichContext folds the user's recent claims into the session context.
func (a *Assistant) enrichContext(ctx context.Context, session Session) map[string]any {
	enriched := make(map[string]any, len(session.Context)+2)
	for k, v := range session.Context {
		enriched[k] = v
	}
	if session.UserID == "" || a.claims == nil {
		return enriched
	}

	userClaims, err := a.claims.ListByUser(ctx, session.UserID, 0)
	if err != nil {
		a.logger.Warn("could not load claims for chat context", "user", session.UserID, "error", err)
		return enriched
	}
	recent := userClaims
	if len(recent) > 5 {
		recent = recent[:5]
	}
	enriched["recentClaims"] = recent
	enriched["claimCount"] = len(userClaims)
	return enriched
}

// QuickQuestion is one suggested help prompt.
type QuickQuestion struct {
	ID       int    `json:"id"`
	Question string `json:"question"`
	Category string `json:"category"`
}

// QuickQuestions returns the canned help prompts shown in the assistant UI.
func QuickQuestions() []QuickQuestion {
	return []QuickQuestion{
		{ID: 1, Question: "How do I file a claim?", Category: "process"},
		{ID: 2, Question: "What documents do I need for a health claim?", Category: "documents"},
		{ID: 3, Question: "How long does claim processing take?", Category: "process"},
		{ID: 4, Question: "Why was my claim rejected?", Category: "status"},
		{ID: 5, Question: "How can I check my claim status?", Category: "status"},
		{ID: 6, Question: "What is covered under my policy?", Category: "policy"},
	}
}
