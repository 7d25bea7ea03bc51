package chat

import (
	"time"

	"github.com/google/uuid"
)

// Kind tells who authored a message.
type Kind string

const (
	KindUser Kind = "user"
	KindBot  Kind = "bot"
)

const (
	// ErrorContext tags the synthesized reply used when the support endpoint fails.
	ErrorContext = "error"
	// FallbackText is shown in place of a reply when the support endpoint fails.
	FallbackText = "Sorry, there was an error processing your request."
)

// Message is one immutable turn of the conversation.
type Message struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Text      string    `json:"text"`
	Context   string    `json:"context"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUserMessage records text exactly as typed.
func NewUserMessage(text string, context Context) Message {
	return newMessage(KindUser, text, string(context))
}

// NewBotMessage records a reply with the context the endpoint returned.
func NewBotMessage(text, context string) Message {
	return newMessage(KindBot, text, context)
}

// NewErrorMessage builds the fallback reply shown after a failed exchange.
func NewErrorMessage() Message {
	return newMessage(KindBot, FallbackText, ErrorContext)
}

func newMessage(kind Kind, text, context string) Message {
	return Message{
		ID:        uuid.NewString(),
		Kind:      kind,
		Text:      text,
		Context:   context,
		CreatedAt: time.Now().UTC(),
	}
}
