package chat

import "time"

// State is a point-in-time copy of a conversation, safe to hand to renderers.
type State struct {
	SessionID        string    `json:"sessionId"`
	History          []Message `json:"history"`
	PendingQuery     string    `json:"pendingQuery"`
	SelectedContext  Context   `json:"selectedContext"`
	AwaitingResponse bool      `json:"awaitingResponse"`
	CreatedAt        time.Time `json:"createdAt"`
}
