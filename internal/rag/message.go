package rag

import "github.com/campusdesk/campusdesk/internal/domain"

// MessageType identifies one frame of the streamed answer protocol.
type MessageType string

const (
	MessageStart   MessageType = "start"
	MessageChunk   MessageType = "chunk"
	MessageSources MessageType = "sources"
	MessageEnd     MessageType = "end"
	MessageError   MessageType = "error"
)

// Message is one framed protocol message; exactly one JSON object per frame.
// Content carries the chunk text for chunk frames and the citation list for
// sources frames (an empty list is encoded as [], never omitted).
type Message struct {
	Type      MessageType `json:"type"`
	Question  string      `json:"question,omitempty"`
	Content   any         `json:"content,omitempty"`
	TotalTime float64     `json:"total_time,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// sourcesContent builds the content payload of a sources frame, normalizing
// nil to an empty (but present) list.
func sourcesContent(citations []domain.Citation) []domain.Citation {
	if citations == nil {
		return []domain.Citation{}
	}
	return citations
}

// Sink accepts framed output messages. Implementations belong to transports
// (SSE, WebSocket); the core never sees the wire.
type Sink interface {
	Send(msg Message) error
}
