// Package notify delivers per-user events to connected server-sent-event
// streams.
package notify

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeAlert          = "alert"
	TypeCommunityReply = "community_reply"
	TypeSystem         = "system"
)

// Event is one message on a notification stream.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEvent encodes payload as the data of a new event.
func NewEvent(eventType string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s event: %w", eventType, err)
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// WriteTo writes e in text/event-stream framing.
func (e Event) WriteTo(w io.Writer) (int64, error) {
	data := e.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	n, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Type, data)
	return int64(n), err
}
