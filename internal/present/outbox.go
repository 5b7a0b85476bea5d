package present

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is one entry in a session's text outbox, shaped for the message
// center's JSON responses.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	At        time.Time `json:"at"`
}

// Outbox is the text surface: deliveries queue per session until the
// message-center poll drains them. A per-session cap keeps an abandoned
// session from growing without bound.
type Outbox struct {
	mu    sync.Mutex
	queue map[string][]Message
	limit int
}

func NewOutbox() *Outbox {
	return &Outbox{queue: make(map[string][]Message), limit: 200}
}

func (o *Outbox) Name() string { return "text" }

func (o *Outbox) TryDeliver(sessionID, text, role string) bool {
	if sessionID == "" {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	msgs := append(o.queue[sessionID], Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Text:      text,
		At:        time.Now().UTC(),
	})
	if len(msgs) > o.limit {
		msgs = msgs[len(msgs)-o.limit:]
	}
	o.queue[sessionID] = msgs
	return true
}

// Drain returns and clears everything queued for the session, in delivery
// order.
func (o *Outbox) Drain(sessionID string) []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	msgs := o.queue[sessionID]
	delete(o.queue, sessionID)
	return msgs
}

// Pending reports how many messages a session has queued.
func (o *Outbox) Pending(sessionID string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue[sessionID])
}
