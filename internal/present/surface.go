package present

import "sync"

// Role constants for messages delivered into a chat surface.
const (
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

// Surface is one chat UI a message can be delivered through. TryDeliver
// reports whether the surface actually accepted the message; a false return
// lets the presenter fall through to the next surface.
type Surface interface {
	Name() string
	TryDeliver(sessionID, text, role string) bool
}

// Hub tracks which surfaces are currently wired. Which surface is active is
// recomputed on every delivery, never cached per session: a surface that
// detaches between two deliveries simply stops receiving.
type Hub struct {
	mu    sync.RWMutex
	text  Surface
	voice Surface
}

func NewHub() *Hub {
	return &Hub{}
}

// SetText installs (or with nil, removes) the text surface.
func (h *Hub) SetText(s Surface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.text = s
}

// SetVoice installs (or with nil, removes) the voice surface.
func (h *Hub) SetVoice(s Surface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.voice = s
}

// active returns the delivery candidates in preference order: text first.
func (h *Hub) active() []Surface {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []Surface
	if h.text != nil {
		out = append(out, h.text)
	}
	if h.voice != nil {
		out = append(out, h.voice)
	}
	return out
}
