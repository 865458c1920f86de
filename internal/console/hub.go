package console

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/agencyctl/internal/session"
)

// Notice is the last notification shown in the status bar.
type Notice struct {
	Level   session.Level
	Message string
	At      time.Time
}

// Hub receives navigation and notifications from the session. The session
// calls it from command goroutines while the model reads it from Update.
type Hub struct {
	mu     sync.Mutex
	path   string
	notice *Notice
}

// NewHub creates a Hub positioned on the home view.
func NewHub() *Hub {
	return &Hub{path: session.PathHome}
}

// Current returns the active view path.
func (h *Hub) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.path
}

// Navigate moves to path.
func (h *Hub) Navigate(path string) {
	h.mu.Lock()
	h.path = path
	h.mu.Unlock()

	log.Debug().Str("path", path).Msg("navigate")
}

// Notify records msg as the current notice.
func (h *Hub) Notify(level session.Level, msg string) {
	h.mu.Lock()
	h.notice = &Notice{Level: level, Message: msg, At: time.Now()}
	h.mu.Unlock()
}

// Notice returns the current notice, if any.
func (h *Hub) Notice() (Notice, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.notice == nil {
		return Notice{}, false
	}
	return *h.notice, true
}

// Dismiss clears the current notice.
func (h *Hub) Dismiss() {
	h.mu.Lock()
	h.notice = nil
	h.mu.Unlock()
}
