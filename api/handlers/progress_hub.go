package handlers

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/ytb/internal/domain"
)

const clientBuffer = 64

// ProgressEvent is the message pushed to progress subscribers
type ProgressEvent struct {
	Type      string  `json:"type"` // open or progress
	RunID     string  `json:"run_id,omitempty"`
	ChannelID string  `json:"channel_id"`
	Label     string  `json:"label"`
	Percent   float64 `json:"percent"`
	Detail    string  `json:"detail,omitempty"`
}

// ProgressHub fans run progress out to WebSocket subscribers. It is a
// domain.ProgressSink; slow subscribers miss updates rather than block runs.
type ProgressHub struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	clients map[chan ProgressEvent]struct{}
}

// NewProgressHub creates an empty hub
func NewProgressHub(log *zap.Logger) *ProgressHub {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProgressHub{
		logger:  log,
		clients: make(map[chan ProgressEvent]struct{}),
	}
}

// Open announces a channel to subscribers
func (h *ProgressHub) Open(channelID, label string) {
	h.OpenRun("", channelID, label)
}

// OpenRun announces a channel that belongs to a run
func (h *ProgressHub) OpenRun(runID, channelID, label string) {
	h.broadcast(ProgressEvent{Type: "open", RunID: runID, ChannelID: channelID, Label: label})
}

// Report forwards a progress report to subscribers
func (h *ProgressHub) Report(report domain.ProgressReport) {
	h.broadcast(ProgressEvent{
		Type:      "progress",
		RunID:     report.RunID,
		ChannelID: report.ChannelID,
		Label:     report.Label,
		Percent:   report.Percent,
		Detail:    report.Detail,
	})
}

// ClientCount returns the number of connected subscribers
func (h *ProgressHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Subscribe registers a subscriber channel; call the returned func to leave
func (h *ProgressHub) Subscribe() (<-chan ProgressEvent, func()) {
	ch := make(chan ProgressEvent, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
	}
}

func (h *ProgressHub) broadcast(ev ProgressEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}

// HandleWebSocket handles GET /api/v1/progress
func (h *ProgressHub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	events, leave := h.Subscribe()
	defer leave()

	done := readUntilClosed(conn)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("Progress subscriber gone", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
