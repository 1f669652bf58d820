package transport

import (
	"sync"

	"github.com/gorilla/websocket"

	"iacgen/internal/domain/entity"
)

// attemptEvent is the wire form of one generation attempt pushed to
// websocket subscribers of a job.
type attemptEvent struct {
	JobID       string              `json:"job_id"`
	Attempt     int                 `json:"attempt"`
	Status      string              `json:"status"`
	Diagnostics []entity.Diagnostic `json:"diagnostics,omitempty"`
}

// EventHub fans attempt-progress events out to websocket subscribers,
// keyed by job id. Implements usecase.AttemptPublisher.
type EventHub struct {
	mu   sync.Mutex
	subs map[string]map[*websocket.Conn]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{
		subs: make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (h *EventHub) Subscribe(jobID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[jobID] == nil {
		h.subs[jobID] = make(map[*websocket.Conn]struct{})
	}
	h.subs[jobID][conn] = struct{}{}
}

func (h *EventHub) Unsubscribe(jobID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.subs[jobID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.subs, jobID)
		}
	}
}

func (h *EventHub) PublishAttempt(jobID string, att entity.GenerationAttempt) {
	event := attemptEvent{
		JobID:       jobID,
		Attempt:     att.Number,
		Status:      string(att.Outcome.Status),
		Diagnostics: att.Outcome.Diagnostics,
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.subs[jobID]))
	for c := range h.subs[jobID] {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteJSON(event); err != nil {
			h.Unsubscribe(jobID, c)
			_ = c.Close()
		}
	}
}
