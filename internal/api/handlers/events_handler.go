package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/strideloop/fitadvisor-backend/internal/domain/entities"
	"github.com/strideloop/fitadvisor-backend/internal/domain/providers"
)

// EventsHandler handles Server-Sent Events for real-time assessment updates
type EventsHandler struct {
	eventBus providers.EventBus
	clients  map[string]map[chan *entities.AssessmentEvent]bool // channel -> clients
	mu       sync.RWMutex
}

// NewEventsHandler creates a new SSE events handler
func NewEventsHandler(eventBus providers.EventBus) *EventsHandler {
	return &EventsHandler{
		eventBus: eventBus,
		clients:  make(map[string]map[chan *entities.AssessmentEvent]bool),
	}
}

// StreamAssessmentUpdates handles SSE connections for all assessment events
// GET /api/assessment/events
func (h *EventsHandler) StreamAssessmentUpdates(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, providers.EventChannelAssessments, map[string]interface{}{
		"channel":   providers.EventChannelAssessments,
		"timestamp": time.Now(),
	})
}

// StreamUserUpdates handles SSE connections for a single user's assessment events
// GET /api/assessment/events/{userId}
func (h *EventsHandler) StreamUserUpdates(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "user ID is required")
		return
	}

	h.stream(w, r, providers.GetUserChannel(userID), map[string]interface{}{
		"user_id":   userID,
		"timestamp": time.Now(),
	})
}

func (h *EventsHandler) stream(w http.ResponseWriter, r *http.Request, channel string, connectedPayload map[string]interface{}) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Create client channel
	clientChan := make(chan *entities.AssessmentEvent, 10)

	// Register client
	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	// Subscribe to events
	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("failed to subscribe to event channel")
		return
	}

	// Send initial connection event
	h.sendEvent(w, "connected", connectedPayload)
	flusher.Flush()

	// Start forwarding events
	go h.forwardEvents(r.Context(), eventChan, clientChan)

	// Keep connection alive and send events
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("channel", channel).Msg("client disconnected from assessment stream")
			return
		case <-ticker.C:
			// Send heartbeat
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event := <-clientChan:
			if event == nil {
				continue
			}
			h.sendEvent(w, event.Type, event)
			flusher.Flush()
		}
	}
}

// forwardEvents forwards events from the event bus to a client channel
func (h *EventsHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.AssessmentEvent, clientChan chan<- *entities.AssessmentEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			select {
			case clientChan <- event:
			default:
				// Client channel full, skip event
			}
		}
	}
}

// registerClient registers a client for a channel
func (h *EventsHandler) registerClient(channel string, clientChan chan *entities.AssessmentEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] == nil {
		h.clients[channel] = make(map[chan *entities.AssessmentEvent]bool)
	}
	h.clients[channel][clientChan] = true
}

// unregisterClient unregisters a client from a channel
func (h *EventsHandler) unregisterClient(channel string, clientChan chan *entities.AssessmentEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[channel]; exists {
		delete(clients, clientChan)

		// Clean up empty channel
		if len(clients) == 0 {
			delete(h.clients, channel)
		}
	}
}

// sendEvent sends an SSE event to the client
func (h *EventsHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of connected clients for debugging
func (h *EventsHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
