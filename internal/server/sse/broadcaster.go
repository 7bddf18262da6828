// Package sse provides Server-Sent Events delivery of session events.
package sse

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/prompterhq/prompter/internal/events"
)

const (
	// WriteTimeout is the timeout for writing to SSE clients.
	// Prevents blocking on stale connections.
	WriteTimeout = 2 * time.Second
)

// Client represents a connected SSE client subscribed to one session.
type Client struct {
	Writer    http.ResponseWriter
	Flusher   http.Flusher
	Done      chan struct{}
	ID        string
	SessionID string
}

// Broadcaster manages SSE client connections grouped by session and
// implements events.Sink.
type Broadcaster struct {
	clients map[string]map[string]*Client // sessionID -> clientID -> client
	mu      sync.RWMutex
	nextID  int
}

// NewBroadcaster creates a new SSE broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]map[string]*Client),
	}
}

// AddClient registers a new SSE client for a session.
func (b *Broadcaster) AddClient(w http.ResponseWriter, sessionID string) (*Client, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	b.mu.Lock()
	b.nextID++
	id := fmt.Sprintf("client-%d", b.nextID)
	client := &Client{
		ID:        id,
		SessionID: sessionID,
		Writer:    w,
		Flusher:   flusher,
		Done:      make(chan struct{}),
	}
	if b.clients[sessionID] == nil {
		b.clients[sessionID] = make(map[string]*Client)
	}
	b.clients[sessionID][id] = client
	clientCount := len(b.clients[sessionID])
	b.mu.Unlock()

	log.Debug().
		Str("clientId", id).
		Str("sessionId", sessionID).
		Int("sessionClients", clientCount).
		Msg("SSE client connected")

	return client, nil
}

// RemoveClient removes a client connection. Safe to call after dead-client
// cleanup already removed the client.
func (b *Broadcaster) RemoveClient(client *Client) {
	if _, claimed := b.claimRemoval(client.SessionID, client.ID); !claimed {
		return
	}

	close(client.Done)

	log.Debug().
		Str("clientId", client.ID).
		Str("sessionId", client.SessionID).
		Msg("SSE client disconnected")
}

// removeClientByID removes a client by ID (for dead client cleanup).
func (b *Broadcaster) removeClientByID(sessionID, id string) {
	client, claimed := b.claimRemoval(sessionID, id)
	if !claimed {
		return
	}

	close(client.Done)

	log.Debug().
		Str("clientId", id).
		Str("sessionId", sessionID).
		Msg("Dead SSE client removed")
}

// claimRemoval deletes the client's map entry and reports whether this call
// performed the deletion. The caller that claims the removal owns the single
// close of the client's Done channel.
func (b *Broadcaster) claimRemoval(sessionID, id string) (*Client, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	client, exists := b.clients[sessionID][id]
	if !exists {
		return nil, false
	}
	delete(b.clients[sessionID], id)
	if len(b.clients[sessionID]) == 0 {
		delete(b.clients, sessionID)
	}
	return client, true
}

// Publish sends an event to every client subscribed to the session.
// Uses non-blocking writes with timeout to prevent stale connections from
// blocking. Implements events.Sink.
func (b *Broadcaster) Publish(sessionID string, event events.Event) {
	jsonData, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE event")
		return
	}

	message := fmt.Sprintf("data: %s\n\n", jsonData)

	b.mu.RLock()
	clients := make([]*Client, 0, len(b.clients[sessionID]))
	for _, client := range b.clients[sessionID] {
		clients = append(clients, client)
	}
	b.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	// Collect dead clients from concurrent writes
	deadClientsCh := make(chan string, len(clients))
	var wg sync.WaitGroup

	for _, client := range clients {
		select {
		case <-client.Done:
			continue
		default:
			wg.Add(1)
			go func(c *Client) {
				defer wg.Done()
				b.writeToClient(c, message, deadClientsCh)
			}(client)
		}
	}

	wg.Wait()
	close(deadClientsCh)

	for clientID := range deadClientsCh {
		b.removeClientByID(sessionID, clientID)
	}
}

// writeToClient writes a message to a single client with timeout.
func (b *Broadcaster) writeToClient(client *Client, message string, deadCh chan<- string) {
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, err := client.Writer.Write([]byte(message))
		if err != nil {
			log.Debug().
				Str("clientId", client.ID).
				Err(err).
				Msg("Failed to write to SSE client, marking for removal")
			deadCh <- client.ID
			return
		}
		client.Flusher.Flush()
	}()

	select {
	case <-done:
		// Write completed successfully
	case <-time.After(WriteTimeout):
		log.Warn().
			Str("clientId", client.ID).
			Dur("timeout", WriteTimeout).
			Msg("SSE write timed out, marking client for removal")
		deadCh <- client.ID
	case <-client.Done:
		// Client disconnected during write
	}
}

// ClientCount returns the number of clients subscribed to a session.
func (b *Broadcaster) ClientCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[sessionID])
}

// HandleSSE handles an SSE connection request for one session.
func (b *Broadcaster) HandleSSE(w http.ResponseWriter, r *http.Request, sessionID string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	client, err := b.AddClient(w, sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer b.RemoveClient(client)

	// Send initial connection message
	fmt.Fprintf(w, "data: {\"type\":\"connected\",\"clientId\":\"%s\"}\n\n", client.ID)
	client.Flusher.Flush()

	// Wait for client disconnect
	<-r.Context().Done()
}
