package notify

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/metrics"
)

// ClientBuffer is the number of events queued per client before new events
// are dropped for it.
const ClientBuffer = 32

type client struct {
	userID string
	events chan Event
}

// Broadcaster fans events out to every stream a user has open.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[string]*client
	byUser  map[string]map[string]*client
	dropped atomic.Int64
	log     *zap.Logger
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster(log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]*client),
		byUser:  make(map[string]map[string]*client),
		log:     log.With(zap.String("module", "notify")),
	}
}

// Subscribe registers a stream for userID and returns its client id and
// event channel. The channel is closed by Unsubscribe.
func (b *Broadcaster) Subscribe(userID string) (string, <-chan Event) {
	c := &client{userID: userID, events: make(chan Event, ClientBuffer)}
	id := uuid.NewString()

	b.mu.Lock()
	b.clients[id] = c
	if b.byUser[userID] == nil {
		b.byUser[userID] = make(map[string]*client)
	}
	b.byUser[userID][id] = c
	b.mu.Unlock()

	metrics.StreamClients.Inc()
	b.log.Debug("stream client registered", zap.String("client_id", id), zap.String("user_id", userID))
	return id, c.events
}

// Unsubscribe removes a client and closes its channel. Unknown ids are
// ignored.
func (b *Broadcaster) Unsubscribe(clientID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.clients[clientID]
	if !ok {
		return
	}
	delete(b.clients, clientID)
	if peers := b.byUser[c.userID]; peers != nil {
		delete(peers, clientID)
		if len(peers) == 0 {
			delete(b.byUser, c.userID)
		}
	}
	close(c.events)
	metrics.StreamClients.Dec()
	b.log.Debug("stream client removed", zap.String("client_id", clientID))
}

// Publish queues e for every client of userID without blocking and returns
// how many clients received it. Clients with a full buffer are skipped.
func (b *Broadcaster) Publish(userID string, e Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	delivered := 0
	for id, c := range b.byUser[userID] {
		select {
		case c.events <- e:
			delivered++
		default:
			b.dropped.Add(1)
			b.log.Warn("stream client buffer full, event dropped",
				zap.String("client_id", id), zap.String("event_type", e.Type))
		}
	}
	return delivered
}

// Notify encodes payload as an event of eventType and publishes it.
func (b *Broadcaster) Notify(userID, eventType string, payload interface{}) int {
	e, err := NewEvent(eventType, payload)
	if err != nil {
		b.log.Error("notification dropped", zap.Error(err))
		return 0
	}
	return b.Publish(userID, e)
}

// Stats summarizes the connected clients.
type Stats struct {
	Clients int   `json:"clients"`
	Users   int   `json:"users"`
	Dropped int64 `json:"dropped_events"`
}

// Stats reports client counts and the number of dropped events.
func (b *Broadcaster) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Stats{Clients: len(b.clients), Users: len(b.byUser), Dropped: b.dropped.Load()}
}

// Close disconnects every client.
func (b *Broadcaster) Close() {
	b.mu.RLock()
	ids := make([]string, 0, len(b.clients))
	for id := range b.clients {
		ids = append(ids, id)
	}
	b.mu.RUnlock()
	for _, id := range ids {
		b.Unsubscribe(id)
	}
}
