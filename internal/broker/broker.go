// Package broker fans out domain events to live subscriber connections,
// keyed by household. Delivery is best-effort: publication happens after the
// triggering mutation has committed, and a slow or dead subscriber can never
// fail or roll back that mutation.
package broker

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/roomly/roomly/internal/apperr"
)

const (
	// MaxConnectionsPerUser caps simultaneous stream connections one user
	// may hold to a single household.
	MaxConnectionsPerUser = 3

	// ReconnectHint is the retry interval sent to clients in the hello event.
	ReconnectHint = 3 * time.Second

	sendBufferSize = 16
)

// Subscription is one registered stream connection.
type Subscription struct {
	ID          string
	HouseholdID int64
	UserID      int64
	send        chan []byte
}

// C returns the channel the connection's write pump drains.
func (s *Subscription) C() <-chan []byte {
	return s.send
}

// Broker maintains per-household subscriber registries and broadcasts events.
type Broker struct {
	mu         sync.RWMutex
	households map[int64]map[string]*Subscription
	logger     *slog.Logger
}

func New(logger *slog.Logger) *Broker {
	return &Broker{
		households: make(map[int64]map[string]*Subscription),
		logger:     logger,
	}
}

// Subscribe registers a connection and queues the hello event on it.
// Returns a rate-limited error when the user already holds
// MaxConnectionsPerUser connections for this household.
func (b *Broker) Subscribe(householdID, userID int64, connectionID string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.households[householdID]
	var held int
	for _, s := range subs {
		if s.UserID == userID {
			held++
		}
	}
	if held >= MaxConnectionsPerUser {
		return nil, apperr.RateLimited("user %d already holds %d stream connections for household %d", userID, held, householdID)
	}

	sub := &Subscription{
		ID:          connectionID,
		HouseholdID: householdID,
		UserID:      userID,
		send:        make(chan []byte, sendBufferSize),
	}
	if subs == nil {
		subs = make(map[string]*Subscription)
		b.households[householdID] = subs
	}
	subs[connectionID] = sub

	hello, err := json.Marshal(NewHello(connectionID, ReconnectHint))
	if err == nil {
		sub.send <- hello
	}

	b.logger.Debug("stream subscribed",
		"household_id", householdID, "user_id", userID, "connection_id", connectionID)
	return sub, nil
}

// Unsubscribe removes a connection and closes its send channel. Idempotent.
func (b *Broker) Unsubscribe(householdID int64, connectionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.households[householdID]
	sub, ok := subs[connectionID]
	if !ok {
		return
	}
	delete(subs, connectionID)
	if len(subs) == 0 {
		delete(b.households, householdID)
	}
	close(sub.send)

	b.logger.Debug("stream unsubscribed",
		"household_id", householdID, "connection_id", connectionID)
}

// Publish delivers the event to every registered connection for the
// household, in publish order, dropping it for subscribers whose buffer is
// full rather than blocking.
func (b *Broker) Publish(householdID int64, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("marshal event", "type", ev.Type, "error", err)
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.households[householdID] {
		select {
		case sub.send <- data:
		default:
			// Subscriber too slow; it catches up from a state fetch on reconnect
		}
	}
}

// SubscriberCount returns the number of connections for a household.
func (b *Broker) SubscriberCount(householdID int64) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.households[householdID])
}
