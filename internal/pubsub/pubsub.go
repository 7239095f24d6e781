package pubsub

import (
	"strings"
	"sync"

	"github.com/Billy-Davies-2/lottery-draft/internal/logger"
	"github.com/Billy-Davies-2/lottery-draft/internal/models"
)

// Draft event types
const (
	EventPick   = "draft:pick"
	EventRename = "draft:rename"
	EventReset  = "draft:reset"
)

// Event represents a pubsub event
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// PickEvent describes a successful draw
func PickEvent(result models.PickResult) Event {
	return Event{
		Type: EventPick,
		Payload: map[string]any{
			"pick_number":   result.PickNumber,
			"team_name":     result.ChosenTeam.Name,
			"original_name": string(result.ChosenTeam.Key),
			"odds":          result.ChosenTeam.Percentage,
			"is_complete":   result.State.IsComplete,
		},
	}
}

// RenameEvent describes a display name change. The name is trimmed the same
// way the engine stores it.
func RenameEvent(key models.TeamKey, newName string) Event {
	return Event{
		Type: EventRename,
		Payload: map[string]any{
			"original_name": string(key),
			"new_name":      strings.TrimSpace(newName),
		},
	}
}

// ResetEvent describes a reset and the reloaded pool size
func ResetEvent(state models.DraftState) Event {
	return Event{
		Type: EventReset,
		Payload: map[string]any{
			"teams":     len(state.Teams),
			"points_ok": state.Integrity.OK,
		},
	}
}

// Publisher is what the API surfaces need to announce draft changes
type Publisher interface {
	Publish(Event)
}

// Broker is a Publisher that local consumers (SSE, gRPC streams) can
// subscribe to
type Broker interface {
	Publisher
	Subscribe() chan Event
	Unsubscribe(chan Event)
}

// Upstream is a broker that a PubSub bridges to (e.g., NATS)
type Upstream = Broker

// PubSub implements a simple publish-subscribe system
type PubSub struct {
	mu          sync.RWMutex
	subscribers []chan Event
	upstream    Upstream // Optional upstream publisher (e.g., NATS)
}

// New creates a new PubSub instance
func New() *PubSub {
	return &PubSub{
		subscribers: []chan Event{},
	}
}

// NewWithUpstream creates a PubSub that bridges to an upstream publisher.
// Publish sends events to the upstream, which broadcasts to all instances;
// events from the upstream are forwarded to local subscribers.
func NewWithUpstream(upstream Upstream) *PubSub {
	ps := &PubSub{
		subscribers: []chan Event{},
		upstream:    upstream,
	}

	ch := upstream.Subscribe()
	go func() {
		logger.Debug("PubSub: Subscribed to upstream, waiting for events")
		for event := range ch {
			logger.Debug("PubSub: Received event from upstream, forwarding to local", "type", event.Type)
			ps.publishLocal(event)
		}
		logger.Debug("PubSub: Upstream channel closed")
	}()

	return ps
}

// Subscribe adds a new subscriber and returns a channel for receiving events
func (ps *PubSub) Subscribe() chan Event {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ch := make(chan Event, 10)
	ps.subscribers = append(ps.subscribers, ch)
	logger.Debug("PubSub: New subscriber added", "totalSubscribers", len(ps.subscribers))
	return ch
}

// Unsubscribe removes a subscriber and closes its channel
func (ps *PubSub) Unsubscribe(ch chan Event) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for i, sub := range ps.subscribers {
		if sub == ch {
			close(ch)
			ps.subscribers = append(ps.subscribers[:i], ps.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers. With an upstream configured the
// event only goes to the upstream, which broadcasts it back to every
// instance including this one.
func (ps *PubSub) Publish(event Event) {
	if ps.upstream != nil {
		logger.Debug("PubSub: Forwarding to upstream", "type", event.Type)
		ps.upstream.Publish(event)
		return
	}

	logger.Debug("PubSub: Publishing locally (no upstream)", "type", event.Type)
	ps.publishLocal(event)
}

// publishLocal sends an event to local subscribers only. The read lock is
// held while sending so Unsubscribe cannot close a channel mid-send.
func (ps *PubSub) publishLocal(event Event) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	fanOut(ps.subscribers, event)
}

// fanOut delivers without blocking; full subscribers miss the event
func fanOut(subs []chan Event, event Event) int {
	dropped := 0
	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		logger.Warn("PubSub: Skipping slow subscribers", "type", event.Type, "dropped", dropped)
	}
	return dropped
}

// SubscriberCount returns the number of active local subscribers
func (ps *PubSub) SubscriberCount() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers)
}
