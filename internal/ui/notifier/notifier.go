// Package notifier fans out server-side events to SSE listeners.
package notifier

import "sync"

// Event topics.
const (
	TopicAuth    = "auth"
	TopicCatalog = "catalog"
)

// Event is one notification. Subject scopes it, e.g. an account id for
// auth events; empty means everyone.
type Event struct {
	Topic   string
	Subject string
	Kind    string
}

// Notifier broadcasts events to all subscribed listeners.
// Listeners filter by topic and subject themselves.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Event]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel that receives events.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe() chan Event {
	ch := make(chan Event, 8)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan Event) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Broadcast sends ev to all listeners.
// Non-blocking: if a listener's channel is full, the event is skipped.
func (n *Notifier) Broadcast(ev Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Matches reports whether ev is for topic and, when subject is set on the
// event, for subject.
func (ev Event) Matches(topic, subject string) bool {
	if ev.Topic != topic {
		return false
	}
	return ev.Subject == "" || ev.Subject == subject
}
