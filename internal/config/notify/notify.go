// Package notify delivers setting change events to observers.
//
// Observers subscribe to every change or to a path prefix. Delivery is
// synchronous, in subscription order, on the goroutine that applied the
// setting.
package notify

import (
	"strings"
	"sync"
)

// ChangeType represents the type of configuration change.
type ChangeType int

const (
	// ChangeSet indicates a value was set or updated.
	ChangeSet ChangeType = iota

	// ChangeReload indicates a configuration source was reloaded.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change is one configuration change.
type Change struct {
	// Path is the dotted setting path. Empty for reload events.
	Path string

	Type     ChangeType
	OldValue any
	NewValue any

	// Source identifies where the change came from ("api", "file", ...).
	Source string
}

// Observer is called for each matching change.
type Observer func(change Change)

type entry struct {
	id       uint64
	path     string
	observer Observer
}

// Subscription is an active observer registration.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes the observer. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.notifier != nil {
		s.notifier.remove(s.id)
	}
}

// Notifier fans changes out to observers.
type Notifier struct {
	mu      sync.RWMutex
	entries []entry
	nextID  uint64
	closed  bool
}

// New creates a notifier.
func New() *Notifier {
	return &Notifier{}
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	return n.SubscribePath("", observer)
}

// SubscribePath registers an observer for path and its children:
// "editor" receives "editor.typewriterMode". Reload events reach every
// observer.
func (n *Notifier) SubscribePath(path string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	n.entries = append(n.entries, entry{id: n.nextID, path: path, observer: observer})
	return &Subscription{id: n.nextID, notifier: n}
}

// Notify delivers change to the matching observers.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	var targets []Observer
	for _, e := range n.entries {
		if change.Type == ChangeReload || matches(e.path, change.Path) {
			targets = append(targets, e.observer)
		}
	}
	n.mu.RUnlock()

	for _, obs := range targets {
		obs(change)
	}
}

// NotifySet publishes a set change.
func (n *Notifier) NotifySet(path string, oldValue, newValue any, source string) {
	n.Notify(Change{
		Path:     path,
		Type:     ChangeSet,
		OldValue: oldValue,
		NewValue: newValue,
		Source:   source,
	})
}

// NotifyReload publishes a reload event.
func (n *Notifier) NotifyReload(source string) {
	n.Notify(Change{Type: ChangeReload, Source: source})
}

// Close drops every observer. Later notifications are ignored.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.entries = nil
}

func (n *Notifier) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, e := range n.entries {
		if e.id == id {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			return
		}
	}
}

func matches(prefix, path string) bool {
	if prefix == "" || prefix == path {
		return true
	}
	return strings.HasPrefix(path, prefix) && path[len(prefix)] == '.'
}
