// Package notifier holds the latest published value and broadcasts a ping to
// SSE listeners whenever it changes.
package notifier

import "sync"

// Notifier stores the most recent value and broadcasts update signals to all
// subscribed listeners. Listeners receive an empty struct and should read
// Latest.
type Notifier[T any] struct {
	mu        sync.RWMutex
	listeners map[chan struct{}]struct{}
	latest    T
	version   uint64
}

// New creates a Notifier holding initial as version 1.
func New[T any](initial T) *Notifier[T] {
	return &Notifier[T]{
		listeners: make(map[chan struct{}]struct{}),
		latest:    initial,
		version:   1,
	}
}

// Subscribe returns a channel that receives pings when updates are available.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier[T]) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier[T]) Unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Latest returns the current value and its version.
func (n *Notifier[T]) Latest() (T, uint64) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.latest, n.version
}

// Publish replaces the current value and pings every listener.
func (n *Notifier[T]) Publish(v T) {
	n.mu.Lock()
	n.latest = v
	n.version++
	n.mu.Unlock()
	n.Broadcast()
}

// Broadcast sends a ping to all listeners.
// Non-blocking: if a listener's channel is full, the ping is skipped.
func (n *Notifier[T]) Broadcast() {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- struct{}{}:
		default:
			// Channel full, the listener will read Latest on its pending ping
		}
	}
}
