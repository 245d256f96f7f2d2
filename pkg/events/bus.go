// Copyright 2025 Philipp Hossner
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package events provides the in-process event bus that connects the poller
// with its observers (metrics, cycle history).
//
// Publishing is fire-and-forget: observers never slow down a polling cycle.
package events

import (
	"sync"
	"time"
)

// Event is the base interface for all events in the system.
type Event interface {
	// EventType returns a unique identifier for this event type.
	// Convention: dot-notation like "cycle.completed" or "caddy.fetch.failed".
	EventType() string

	// Timestamp returns when this event occurred.
	Timestamp() time.Time
}

// EventBus fans events out to all subscribers.
//
// Events published before Start() are buffered and replayed on Start(), so
// components may publish during construction before every observer has
// subscribed.
//
// EventBus is safe for concurrent use.
type EventBus struct {
	subscribers []chan Event
	mu          sync.RWMutex

	started        bool
	startMu        sync.Mutex
	preStartBuffer []Event
}

// NewEventBus creates a new EventBus in buffering mode.
// capacity is the initial size of the pre-start buffer.
func NewEventBus(capacity int) *EventBus {
	return &EventBus{
		subscribers:    make([]chan Event, 0),
		preStartBuffer: make([]Event, 0, capacity),
	}
}

// Publish sends an event to all subscribers.
//
// Before Start() the event is buffered and 0 is returned. Afterwards the
// send is non-blocking: a subscriber whose channel is full misses the event.
// Returns the number of subscribers that received the event.
func (b *EventBus) Publish(event Event) int {
	b.startMu.Lock()
	if !b.started {
		b.preStartBuffer = append(b.preStartBuffer, event)
		b.startMu.Unlock()
		return 0
	}
	b.startMu.Unlock()

	b.mu.RLock()
	defer b.mu.RUnlock()

	return deliver(b.subscribers, event)
}

// Subscribe returns a channel receiving every event published to the bus.
//
// The channel is never closed. Subscribers must drain it continuously;
// bufferSize bounds how far a subscriber may lag before events are dropped.
func (b *EventBus) Subscribe(bufferSize int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, bufferSize)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Start replays buffered events in publish order and switches the bus to
// direct delivery. Calling Start more than once has no effect.
//
// Example:
//
//	bus := events.NewEventBus(100)
//	metricsComponent.Start()   // subscribes
//	historyComponent.Start()   // subscribes
//	bus.Start()
func (b *EventBus) Start() {
	b.startMu.Lock()
	defer b.startMu.Unlock()

	if b.started {
		return
	}
	b.started = true

	if len(b.preStartBuffer) == 0 {
		return
	}

	b.mu.RLock()
	subscribers := b.subscribers
	b.mu.RUnlock()

	for _, event := range b.preStartBuffer {
		deliver(subscribers, event)
	}
	b.preStartBuffer = nil
}

// deliver performs a non-blocking send to every channel.
func deliver(subscribers []chan Event, event Event) int {
	sent := 0
	for _, ch := range subscribers {
		select {
		case ch <- event:
			sent++
		default:
			// subscriber lagging
		}
	}
	return sent
}
