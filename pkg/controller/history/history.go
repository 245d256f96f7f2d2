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

// Package history keeps the outcome of recent polling cycles in memory and
// serves them as JSON for debugging.
package history

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"caddy-uptime-source/pkg/controller/events"
	busevents "caddy-uptime-source/pkg/events"
	"caddy-uptime-source/pkg/events/ringbuffer"
)

// DefaultSize is the number of cycles kept when no size is given.
const DefaultSize = 100

// maxPending bounds the cycles tracked between their start and finish events.
// Cycles of one poller never overlap; the slack covers a reload handing over
// to a new poller and finish events dropped by a full subscriber buffer.
const maxPending = 8

// Cycle results.
const (
	ResultCompleted = "completed"
	ResultFailed    = "failed"
	ResultSkipped   = "skipped"
)

// Record summarizes one finished cycle.
type Record struct {
	CycleID    string    `json:"cycle_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Result     string    `json:"result"`
	Phase      string    `json:"phase,omitempty"`
	Error      string    `json:"error,omitempty"`
	Hosts      int       `json:"hosts"`
	Entities   int       `json:"entities"`
	Skipped    int       `json:"skipped"`
	DurationMs int64     `json:"duration_ms"`
}

// Component records finished cycles from the event bus.
//
// Lifecycle matches the metrics component: NewComponent() → Start() →
// eventBus.Start() → Run().
type Component struct {
	buffer    *ringbuffer.RingBuffer[Record]
	eventBus  *busevents.EventBus
	eventChan <-chan busevents.Event

	// started maps in-flight cycle ids to their start time. Only Run touches
	// it; it never holds more than maxPending entries.
	started map[string]time.Time
}

// NewComponent creates a history of the last size cycles.
func NewComponent(size int, eventBus *busevents.EventBus) *Component {
	if size <= 0 {
		size = DefaultSize
	}

	return &Component{
		buffer:   ringbuffer.New[Record](size),
		eventBus: eventBus,
		started:  make(map[string]time.Time),
	}
}

// Start subscribes to the event bus.
func (c *Component) Start() {
	c.eventChan = c.eventBus.Subscribe(100)
}

// Run records cycles until ctx is cancelled.
func (c *Component) Run(ctx context.Context) error {
	if c.eventChan == nil {
		panic("Component.Start() must be called before Run()")
	}

	for {
		select {
		case event := <-c.eventChan:
			c.handleEvent(event)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Last returns up to n records, oldest first. n <= 0 returns all.
func (c *Component) Last(n int) []Record {
	return c.buffer.GetLast(n)
}

// ServeHTTP writes the recorded cycles as a JSON array, oldest first.
// The optional "limit" query parameter bounds the number of records.
func (c *Component) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(c.Last(limit))
}

func (c *Component) handleEvent(event busevents.Event) {
	switch e := event.(type) {
	case *events.CycleStartedEvent:
		c.track(e.CycleID, e.Timestamp())

	case *events.CycleCompletedEvent:
		c.finish(e.CycleID, e.Timestamp(), Record{
			Result:     ResultCompleted,
			Hosts:      e.Hosts,
			Entities:   e.Entities,
			Skipped:    e.Skipped,
			DurationMs: e.Duration.Milliseconds(),
		})

	case *events.CycleFailedEvent:
		c.finish(e.CycleID, e.Timestamp(), Record{
			Result:     ResultFailed,
			Phase:      e.Phase,
			Error:      e.Error,
			DurationMs: e.Duration.Milliseconds(),
		})

	case *events.CycleSkippedEvent:
		c.finish(e.CycleID, e.Timestamp(), Record{
			Result: ResultSkipped,
			Error:  e.Reason,
		})
	}
}

// track remembers a cycle start, evicting the oldest pending start when the
// table is full.
func (c *Component) track(cycleID string, startedAt time.Time) {
	if len(c.started) >= maxPending {
		var oldestID string
		var oldest time.Time
		for id, at := range c.started {
			if oldestID == "" || at.Before(oldest) {
				oldestID, oldest = id, at
			}
		}
		delete(c.started, oldestID)
	}
	c.started[cycleID] = startedAt
}

func (c *Component) finish(cycleID string, finishedAt time.Time, record Record) {
	record.CycleID = cycleID
	record.FinishedAt = finishedAt
	record.StartedAt = finishedAt.Add(-time.Duration(record.DurationMs) * time.Millisecond)
	if started, ok := c.started[cycleID]; ok {
		record.StartedAt = started
		delete(c.started, cycleID)
	}

	c.buffer.Add(record)
}
