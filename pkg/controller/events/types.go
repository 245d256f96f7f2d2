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

// Package events defines the event types published on the controller's
// event bus.
//
// Events are immutable facts. All fields are exported for observers, the
// timestamp is set by the constructor, and consumers must not modify an
// event after it has been published.
//
// Categories:
//   - Lifecycle events: controller start, shutdown and config reloads
//   - Cycle events: one polling cycle from start to completion or failure
//   - Source events: problems inside a cycle (fetch failures, skipped hosts)
//   - Sink events: snapshot hand-off
package events

import "time"

// -----------------------------------------------------------------------------
// Event Type Constants
// -----------------------------------------------------------------------------

const (
	// Lifecycle event types.
	EventTypeControllerStarted  = "controller.started"
	EventTypeControllerShutdown = "controller.shutdown"
	EventTypeConfigReloaded     = "config.reloaded"
	EventTypeConfigInvalid      = "config.invalid"

	// Cycle event types.
	EventTypeCycleStarted   = "cycle.started"
	EventTypeCycleCompleted = "cycle.completed"
	EventTypeCycleFailed    = "cycle.failed"
	EventTypeCycleSkipped   = "cycle.skipped"

	// Source event types.
	EventTypeConfigFetchFailed = "caddy.fetch.failed"
	EventTypeEntityBuildFailed = "entity.build.failed"

	// Sink event types.
	EventTypeSnapshotWritten = "snapshot.written"
)

// Cycle failure phases.
const (
	PhaseFetch = "fetch"
	PhaseSink  = "sink"
)

// -----------------------------------------------------------------------------
// Lifecycle Events
// -----------------------------------------------------------------------------

// ControllerStartedEvent is published once all components of a controller
// iteration are running.
type ControllerStartedEvent struct {
	SourceName   string
	PollInterval time.Duration
	timestamp    time.Time
}

// NewControllerStartedEvent creates a new ControllerStartedEvent.
func NewControllerStartedEvent(sourceName string, pollInterval time.Duration) *ControllerStartedEvent {
	return &ControllerStartedEvent{
		SourceName:   sourceName,
		PollInterval: pollInterval,
		timestamp:    time.Now(),
	}
}

func (e *ControllerStartedEvent) EventType() string    { return EventTypeControllerStarted }
func (e *ControllerStartedEvent) Timestamp() time.Time { return e.timestamp }

// ControllerShutdownEvent is published when a controller iteration stops.
type ControllerShutdownEvent struct {
	Reason    string
	timestamp time.Time
}

// NewControllerShutdownEvent creates a new ControllerShutdownEvent.
func NewControllerShutdownEvent(reason string) *ControllerShutdownEvent {
	return &ControllerShutdownEvent{
		Reason:    reason,
		timestamp: time.Now(),
	}
}

func (e *ControllerShutdownEvent) EventType() string    { return EventTypeControllerShutdown }
func (e *ControllerShutdownEvent) Timestamp() time.Time { return e.timestamp }

// ConfigReloadedEvent is published when a changed configuration file was
// loaded and validated.
type ConfigReloadedEvent struct {
	Path      string
	timestamp time.Time
}

// NewConfigReloadedEvent creates a new ConfigReloadedEvent.
func NewConfigReloadedEvent(path string) *ConfigReloadedEvent {
	return &ConfigReloadedEvent{
		Path:      path,
		timestamp: time.Now(),
	}
}

func (e *ConfigReloadedEvent) EventType() string    { return EventTypeConfigReloaded }
func (e *ConfigReloadedEvent) Timestamp() time.Time { return e.timestamp }

// ConfigInvalidEvent is published when a changed configuration file could not
// be loaded or failed validation. The running configuration stays active.
type ConfigInvalidEvent struct {
	Path      string
	Error     string
	timestamp time.Time
}

// NewConfigInvalidEvent creates a new ConfigInvalidEvent.
func NewConfigInvalidEvent(path string, err error) *ConfigInvalidEvent {
	return &ConfigInvalidEvent{
		Path:      path,
		Error:     errorString(err),
		timestamp: time.Now(),
	}
}

func (e *ConfigInvalidEvent) EventType() string    { return EventTypeConfigInvalid }
func (e *ConfigInvalidEvent) Timestamp() time.Time { return e.timestamp }

// -----------------------------------------------------------------------------
// Cycle Events
// -----------------------------------------------------------------------------

// CycleStartedEvent is published at the beginning of every polling cycle.
type CycleStartedEvent struct {
	CycleID   string
	Source    string
	timestamp time.Time
}

// NewCycleStartedEvent creates a new CycleStartedEvent.
func NewCycleStartedEvent(cycleID, source string) *CycleStartedEvent {
	return &CycleStartedEvent{
		CycleID:   cycleID,
		Source:    source,
		timestamp: time.Now(),
	}
}

func (e *CycleStartedEvent) EventType() string    { return EventTypeCycleStarted }
func (e *CycleStartedEvent) Timestamp() time.Time { return e.timestamp }

// CycleCompletedEvent is published when a cycle produced its entities and
// handed them to the sink.
type CycleCompletedEvent struct {
	CycleID string

	// Hosts is the number of distinct hostnames extracted.
	Hosts int

	// Entities is the number of entities written to the sink.
	Entities int

	// Skipped is the number of hosts dropped because their entity could not be built.
	Skipped int

	Duration  time.Duration
	timestamp time.Time
}

// NewCycleCompletedEvent creates a new CycleCompletedEvent.
func NewCycleCompletedEvent(cycleID string, hosts, entities, skipped int, duration time.Duration) *CycleCompletedEvent {
	return &CycleCompletedEvent{
		CycleID:   cycleID,
		Hosts:     hosts,
		Entities:  entities,
		Skipped:   skipped,
		Duration:  duration,
		timestamp: time.Now(),
	}
}

func (e *CycleCompletedEvent) EventType() string    { return EventTypeCycleCompleted }
func (e *CycleCompletedEvent) Timestamp() time.Time { return e.timestamp }

// CycleFailedEvent is published when a cycle yields nothing. Phase is
// PhaseFetch or PhaseSink.
type CycleFailedEvent struct {
	CycleID   string
	Phase     string
	Error     string
	Duration  time.Duration
	timestamp time.Time
}

// NewCycleFailedEvent creates a new CycleFailedEvent.
func NewCycleFailedEvent(cycleID, phase string, err error, duration time.Duration) *CycleFailedEvent {
	return &CycleFailedEvent{
		CycleID:   cycleID,
		Phase:     phase,
		Error:     errorString(err),
		Duration:  duration,
		timestamp: time.Now(),
	}
}

func (e *CycleFailedEvent) EventType() string    { return EventTypeCycleFailed }
func (e *CycleFailedEvent) Timestamp() time.Time { return e.timestamp }

// CycleSkippedEvent is published instead of a completion when the source is
// disabled.
type CycleSkippedEvent struct {
	CycleID   string
	Reason    string
	timestamp time.Time
}

// NewCycleSkippedEvent creates a new CycleSkippedEvent.
func NewCycleSkippedEvent(cycleID, reason string) *CycleSkippedEvent {
	return &CycleSkippedEvent{
		CycleID:   cycleID,
		Reason:    reason,
		timestamp: time.Now(),
	}
}

func (e *CycleSkippedEvent) EventType() string    { return EventTypeCycleSkipped }
func (e *CycleSkippedEvent) Timestamp() time.Time { return e.timestamp }

// -----------------------------------------------------------------------------
// Source Events
// -----------------------------------------------------------------------------

// ConfigFetchFailedEvent is published when the Caddy admin API could not be
// reached or returned an unusable document.
type ConfigFetchFailedEvent struct {
	URL string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	Error     string
	timestamp time.Time
}

// NewConfigFetchFailedEvent creates a new ConfigFetchFailedEvent.
func NewConfigFetchFailedEvent(url string, statusCode int, err error) *ConfigFetchFailedEvent {
	return &ConfigFetchFailedEvent{
		URL:        url,
		StatusCode: statusCode,
		Error:      errorString(err),
		timestamp:  time.Now(),
	}
}

func (e *ConfigFetchFailedEvent) EventType() string    { return EventTypeConfigFetchFailed }
func (e *ConfigFetchFailedEvent) Timestamp() time.Time { return e.timestamp }

// EntityBuildFailedEvent is published for each host whose entity could not
// be rendered. The host is skipped for the current cycle.
type EntityBuildFailedEvent struct {
	ID        string
	Host      string
	Field     string
	Error     string
	timestamp time.Time
}

// NewEntityBuildFailedEvent creates a new EntityBuildFailedEvent.
func NewEntityBuildFailedEvent(id, host, field string, err error) *EntityBuildFailedEvent {
	return &EntityBuildFailedEvent{
		ID:        id,
		Host:      host,
		Field:     field,
		Error:     errorString(err),
		timestamp: time.Now(),
	}
}

func (e *EntityBuildFailedEvent) EventType() string    { return EventTypeEntityBuildFailed }
func (e *EntityBuildFailedEvent) Timestamp() time.Time { return e.timestamp }

// -----------------------------------------------------------------------------
// Sink Events
// -----------------------------------------------------------------------------

// SnapshotWrittenEvent is published after the sink accepted a cycle's entities.
type SnapshotWrittenEvent struct {
	// Target is the file path, or "stdout" for stream sinks.
	Target    string
	Entities  int
	timestamp time.Time
}

// NewSnapshotWrittenEvent creates a new SnapshotWrittenEvent.
func NewSnapshotWrittenEvent(target string, entities int) *SnapshotWrittenEvent {
	return &SnapshotWrittenEvent{
		Target:    target,
		Entities:  entities,
		timestamp: time.Now(),
	}
}

func (e *SnapshotWrittenEvent) EventType() string    { return EventTypeSnapshotWritten }
func (e *SnapshotWrittenEvent) Timestamp() time.Time { return e.timestamp }

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
