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

package metrics

import (
	"context"

	"caddy-uptime-source/pkg/controller/events"
	pkgevents "caddy-uptime-source/pkg/events"
)

// Component translates controller events into metric updates.
//
// Lifecycle: NewComponent() → Start() → eventBus.Start() → Run()
//   - Start() must be called before eventBus.Start() so replayed events are seen
//   - Run() blocks until the context is cancelled
type Component struct {
	metrics   *Metrics
	eventBus  *pkgevents.EventBus
	eventChan <-chan pkgevents.Event
}

// NewComponent creates a metrics component for the given bus.
//
//	registry := prometheus.NewRegistry()
//	component := metrics.NewComponent(metrics.New(registry), bus)
//	component.Start()
//	bus.Start()
//	go component.Run(ctx)
func NewComponent(metrics *Metrics, eventBus *pkgevents.EventBus) *Component {
	return &Component{
		metrics:  metrics,
		eventBus: eventBus,
	}
}

// Start subscribes to the event bus.
func (c *Component) Start() {
	c.eventChan = c.eventBus.Subscribe(200)
}

// Run processes events until ctx is cancelled.
// Start() must be called first.
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

// Metrics returns the underlying Metrics instance.
func (c *Component) Metrics() *Metrics {
	return c.metrics
}

func (c *Component) handleEvent(event pkgevents.Event) {
	c.metrics.RecordEvent(event.EventType())

	switch e := event.(type) {
	case *events.CycleCompletedEvent:
		c.metrics.RecordCycleCompleted(e.Duration, e.Hosts, e.Entities, e.Timestamp())

	case *events.CycleFailedEvent:
		c.metrics.RecordCycleFailed(e.Duration, e.Phase)

	case *events.CycleSkippedEvent:
		c.metrics.RecordCycleSkipped()

	case *events.EntityBuildFailedEvent:
		c.metrics.RecordEntityError()

	case *events.ConfigReloadedEvent:
		c.metrics.RecordConfigReload(true)

	case *events.ConfigInvalidEvent:
		c.metrics.RecordConfigReload(false)
	}
}
