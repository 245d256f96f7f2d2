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

// Package configwatcher reloads the configuration file when it changes on
// disk.
//
// The watch is placed on the file's directory rather than the file itself,
// so editors and tools that replace the file via rename are picked up.
// Bursts of filesystem events are coalesced by a short debounce.
package configwatcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"reflect"
	"time"

	"github.com/fsnotify/fsnotify"

	"caddy-uptime-source/pkg/core/config"
	"caddy-uptime-source/pkg/source"
)

// DefaultDebounce is the quiet period after the last filesystem event
// before the file is reloaded.
const DefaultDebounce = 200 * time.Millisecond

// Callbacks receive reload outcomes. Either may be nil.
type Callbacks struct {
	// OnChange is called with a loaded, validated configuration that
	// differs from the previous one.
	OnChange func(cfg *config.Config)

	// OnInvalid is called when the changed file cannot be loaded or fails
	// validation. The previous configuration stays in effect.
	OnInvalid func(err error)
}

// Watcher watches a single configuration file.
type Watcher struct {
	path     string
	debounce time.Duration
	current  *config.Config
	logger   *slog.Logger
}

// New creates a Watcher for path. current is the configuration in effect;
// reloads that produce an identical configuration are ignored.
func New(path string, current *config.Config, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		path:     path,
		debounce: DefaultDebounce,
		current:  current,
		logger:   logger.With("component", "config-watcher"),
	}
}

// Run watches until ctx is cancelled. It returns an error only when the
// watch cannot be established.
func (w *Watcher) Run(ctx context.Context, callbacks Callbacks) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	base := filepath.Base(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.logger.Info("Watching config file", "path", w.path)

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
		} else {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
		}
		timerCh = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			schedule()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watch error", "error", err)

		case <-timerCh:
			timerCh = nil
			w.reload(callbacks)
		}
	}
}

func (w *Watcher) reload(callbacks Callbacks) {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload rejected, keeping current config", "path", w.path, "error", err)
		if callbacks.OnInvalid != nil {
			callbacks.OnInvalid(err)
		}
		return
	}

	if reflect.DeepEqual(cfg, w.current) {
		w.logger.Debug("config file touched but unchanged", "path", w.path)
		return
	}

	w.logger.Info("config file changed", "path", w.path)
	w.current = cfg
	if callbacks.OnChange != nil {
		callbacks.OnChange(cfg)
	}
}

// Load reads, defaults and validates a configuration file.
func Load(path string) (*config.Config, error) {
	cfg, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration values and compiles the monitor
// templates. A configuration that passes can be wired into a source.
func Validate(cfg *config.Config) error {
	if err := config.ValidateStructure(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := source.NewEngine(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
