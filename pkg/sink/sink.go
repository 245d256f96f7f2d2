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

package sink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"caddy-uptime-source/pkg/entity"
)

// FileSink replaces a snapshot file atomically: readers see either the
// previous snapshot or the new one, never a partial write.
type FileSink struct {
	path   string
	format string
	source string
	now    func() time.Time
	logger *slog.Logger
}

// NewFileSink creates a sink writing snapshots for source to path.
func NewFileSink(path, format, source string, logger *slog.Logger) *FileSink {
	if logger == nil {
		logger = slog.Default()
	}

	return &FileSink{
		path:   path,
		format: format,
		source: source,
		now:    time.Now,
		logger: logger.With("component", "file-sink"),
	}
}

// Target returns the snapshot path.
func (s *FileSink) Target() string {
	return s.path
}

// Write encodes the pairs and swaps the snapshot file in place.
func (s *FileSink) Write(ctx context.Context, pairs []entity.Pair) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Encode(NewSnapshot(s.source, pairs, s.now()), s.format)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", s.path, err)
	}

	s.logger.Debug("snapshot written", "path", s.path, "entities", len(pairs), "bytes", len(data))
	return nil
}

func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	keepTemp := false
	defer func() {
		_ = tmp.Close()
		if !keepTemp {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(mode); err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	keepTemp = true

	return nil
}

// WriterSink streams each snapshot to an io.Writer, e.g. stdout. Consecutive
// snapshots stay separable: JSON is written one document per line, YAML
// documents start with "---".
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	name   string
	format string
	source string
	now    func() time.Time
}

// NewWriterSink creates a sink writing snapshots to w. name is reported by
// Target.
func NewWriterSink(w io.Writer, name, format, source string) *WriterSink {
	return &WriterSink{
		w:      w,
		name:   name,
		format: format,
		source: source,
		now:    time.Now,
	}
}

// Target returns the writer name.
func (s *WriterSink) Target() string {
	return s.name
}

// Write encodes the pairs and writes the document in a single call.
func (s *WriterSink) Write(ctx context.Context, pairs []entity.Pair) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := EncodeStream(NewSnapshot(s.source, pairs, s.now()), s.format)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("failed to write snapshot to %s: %w", s.name, err)
	}
	return nil
}

// New returns a FileSink when path is set and a WriterSink on stdout
// otherwise.
func New(path, format, source string, stdout io.Writer, logger *slog.Logger) Sink {
	if path == "" {
		return NewWriterSink(stdout, "stdout", format, source)
	}
	return NewFileSink(path, format, source, logger)
}
