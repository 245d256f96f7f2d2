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

// Package ringbuffer provides a fixed-capacity, thread-safe circular buffer.
// Once full, each Add overwrites the oldest item.
package ringbuffer

import "sync"

// RingBuffer holds at most Cap() items of type T.
type RingBuffer[T any] struct {
	items []T
	head  int // next write position
	count int
	mu    sync.RWMutex
}

// New creates a ring buffer holding up to size items. Sizes below one are
// raised to one.
func New[T any](size int) *RingBuffer[T] {
	if size < 1 {
		size = 1
	}
	return &RingBuffer[T]{items: make([]T, size)}
}

// Add appends item, overwriting the oldest entry when the buffer is full.
func (rb *RingBuffer[T]) Add(item T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.items[rb.head] = item
	rb.head = (rb.head + 1) % len(rb.items)
	if rb.count < len(rb.items) {
		rb.count++
	}
}

// GetLast returns up to n of the most recent items, oldest first.
// A non-positive n returns every stored item.
//
//	rb.Add("a"); rb.Add("b"); rb.Add("c")
//	rb.GetLast(2) // ["b", "c"]
func (rb *RingBuffer[T]) GetLast(n int) []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if n <= 0 || n > rb.count {
		n = rb.count
	}

	size := len(rb.items)
	start := (rb.head - n + size) % size

	result := make([]T, n)
	for i := range result {
		result[i] = rb.items[(start+i)%size]
	}
	return result
}

// Len returns the number of stored items.
func (rb *RingBuffer[T]) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

// Cap returns the buffer capacity.
func (rb *RingBuffer[T]) Cap() int {
	return len(rb.items)
}
