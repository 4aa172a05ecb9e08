/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package palette allocates display colors from a bounded palette.
package palette

import "errors"

// ErrExhausted signals that every palette entry is in use and nothing could
// be reclaimed. The accompanying value is the last palette entry.
var ErrExhausted = errors.New("palette: exhausted")

// Sequencer hands out items from a fixed ordered list. Fresh items come first
// in list order; once the cursor passes the end, items released via Delete
// are reused in list order.
//
// Sequencer is not safe for concurrent use; each view owns one.
type Sequencer[T comparable] struct {
	items  []T
	cursor int
	pulled []T // multiset of handed-out items
}

// NewSequencer returns a Sequencer over a copy of items.
func NewSequencer[T comparable](items []T) *Sequencer[T] {
	return &Sequencer[T]{items: append([]T(nil), items...)}
}

// Next returns the next free item. When nothing is free it returns the last
// item together with ErrExhausted; that item is not recorded as pulled.
func (s *Sequencer[T]) Next() (T, error) {
	var zero T
	if len(s.items) == 0 {
		return zero, ErrExhausted
	}
	if s.cursor < len(s.items) {
		it := s.items[s.cursor]
		s.cursor++
		s.pulled = append(s.pulled, it)
		return it, nil
	}
	for _, it := range s.items {
		if !s.isPulled(it) {
			s.pulled = append(s.pulled, it)
			return it, nil
		}
	}
	return s.items[len(s.items)-1], ErrExhausted
}

// Delete releases one pulled occurrence of item. It reports whether item was
// pulled.
func (s *Sequencer[T]) Delete(item T) bool {
	for i, it := range s.pulled {
		if it == item {
			s.pulled = append(s.pulled[:i], s.pulled[i+1:]...)
			return true
		}
	}
	return false
}

// Reset clears the pulled set and rewinds the cursor.
func (s *Sequencer[T]) Reset() {
	s.pulled = nil
	s.cursor = 0
}

func (s *Sequencer[T]) Len() int { return len(s.items) }

// Pulled returns the number of items currently handed out.
func (s *Sequencer[T]) Pulled() int { return len(s.pulled) }

// Items returns a copy of the palette.
func (s *Sequencer[T]) Items() []T { return append([]T(nil), s.items...) }

func (s *Sequencer[T]) isPulled(item T) bool {
	for _, it := range s.pulled {
		if it == item {
			return true
		}
	}
	return false
}
