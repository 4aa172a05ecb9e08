/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package selection owns the per-view selection caches and keeps linked and
// follower views consistent. All calls run on the host's event thread; the
// only cross-view channel is the typed Stream.
package selection

// Stream is a synchronous typed event channel. Handlers run in subscription
// order on the emitting goroutine.
type Stream[T any] struct {
	next int
	subs []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it.
func (s *Stream[T]) Subscribe(fn func(T)) (cancel func()) {
	s.next++
	id := s.next
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers v to the handlers registered at the time of the call.
func (s *Stream[T]) Emit(v T) {
	subs := s.subs
	for _, sub := range subs {
		sub.fn(v)
	}
}

// Len returns the number of handlers.
func (s *Stream[T]) Len() int { return len(s.subs) }
