/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateID is a fatal cache violation on an originating add.
	ErrDuplicateID = errors.New("selection: duplicate id")
	ErrNotFound    = errors.New("selection: entity not found")
)

// Cache is an insertion-ordered collection keyed by entity id.
type Cache[T any] struct {
	key   func(T) uuid.UUID
	order []uuid.UUID
	items map[uuid.UUID]T
}

func NewCache[T any](key func(T) uuid.UUID) *Cache[T] {
	return &Cache[T]{key: key, items: map[uuid.UUID]T{}}
}

// Add inserts v; an existing id is rejected with ErrDuplicateID.
func (c *Cache[T]) Add(v T) error {
	id := c.key(v)
	if _, ok := c.items[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	c.items[id] = v
	c.order = append(c.order, id)
	return nil
}

func (c *Cache[T]) Get(id uuid.UUID) (T, bool) {
	v, ok := c.items[id]
	return v, ok
}

func (c *Cache[T]) Has(id uuid.UUID) bool {
	_, ok := c.items[id]
	return ok
}

// Update applies fn to the stored entity in place.
func (c *Cache[T]) Update(id uuid.UUID, fn func(*T)) bool {
	v, ok := c.items[id]
	if !ok {
		return false
	}
	fn(&v)
	c.items[id] = v
	return true
}

// Remove deletes id and returns the removed entity.
func (c *Cache[T]) Remove(id uuid.UUID) (T, bool) {
	v, ok := c.items[id]
	if !ok {
		return v, false
	}
	delete(c.items, id)
	for i, o := range c.order {
		if o == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return v, true
}

func (c *Cache[T]) Len() int { return len(c.order) }

// All returns the entities in insertion order.
func (c *Cache[T]) All() []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

func (c *Cache[T]) Clear() {
	c.order = nil
	c.items = map[uuid.UUID]T{}
}
