/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interaction

import (
	"math"
	"sort"
	"sync"
	"time"
)

// DefaultDoubleClick is the window in which a second click counts as double.
const DefaultDoubleClick = 300 * time.Millisecond

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the callback; it reports false if it already ran.
	Stop() bool
}

// Scheduler runs f after d on the host's event thread.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// HostScheduler schedules with the wall clock and hands the callback to Post,
// which must run it on the thread that owns the views. A nil Post runs the
// callback on the timer goroutine.
type HostScheduler struct {
	Post func(func())
}

func (h HostScheduler) AfterFunc(d time.Duration, f func()) Timer {
	post := h.Post
	if post == nil {
		return time.AfterFunc(d, f)
	}
	return time.AfterFunc(d, func() { post(f) })
}

// ManualScheduler is a deterministic Scheduler driven by Advance.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*manualTimer
}

type manualTimer struct {
	s   *ManualScheduler
	at  time.Duration
	seq int
	f   func()
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for i, p := range t.s.pending {
		if p == t {
			t.s.pending = append(t.s.pending[:i], t.s.pending[i+1:]...)
			return true
		}
	}
	return false
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTimer{s: s, at: s.now + d, seq: s.seq, f: f}
	s.pending = append(s.pending, t)
	return t
}

// Advance moves the clock forward and runs every due callback in order.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*manualTimer
	keep := s.pending[:0]
	for _, t := range s.pending {
		if t.at <= s.now {
			due = append(due, t)
		} else {
			keep = append(keep, t)
		}
	}
	s.pending = keep
	s.mu.Unlock()
	sort.Slice(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].seq < due[j].seq
	})
	for _, t := range due {
		t.f()
	}
}

// Pending reports the number of armed callbacks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// DoubleClickSlop is how far, in raster pixels along either axis, the second
// press of a double click may land from the first.
const DoubleClickSlop = 1.0

// ClickResolver separates single from double clicks. Click arms a timer for
// a tentative single click; a matching second click inside the window, or
// ConfirmDouble, cancels it and emits the double variant instead. A second
// press that does not match (other button, other modifiers, too far away)
// resolves the pending single at once and starts a new tentative click. A
// single click never fires after its double has been resolved.
type ClickResolver struct {
	sched    Scheduler
	interval time.Duration
	onSingle func(PointerEvent)
	onDouble func(PointerEvent)

	gen     uint64
	timer   Timer
	pending bool
	last    PointerEvent
}

func NewClickResolver(s Scheduler, interval time.Duration, onSingle, onDouble func(PointerEvent)) *ClickResolver {
	if interval <= 0 {
		interval = DefaultDoubleClick
	}
	return &ClickResolver{sched: s, interval: interval, onSingle: onSingle, onDouble: onDouble}
}

// Click records a press. Events flagged Double by the host skip the timer.
func (c *ClickResolver) Click(ev PointerEvent) {
	if ev.Double {
		c.ConfirmDouble(ev)
		return
	}
	if c.pending {
		if pairs(c.last, ev) {
			c.ConfirmDouble(ev)
			return
		}
		prev := c.last
		c.cancel()
		if c.onSingle != nil {
			c.onSingle(prev)
		}
	}
	c.gen++
	gen := c.gen
	c.pending = true
	c.last = ev
	c.timer = c.sched.AfterFunc(c.interval, func() {
		if !c.pending || c.gen != gen {
			return
		}
		c.pending = false
		c.timer = nil
		if c.onSingle != nil {
			c.onSingle(ev)
		}
	})
}

// ConfirmDouble cancels any tentative single click and emits a double.
func (c *ClickResolver) ConfirmDouble(ev PointerEvent) {
	c.cancel()
	ev.Double = true
	if c.onDouble != nil {
		c.onDouble(ev)
	}
}

// pairs reports whether b completes a double click started by a.
func pairs(a, b PointerEvent) bool {
	return a.Button == b.Button && a.Mods == b.Mods &&
		math.Abs(a.Pos.X-b.Pos.X) <= DoubleClickSlop && math.Abs(a.Pos.Y-b.Pos.Y) <= DoubleClickSlop
}

// Pending reports whether a tentative single click is armed.
func (c *ClickResolver) Pending() bool { return c.pending }

func (c *ClickResolver) cancel() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = nil
	c.pending = false
	c.gen++
}
