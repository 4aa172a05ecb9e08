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
	"log/slog"
	"sort"
	"strings"

	applog "cubeview/internal/log"
)

var (
	// ErrControllerNotFound is a fatal wiring error: a display id has no
	// registered controller.
	ErrControllerNotFound = errors.New("selection: controller not found")
	// ErrFollowCycle is a fatal wiring error: the follow graph would gain a
	// cycle or a second leader.
	ErrFollowCycle   = errors.New("selection: follow cycle")
	ErrDuplicateView = errors.New("selection: duplicate display id")
)

// Coordinator registers the views of a window by display id and wires links
// and followers between them. Every wiring error it returns is fatal to the
// caller.
type Coordinator struct {
	images  map[string]*ImageController
	meas    map[string]*MeasurementController
	leaders map[string]string // follower -> leader
	linked  map[string]bool
	links   []*Link
	follows []*Follower
	log     *slog.Logger
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		images:  map[string]*ImageController{},
		meas:    map[string]*MeasurementController{},
		leaders: map[string]string{},
		linked:  map[string]bool{},
		log:     applog.WithComponent("coordinator"),
	}
}

func (c *Coordinator) taken(name string) bool {
	_, a := c.images[name]
	_, b := c.meas[name]
	return a || b
}

// AddImage registers an image view.
func (c *Coordinator) AddImage(ic *ImageController) error {
	if c.taken(ic.Name()) {
		return fmt.Errorf("%w: %s", ErrDuplicateView, ic.Name())
	}
	c.images[ic.Name()] = ic
	return nil
}

// AddMeasurement registers a measurement view.
func (c *Coordinator) AddMeasurement(mc *MeasurementController) error {
	if c.taken(mc.Name()) {
		return fmt.Errorf("%w: %s", ErrDuplicateView, mc.Name())
	}
	c.meas[mc.Name()] = mc
	return nil
}

// Image returns the image controller for a display id.
func (c *Coordinator) Image(name string) (*ImageController, error) {
	ic, ok := c.images[name]
	if !ok {
		return nil, fmt.Errorf("%w: image view %q", ErrControllerNotFound, name)
	}
	return ic, nil
}

// Measurement returns the measurement controller for a display id.
func (c *Coordinator) Measurement(name string) (*MeasurementController, error) {
	mc, ok := c.meas[name]
	if !ok {
		return nil, fmt.Errorf("%w: measurement view %q", ErrControllerNotFound, name)
	}
	return mc, nil
}

// Link wires an image view to the measurement view it feeds. Follower views
// cannot take part in a link.
func (c *Coordinator) Link(imageName, measName string) (*Link, error) {
	ic, err := c.Image(imageName)
	if err != nil {
		return nil, err
	}
	mc, err := c.Measurement(measName)
	if err != nil {
		return nil, err
	}
	for _, v := range []Followable{ic, mc} {
		if v.IsFollower() {
			return nil, fmt.Errorf("link %s->%s: %w: %s", imageName, measName, ErrFollower, v.Name())
		}
	}
	l := NewLink(ic, mc)
	c.links = append(c.links, l)
	c.linked[imageName], c.linked[measName] = true, true
	c.log.Info("views linked", slog.String("image", imageName), slog.String("measurement", measName))
	return l, nil
}

// FollowImage makes follower mirror leader.
func (c *Coordinator) FollowImage(leaderName, followerName string) error {
	leader, err := c.Image(leaderName)
	if err != nil {
		return err
	}
	follower, err := c.Image(followerName)
	if err != nil {
		return err
	}
	if err := c.addEdge(leaderName, followerName); err != nil {
		return err
	}
	c.follows = append(c.follows, FollowImage(leader, follower))
	c.log.Info("image follower wired", slog.String("leader", leaderName), slog.String("follower", followerName))
	return nil
}

// FollowMeasurement makes follower mirror leader.
func (c *Coordinator) FollowMeasurement(leaderName, followerName string) error {
	leader, err := c.Measurement(leaderName)
	if err != nil {
		return err
	}
	follower, err := c.Measurement(followerName)
	if err != nil {
		return err
	}
	if err := c.addEdge(leaderName, followerName); err != nil {
		return err
	}
	c.follows = append(c.follows, FollowMeasurements(leader, follower))
	c.log.Info("measurement follower wired", slog.String("leader", leaderName), slog.String("follower", followerName))
	return nil
}

// addEdge records leader -> follower after checking the graph stays a forest.
func (c *Coordinator) addEdge(leader, follower string) error {
	if leader == follower {
		return fmt.Errorf("%w: %s follows itself", ErrFollowCycle, leader)
	}
	if c.linked[follower] {
		return fmt.Errorf("%w: %s is linked and cannot follow", ErrFollower, follower)
	}
	if cur, ok := c.leaders[follower]; ok {
		return fmt.Errorf("%w: %s already follows %s", ErrFollowCycle, follower, cur)
	}
	for cur, ok := leader, true; ok; cur, ok = c.leaders[cur] {
		if cur == follower {
			return fmt.Errorf("%w: %s -> %s closes a loop", ErrFollowCycle, leader, follower)
		}
	}
	c.leaders[follower] = leader
	return nil
}

// Leader reports whom a view follows.
func (c *Coordinator) Leader(name string) (string, bool) {
	l, ok := c.leaders[name]
	return l, ok
}

// Summary lists every registered view with its cache size, one per line in
// display id order.
func (c *Coordinator) Summary() string {
	names := make([]string, 0, len(c.images)+len(c.meas))
	for n := range c.images {
		names = append(names, n)
	}
	for n := range c.meas {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, n := range names {
		if ic, ok := c.images[n]; ok {
			fmt.Fprintf(&b, "%s: image, %d points, %d polygons", n, len(ic.Points()), len(ic.Polygons()))
		} else {
			mc := c.meas[n]
			fmt.Fprintf(&b, "%s: measurements, %d/%d plotted", n, mc.Plotted(), mc.MaxPlots())
		}
		if l, ok := c.leaders[n]; ok {
			fmt.Fprintf(&b, ", follows %s", l)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Close tears down every link and follower.
func (c *Coordinator) Close() {
	for _, l := range c.links {
		l.Close()
	}
	for _, f := range c.follows {
		f.Stop()
	}
	c.links, c.follows = nil, nil
	c.leaders = map[string]string{}
	c.linked = map[string]bool{}
}
