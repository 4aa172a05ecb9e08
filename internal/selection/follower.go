/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

import "cubeview/internal/domain"

// Follower mirrors every cache mutation of a leader view onto a follower view
// with identical ids. Nothing flows back to the leader.
type Follower struct {
	follower Followable
	cancels  []func()
}

// FollowImage replays the leader's current markers and polygons onto
// follower, then keeps it in step.
func FollowImage(leader ImageLeader, follower ImageMirror) *Follower {
	follower.SetFollower(true)
	for _, poly := range leader.Polygons() {
		follower.MirrorPolygon(poly)
	}
	for _, p := range leader.Points() {
		follower.MirrorPoint(p)
	}
	ev := leader.Events()
	return &Follower{follower: follower, cancels: []func(){
		ev.PolygonAdded.Subscribe(follower.MirrorPolygon),
		ev.PointAdded.Subscribe(follower.MirrorPoint),
		ev.PointRemoved.Subscribe(follower.MirrorRemovePoint),
		ev.PolygonRemoved.Subscribe(follower.MirrorRemovePolygon),
		ev.Reset.Subscribe(func(struct{}) { follower.MirrorReset() }),
		ev.CursorMoved.Subscribe(follower.MirrorCursor),
	}}
}

// FollowMeasurements replays the leader's measurements onto follower, then
// keeps it in step.
func FollowMeasurements(leader MeasurementLeader, follower MeasurementMirror) *Follower {
	follower.SetFollower(true)
	for _, m := range leader.Measurements() {
		follower.MirrorAdd(m)
	}
	ev := leader.Events()
	return &Follower{follower: follower, cancels: []func(){
		ev.Added.Subscribe(follower.MirrorAdd),
		ev.Removed.Subscribe(func(m domain.Measurement) { follower.MirrorRemove(m.ID) }),
		ev.Renamed.Subscribe(func(r Renamed) { follower.MirrorRename(r.ID, r.Name) }),
		ev.Reset.Subscribe(func(struct{}) { follower.MirrorReset() }),
	}}
}

// Stop detaches the follower and hands it back to the user.
func (f *Follower) Stop() {
	for _, c := range f.cancels {
		c()
	}
	f.cancels = nil
	f.follower.SetFollower(false)
}
