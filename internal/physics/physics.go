// Package physics implements the impulse-based 2D rigid body simulation.
// It holds no position state of its own: positions are read from and
// written back to a spatial.Index, which remains the single authoritative
// position store for the simulation.
package physics

import (
	"math"

	"github.com/nocturne-engine/nocturne/internal/spatial"
)

const (
	positionCorrectionPercent = 0.8
	positionCorrectionSlop    = 0.01
	queryRangeSkin            = 50.0
	degenerateDistSq          = 0.0001
)

type body struct {
	id          uint64
	mass        float32
	restitution float32
	drag        float32
	invMass     float32
	isStatic    bool
	vx, vy      float32
}

func newBody(id uint64, mass, restitution, drag float32) *body {
	isStatic := mass <= 0
	var invMass float32
	if !isStatic {
		invMass = 1 / mass
	}
	return &body{id: id, mass: mass, restitution: restitution, drag: drag, invMass: invMass, isStatic: isStatic}
}

// PairKey identifies an unordered collision pair, always (min, max).
type PairKey struct {
	A, B uint64
}

func pairKey(a, b uint64) PairKey {
	if a < b {
		return PairKey{a, b}
	}
	return PairKey{b, a}
}

// World is the physics simulation. It binds to a spatial.Index for
// position storage and broad-phase candidate queries.
type World struct {
	index      *spatial.Index
	bodies     map[uint64]*body
	order      []uint64
	gx, gy     float32
	collisions map[PairKey]struct{}
}

// New returns an empty physics World bound to the given spatial index.
func New(index *spatial.Index) *World {
	return &World{
		index:      index,
		bodies:     make(map[uint64]*body),
		collisions: make(map[PairKey]struct{}),
	}
}

// AddBody registers a physics body for an existing spatial-index entity
// id. mass <= 0 makes the body static (inv_mass = 0, never integrated).
func (w *World) AddBody(id uint64, mass, restitution, drag float32) {
	if _, exists := w.bodies[id]; !exists {
		w.order = append(w.order, id)
	}
	w.bodies[id] = newBody(id, mass, restitution, drag)
}

// RemoveBody deregisters a physics body. No-op if absent. Does not touch
// the spatial index entity.
func (w *World) RemoveBody(id uint64) {
	if _, ok := w.bodies[id]; !ok {
		return
	}
	delete(w.bodies, id)
	for i, bid := range w.order {
		if bid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// SetVelocity overwrites a body's linear velocity. No-op if absent.
func (w *World) SetVelocity(id uint64, vx, vy float32) {
	if b, ok := w.bodies[id]; ok {
		b.vx, b.vy = vx, vy
	}
}

// GetVelocity returns a body's linear velocity, or ok=false if absent.
func (w *World) GetVelocity(id uint64) (vx, vy float32, ok bool) {
	b, found := w.bodies[id]
	if !found {
		return 0, 0, false
	}
	return b.vx, b.vy, true
}

// SetGravity sets the constant acceleration applied to every dynamic body.
func (w *World) SetGravity(x, y float32) {
	w.gx, w.gy = x, y
}

// Step advances the simulation by dt seconds: integrate, then collide and
// resolve every dynamic circle body against its broad-phase neighborhood.
func (w *World) Step(dt float32) {
	for _, id := range w.order {
		b := w.bodies[id]
		if b.isStatic {
			continue
		}
		b.vx += w.gx * dt
		b.vy += w.gy * dt
		if b.drag > 0 {
			factor := 1 - b.drag*dt
			b.vx *= factor
			b.vy *= factor
		}
		x, y, ok := w.index.GetPosition(id)
		if !ok {
			continue
		}
		w.index.UpdatePosition(id, x+b.vx*dt, y+b.vy*dt)
	}

	w.collisions = make(map[PairKey]struct{})
	for _, id := range w.order {
		a := w.bodies[id]
		if a.isStatic {
			continue
		}
		info, ok := w.index.GetEntityInfo(id)
		if !ok || info.Kind != spatial.KindCircle {
			continue
		}
		w.resolveAgainstNeighbors(id, a, info)
	}
}

// resolveAgainstNeighbors queries the broad phase around a dynamic circle
// body and resolves every overlapping candidate.
func (w *World) resolveAgainstNeighbors(id uint64, a *body, aInfo spatial.Info) {
	candidates := w.index.QueryRange(aInfo.X, aInfo.Y, aInfo.Radius+queryRangeSkin, nil)
	for candID := range candidates {
		if candID == id {
			continue
		}
		bInfo, ok := w.index.GetEntityInfo(candID)
		if !ok {
			continue
		}
		b := w.bodyOrStaticWall(candID)

		var nx, ny, penetration float32
		var hit bool
		switch bInfo.Kind {
		case spatial.KindCircle:
			nx, ny, penetration, hit = circleCircle(aInfo, bInfo)
		case spatial.KindSegment:
			nx, ny, penetration, hit = circleSegment(aInfo, bInfo)
		}
		if !hit {
			continue
		}
		w.resolvePair(id, a, aInfo, candID, b, bInfo, nx, ny, penetration)
	}
}

// bodyOrStaticWall returns the registered physics body for id, or a
// synthetic static body with restitution 1.0 (an infinite-mass wall) if
// none was registered — this is how bare segment geometry acts as a wall
// without an explicit AddBody.
func (w *World) bodyOrStaticWall(id uint64) *body {
	if b, ok := w.bodies[id]; ok {
		return b
	}
	return &body{id: id, isStatic: true, restitution: 1.0}
}

func circleCircle(a, b spatial.Info) (nx, ny, penetration float32, hit bool) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	distSq := dx*dx + dy*dy
	if distSq <= degenerateDistSq {
		return 0, 0, 0, false
	}
	radiusSum := a.Radius + b.Radius
	if distSq >= radiusSum*radiusSum {
		return 0, 0, 0, false
	}
	dist := float32(math.Sqrt(float64(distSq)))
	return dx / dist, dy / dist, radiusSum - dist, true
}

func circleSegment(a, seg spatial.Info) (nx, ny, penetration float32, hit bool) {
	segX, segY := seg.X, seg.Y
	segX2, segY2 := seg.X2, seg.Y2
	segLen2 := (segX2-segX)*(segX2-segX) + (segY2-segY)*(segY2-segY)
	var t float32
	if segLen2 > 0 {
		t = ((a.X-segX)*(segX2-segX) + (a.Y-segY)*(segY2-segY)) / segLen2
		t = clamp01(t)
	}
	closestX := segX + t*(segX2-segX)
	closestY := segY + t*(segY2-segY)
	dx := a.X - closestX
	dy := a.Y - closestY
	distSq := dx*dx + dy*dy
	if distSq <= degenerateDistSq {
		return 0, 0, 0, false
	}
	if distSq >= a.Radius*a.Radius {
		return 0, 0, 0, false
	}
	dist := float32(math.Sqrt(float64(distSq)))
	// Normal points from A into the obstacle, i.e. -(center_a - closest)/dist.
	return -dx / dist, -dy / dist, a.Radius - dist, true
}

func (w *World) resolvePair(aID uint64, a *body, aInfo spatial.Info, bID uint64, b *body, bInfo spatial.Info, nx, ny, penetration float32) {
	totalInvMass := a.invMass + b.invMass
	if totalInvMass <= 0 {
		return
	}

	w.collisions[pairKey(aID, bID)] = struct{}{}

	correctionMag := (maxF(penetration-positionCorrectionSlop, 0) / totalInvMass) * positionCorrectionPercent
	cx := nx * correctionMag
	cy := ny * correctionMag
	if a.invMass > 0 {
		ax, ay, _ := w.index.GetPosition(aID)
		w.index.UpdatePosition(aID, ax-cx*a.invMass, ay-cy*a.invMass)
	}
	if b.invMass > 0 {
		bx, by, _ := w.index.GetPosition(bID)
		w.index.UpdatePosition(bID, bx+cx*b.invMass, by+cy*b.invMass)
	}

	rvx := b.vx - a.vx
	rvy := b.vy - a.vy
	velAlongNormal := rvx*nx + rvy*ny
	if velAlongNormal > 0 {
		return
	}

	restitution := minF(a.restitution, b.restitution)
	j := -(1 + restitution) * velAlongNormal / totalInvMass
	ix := j * nx
	iy := j * ny
	a.vx -= ix * a.invMass
	a.vy -= iy * a.invMass
	b.vx += ix * b.invMass
	b.vy += iy * b.invMass
}

// GetCollisionEvents drains and returns the unordered pairs that collided
// on the most recent Step.
func (w *World) GetCollisionEvents() []PairKey {
	out := make([]PairKey, 0, len(w.collisions))
	for k := range w.collisions {
		out = append(out, k)
	}
	w.collisions = make(map[PairKey]struct{})
	return out
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
