package physics

import (
	"math"
	"testing"

	"github.com/nocturne-engine/nocturne/internal/spatial"
)

func TestStaticBodyDoesNotMove(t *testing.T) {
	idx := spatial.New(10)
	id := idx.AddCircle(0, 0, 1, "")
	w := New(idx)
	w.AddBody(id, 0, 0.5, 0)
	w.SetVelocity(id, 100, 100)
	w.Step(1.0)

	x, y, _ := idx.GetPosition(id)
	if x != 0 || y != 0 {
		t.Errorf("static body moved to (%v, %v)", x, y)
	}
}

func TestDynamicBodyIntegratesVelocity(t *testing.T) {
	idx := spatial.New(10)
	id := idx.AddCircle(0, 0, 1, "")
	w := New(idx)
	w.AddBody(id, 1, 0.5, 0)
	w.SetVelocity(id, 10, 0)
	w.Step(1.0)

	x, _, _ := idx.GetPosition(id)
	if x != 10 {
		t.Errorf("X = %v, want 10", x)
	}
}

func TestGravityAccelerates(t *testing.T) {
	idx := spatial.New(10)
	id := idx.AddCircle(0, 0, 1, "")
	w := New(idx)
	w.AddBody(id, 1, 0, 0)
	w.SetGravity(0, -9.8)
	w.Step(1.0)

	vx, vy, _ := w.GetVelocity(id)
	if vx != 0 || math.Abs(float64(vy+9.8)) > 0.001 {
		t.Errorf("velocity = (%v, %v), want (0, -9.8)", vx, vy)
	}
}

func TestDragDampensVelocity(t *testing.T) {
	idx := spatial.New(10)
	id := idx.AddCircle(0, 0, 1, "")
	w := New(idx)
	w.AddBody(id, 1, 0, 0.5)
	w.SetVelocity(id, 10, 0)
	w.Step(1.0)

	vx, _, _ := w.GetVelocity(id)
	if vx >= 10 {
		t.Errorf("expected drag to reduce velocity below 10, got %v", vx)
	}
}

func TestStaticStaticCollisionSkipsResolutionAndEvent(t *testing.T) {
	idx := spatial.New(10)
	a := idx.AddCircle(0, 0, 5, "")
	b := idx.AddCircle(1, 0, 5, "")
	w := New(idx)
	w.AddBody(a, 0, 1, 0)
	w.AddBody(b, 0, 1, 0)
	w.Step(1.0 / 60)

	events := w.GetCollisionEvents()
	if len(events) != 0 {
		t.Fatalf("expected no collision events for static-static pair, got %v", events)
	}

	ax, _, _ := idx.GetPosition(a)
	bx, _, _ := idx.GetPosition(b)
	if ax != 0 || bx != 1 {
		t.Errorf("static bodies should not have moved: a.X=%v b.X=%v", ax, bx)
	}
}

func TestCircleBounceOffStatic(t *testing.T) {
	idx := spatial.New(10)
	ball := idx.AddCircle(0, 0, 1, "")
	wall := idx.AddCircle(0, 1.5, 1, "")
	w := New(idx)
	w.AddBody(ball, 1, 1.0, 0)
	w.AddBody(wall, 0, 1.0, 0)

	w.SetVelocity(ball, 0, 5)
	w.Step(1.0 / 60)

	events := w.GetCollisionEvents()
	if len(events) != 1 {
		t.Fatalf("expected one collision event, got %d", len(events))
	}
	if events[0] != pairKey(ball, wall) {
		t.Errorf("unexpected pair key %+v", events[0])
	}

	_, vy, _ := w.GetVelocity(ball)
	if vy >= 0 {
		t.Errorf("expected ball to bounce back with negative VY, got %v", vy)
	}

	_, wy, _ := idx.GetPosition(wall)
	if wy != 1.5 {
		t.Errorf("static wall should not move, Y = %v", wy)
	}
}

func TestCircleBounceOffSegmentWall(t *testing.T) {
	idx := spatial.New(10)
	// Close enough to the wall that one tick's worth of motion at vy=5
	// (5/60 ~= 0.083 units) puts the ball's post-integration position
	// within the wall's collision radius.
	ball := idx.AddCircle(0, 0.9, 1, "")
	idx.AddSegment(-50, 1.5, 50, 1.5, "wall")
	w := New(idx)
	w.AddBody(ball, 1, 1.0, 0)
	w.SetVelocity(ball, 0, 5)
	w.Step(1.0 / 60)

	events := w.GetCollisionEvents()
	if len(events) != 1 {
		t.Fatalf("expected one collision event against the bare segment wall, got %d", len(events))
	}

	_, vy, _ := w.GetVelocity(ball)
	if vy >= 0 {
		t.Errorf("expected ball to bounce off segment wall, VY = %v", vy)
	}
}

func TestDynamicDynamicElasticCollisionConservesMomentum(t *testing.T) {
	idx := spatial.New(10)
	a := idx.AddCircle(0, 0, 1, "")
	b := idx.AddCircle(1.9, 0, 1, "")
	w := New(idx)
	w.AddBody(a, 1, 1.0, 0)
	w.AddBody(b, 1, 1.0, 0)
	w.SetVelocity(a, 5, 0)
	w.SetVelocity(b, 0, 0)

	w.Step(1.0 / 60)

	avx, _, _ := w.GetVelocity(a)
	bvx, _, _ := w.GetVelocity(b)

	momentumBefore := float32(5 * 1)
	momentumAfter := avx*1 + bvx*1
	if math.Abs(float64(momentumBefore-momentumAfter)) > 0.01 {
		t.Errorf("momentum not conserved: before=%v after=%v", momentumBefore, momentumAfter)
	}
}

func TestRemoveBody(t *testing.T) {
	idx := spatial.New(10)
	id := idx.AddCircle(0, 0, 1, "")
	w := New(idx)
	w.AddBody(id, 1, 1, 0)
	w.RemoveBody(id)
	if _, _, ok := w.GetVelocity(id); ok {
		t.Errorf("expected body to be gone after RemoveBody")
	}
}

func TestSetVelocityNoOpOnMissingBody(t *testing.T) {
	idx := spatial.New(10)
	w := New(idx)
	w.SetVelocity(999, 1, 1)
	if _, _, ok := w.GetVelocity(999); ok {
		t.Errorf("expected no body to exist")
	}
}
