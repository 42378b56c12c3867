package spatial

import (
	"math"
	"testing"
)

func TestAddCircleAndQueryRect(t *testing.T) {
	idx := New(10)
	id := idx.AddCircle(5, 5, 2, "enemy")

	hits := idx.QueryRect(0, 0, 10, 10, nil)
	if _, ok := hits[id]; !ok {
		t.Fatalf("expected id %d in query rect results", id)
	}

	tag := "enemy"
	hits = idx.QueryRect(0, 0, 10, 10, &tag)
	if _, ok := hits[id]; !ok {
		t.Fatalf("expected id %d with tag filter", id)
	}

	other := "ally"
	hits = idx.QueryRect(0, 0, 10, 10, &other)
	if _, ok := hits[id]; ok {
		t.Fatalf("did not expect id %d with mismatched tag filter", id)
	}
}

func TestUpdatePositionMovesCellMembership(t *testing.T) {
	idx := New(10)
	id := idx.AddCircle(5, 5, 1, "")

	idx.UpdatePosition(id, 500, 500)
	x, y, ok := idx.GetPosition(id)
	if !ok || x != 500 || y != 500 {
		t.Fatalf("GetPosition = (%v, %v, %v), want (500, 500, true)", x, y, ok)
	}

	hits := idx.QueryRect(0, 0, 10, 10, nil)
	if _, ok := hits[id]; ok {
		t.Fatalf("entity should no longer be in original cell after move")
	}
	hits = idx.QueryRect(490, 490, 510, 510, nil)
	if _, ok := hits[id]; !ok {
		t.Fatalf("entity should be findable at its new position")
	}
}

func TestRemoveEntity(t *testing.T) {
	idx := New(10)
	id := idx.AddCircle(1, 1, 1, "")
	idx.Remove(id)
	if _, _, ok := idx.GetPosition(id); ok {
		t.Fatalf("expected entity to be gone after Remove")
	}
	if _, ok := idx.GetEntityInfo(id); ok {
		t.Fatalf("expected no info after Remove")
	}
}

func TestQueryRangeCircle(t *testing.T) {
	idx := New(50)
	near := idx.AddCircle(10, 0, 1, "")
	far := idx.AddCircle(1000, 0, 1, "")

	hits := idx.QueryRange(0, 0, 15, nil)
	if _, ok := hits[near]; !ok {
		t.Errorf("expected near entity within range")
	}
	if _, ok := hits[far]; ok {
		t.Errorf("did not expect far entity within range")
	}
}

func TestCastRayHitsWallSegment(t *testing.T) {
	idx := New(10)
	// A vertical wall at x=10 spanning y=-100..100.
	idx.AddSegment(10, -100, 10, 100, "wall")

	hit, ok := idx.CastRay(0, 0, 0, 50, nil)
	if !ok {
		t.Fatalf("expected ray to hit the wall")
	}
	if math.Abs(float64(hit.X-10)) > 0.01 {
		t.Errorf("hit.X = %v, want ~10", hit.X)
	}
	// t is the fraction of maxDist (50) consumed; distance 10 => t ~= 0.2.
	wantT := float32(0.2)
	if math.Abs(float64(hit.T-wantT)) > 0.01 {
		t.Errorf("hit.T = %v, want ~%v", hit.T, wantT)
	}
}

func TestCastRayMisses(t *testing.T) {
	idx := New(10)
	idx.AddSegment(10, -100, 10, -50, "wall")

	_, ok := idx.CastRay(0, 0, 0, 50, nil)
	if ok {
		t.Fatalf("expected ray to miss the segment outside its span")
	}
}

func TestCastRayRespectsTagFilter(t *testing.T) {
	idx := New(10)
	idx.AddSegment(10, -100, 10, 100, "glass")

	tag := "wall"
	_, ok := idx.CastRay(0, 0, 0, 50, &tag)
	if ok {
		t.Fatalf("expected no hit when tag filter excludes the only segment")
	}
}

func TestCastRayPicksNearestOfMultipleCircles(t *testing.T) {
	idx := New(10)
	far := idx.AddCircle(40, 0, 2, "")
	near := idx.AddCircle(20, 0, 2, "")

	hit, ok := idx.CastRay(0, 0, 0, 100, nil)
	if !ok {
		t.Fatalf("expected a hit")
	}
	if hit.ID != near {
		t.Errorf("hit.ID = %d, want nearest circle %d (far was %d)", hit.ID, near, far)
	}
}
