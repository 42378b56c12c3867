package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/nocturne-engine/nocturne/internal/navgraph"
	"github.com/nocturne-engine/nocturne/internal/physics"
	"github.com/nocturne-engine/nocturne/internal/spatial"
)

const (
	spatialDBMeta    = "nocturne.spatial_db"
	physicsWorldMeta = "nocturne.physics_world"
	graphMeta        = "nocturne.graph"
)

func optTag(L *lua.LState, n int) *string {
	v := L.Get(n)
	if v == lua.LNil {
		return nil
	}
	s := L.CheckString(n)
	return &s
}

func idSetToTable(L *lua.LState, ids map[uint64]struct{}) *lua.LTable {
	t := L.NewTable()
	i := 1
	for id := range ids {
		t.RawSetInt(i, lua.LNumber(id))
		i++
	}
	return t
}

// --- spatial_db ---

func (gs *GameState) apiNewSpatialDB(L *lua.LState) int {
	cellSize := L.CheckNumber(1)
	idx := spatial.New(float64(cellSize))
	gs.spatialIndexes = append(gs.spatialIndexes, idx)

	ud := L.NewUserData()
	ud.Value = idx
	L.SetMetatable(ud, L.GetTypeMetatable(spatialDBMeta))
	L.Push(ud)
	return 1
}

func checkSpatialDB(L *lua.LState, n int) *spatial.Index {
	ud := L.CheckUserData(n)
	idx, ok := ud.Value.(*spatial.Index)
	if !ok {
		L.ArgError(n, "expected spatial_db")
	}
	return idx
}

func (gs *GameState) registerSpatialType() {
	L := gs.L
	mt := L.NewTypeMetatable(spatialDBMeta)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"add_circle": func(L *lua.LState) int {
			idx := checkSpatialDB(L, 1)
			x := float32(L.CheckNumber(2))
			y := float32(L.CheckNumber(3))
			r := float32(L.CheckNumber(4))
			tag := ""
			if s := optTag(L, 5); s != nil {
				tag = *s
			}
			id := idx.AddCircle(x, y, r, tag)
			L.Push(lua.LNumber(id))
			return 1
		},
		"add_segment": func(L *lua.LState) int {
			idx := checkSpatialDB(L, 1)
			x1 := float32(L.CheckNumber(2))
			y1 := float32(L.CheckNumber(3))
			x2 := float32(L.CheckNumber(4))
			y2 := float32(L.CheckNumber(5))
			tag := ""
			if s := optTag(L, 6); s != nil {
				tag = *s
			}
			id := idx.AddSegment(x1, y1, x2, y2, tag)
			L.Push(lua.LNumber(id))
			return 1
		},
		"update_position": func(L *lua.LState) int {
			idx := checkSpatialDB(L, 1)
			id := uint64(L.CheckNumber(2))
			x := float32(L.CheckNumber(3))
			y := float32(L.CheckNumber(4))
			idx.UpdatePosition(id, x, y)
			return 0
		},
		"remove": func(L *lua.LState) int {
			idx := checkSpatialDB(L, 1)
			id := uint64(L.CheckNumber(2))
			idx.Remove(id)
			return 0
		},
		"get_position": func(L *lua.LState) int {
			idx := checkSpatialDB(L, 1)
			id := uint64(L.CheckNumber(2))
			x, y, ok := idx.GetPosition(id)
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LNumber(x))
			L.Push(lua.LNumber(y))
			return 2
		},
		"get_entity_info": func(L *lua.LState) int {
			idx := checkSpatialDB(L, 1)
			id := uint64(L.CheckNumber(2))
			info, ok := idx.GetEntityInfo(id)
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			t := L.NewTable()
			t.RawSetString("x", lua.LNumber(info.X))
			t.RawSetString("y", lua.LNumber(info.Y))
			if info.Kind == spatial.KindCircle {
				t.RawSetString("kind", lua.LString("circle"))
				t.RawSetString("radius", lua.LNumber(info.Radius))
			} else {
				t.RawSetString("kind", lua.LString("segment"))
				t.RawSetString("x2", lua.LNumber(info.X2))
				t.RawSetString("y2", lua.LNumber(info.Y2))
			}
			L.Push(t)
			return 1
		},
		"query_rect": func(L *lua.LState) int {
			idx := checkSpatialDB(L, 1)
			minX := float32(L.CheckNumber(2))
			minY := float32(L.CheckNumber(3))
			maxX := float32(L.CheckNumber(4))
			maxY := float32(L.CheckNumber(5))
			tag := optTag(L, 6)
			ids := idx.QueryRect(minX, minY, maxX, maxY, tag)
			L.Push(idSetToTable(L, ids))
			return 1
		},
		"query_range": func(L *lua.LState) int {
			idx := checkSpatialDB(L, 1)
			x := float32(L.CheckNumber(2))
			y := float32(L.CheckNumber(3))
			rng := float32(L.CheckNumber(4))
			tag := optTag(L, 5)
			ids := idx.QueryRange(x, y, rng, tag)
			L.Push(idSetToTable(L, ids))
			return 1
		},
		"cast_ray": func(L *lua.LState) int {
			idx := checkSpatialDB(L, 1)
			x := float32(L.CheckNumber(2))
			y := float32(L.CheckNumber(3))
			angle := float32(L.CheckNumber(4))
			maxDist := float32(L.CheckNumber(5))
			tag := optTag(L, 6)
			hit, ok := idx.CastRay(x, y, angle, maxDist, tag)
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LNumber(hit.ID))
			L.Push(lua.LNumber(hit.T))
			L.Push(lua.LNumber(hit.X))
			L.Push(lua.LNumber(hit.Y))
			return 4
		},
	}))
}

// --- physics_world ---

func (gs *GameState) apiNewPhysicsWorld(L *lua.LState) int {
	idx := checkSpatialDB(L, 1)
	world := physics.New(idx)
	gs.physicsWorlds = append(gs.physicsWorlds, world)

	ud := L.NewUserData()
	ud.Value = world
	L.SetMetatable(ud, L.GetTypeMetatable(physicsWorldMeta))
	L.Push(ud)
	return 1
}

func checkPhysicsWorld(L *lua.LState, n int) *physics.World {
	ud := L.CheckUserData(n)
	w, ok := ud.Value.(*physics.World)
	if !ok {
		L.ArgError(n, "expected physics_world")
	}
	return w
}

func (gs *GameState) registerPhysicsType() {
	L := gs.L
	mt := L.NewTypeMetatable(physicsWorldMeta)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"add_body": func(L *lua.LState) int {
			w := checkPhysicsWorld(L, 1)
			id := uint64(L.CheckNumber(2))
			mass := float32(L.CheckNumber(3))
			restitution := float32(L.CheckNumber(4))
			drag := float32(optNumber(L, 5, 0))
			w.AddBody(id, mass, restitution, drag)
			return 0
		},
		"remove_body": func(L *lua.LState) int {
			w := checkPhysicsWorld(L, 1)
			id := uint64(L.CheckNumber(2))
			w.RemoveBody(id)
			return 0
		},
		"set_velocity": func(L *lua.LState) int {
			w := checkPhysicsWorld(L, 1)
			id := uint64(L.CheckNumber(2))
			vx := float32(L.CheckNumber(3))
			vy := float32(L.CheckNumber(4))
			w.SetVelocity(id, vx, vy)
			return 0
		},
		"get_velocity": func(L *lua.LState) int {
			w := checkPhysicsWorld(L, 1)
			id := uint64(L.CheckNumber(2))
			vx, vy, ok := w.GetVelocity(id)
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LNumber(vx))
			L.Push(lua.LNumber(vy))
			return 2
		},
		"set_gravity": func(L *lua.LState) int {
			w := checkPhysicsWorld(L, 1)
			x := float32(L.CheckNumber(2))
			y := float32(L.CheckNumber(3))
			w.SetGravity(x, y)
			return 0
		},
		"step": func(L *lua.LState) int {
			w := checkPhysicsWorld(L, 1)
			dt := float32(L.CheckNumber(2))
			w.Step(dt)
			return 0
		},
		"get_collision_events": func(L *lua.LState) int {
			w := checkPhysicsWorld(L, 1)
			events := w.GetCollisionEvents()
			t := L.NewTable()
			for i, e := range events {
				pair := L.NewTable()
				pair.RawSetInt(1, lua.LNumber(e.A))
				pair.RawSetInt(2, lua.LNumber(e.B))
				t.RawSetInt(i+1, pair)
			}
			L.Push(t)
			return 1
		},
	}))
}

// --- graph ---

func (gs *GameState) apiNewGraph(L *lua.LState) int {
	g := navgraph.New()
	gs.graphs = append(gs.graphs, g)

	ud := L.NewUserData()
	ud.Value = g
	L.SetMetatable(ud, L.GetTypeMetatable(graphMeta))
	L.Push(ud)
	return 1
}

func checkGraph(L *lua.LState, n int) *navgraph.Graph {
	ud := L.CheckUserData(n)
	g, ok := ud.Value.(*navgraph.Graph)
	if !ok {
		L.ArgError(n, "expected graph")
	}
	return g
}

func (gs *GameState) registerGraphType() {
	L := gs.L
	mt := L.NewTypeMetatable(graphMeta)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"add_node": func(L *lua.LState) int {
			g := checkGraph(L, 1)
			id := L.CheckString(2)
			x := float32(L.CheckNumber(3))
			y := float32(L.CheckNumber(4))
			g.AddNode(id, x, y)
			return 0
		},
		"add_edge": func(L *lua.LState) int {
			g := checkGraph(L, 1)
			from := L.CheckString(2)
			to := L.CheckString(3)
			g.AddEdge(from, to)
			return 0
		},
		"find_path": func(L *lua.LState) int {
			g := checkGraph(L, 1)
			start := L.CheckString(2)
			goal := L.CheckString(3)
			path, ok := g.FindPath(start, goal)
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			t := L.NewTable()
			for i, id := range path {
				t.RawSetInt(i+1, lua.LString(id))
			}
			L.Push(t)
			return 1
		},
	}))
}
