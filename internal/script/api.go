package script

import (
	"github.com/nocturne-engine/nocturne/internal/cmdbuf"
	lua "github.com/yuin/gopher-lua"
)

// installAPI builds the global api table: drawing/audio primitives and
// world-object constructors.
func (gs *GameState) installAPI() {
	L := gs.L
	api := L.NewTable()

	L.SetField(api, "clear_screen", L.NewFunction(gs.apiClearScreen))
	L.SetField(api, "set_color", L.NewFunction(gs.apiSetColor))
	L.SetField(api, "fill_rect", L.NewFunction(gs.apiFillRect))
	L.SetField(api, "draw_line", L.NewFunction(gs.apiDrawLine))
	L.SetField(api, "draw_text", L.NewFunction(gs.apiDrawText))
	L.SetField(api, "load_sound", L.NewFunction(gs.apiLoadSound))

	L.SetField(api, "play_sound", L.NewFunction(gs.apiPlaySound))
	L.SetField(api, "stop_sound", L.NewFunction(gs.apiStopSound))
	L.SetField(api, "set_volume", L.NewFunction(gs.apiSetVolume))

	L.SetField(api, "new_spatial_db", L.NewFunction(gs.apiNewSpatialDB))
	L.SetField(api, "new_physics_world", L.NewFunction(gs.apiNewPhysicsWorld))
	L.SetField(api, "new_graph", L.NewFunction(gs.apiNewGraph))

	gs.registerSpatialType()
	gs.registerPhysicsType()
	gs.registerGraphType()

	L.SetGlobal("api", api)
}

// modeBuffer returns the buffer that mode-sensitive calls should write
// into for the current mode.
func (gs *GameState) modeBuffer() *cmdbuf.Buffer {
	if gs.mode == ModeUpdate {
		return gs.eventBuffer
	}
	return gs.frameLocal
}

func (gs *GameState) apiClearScreen(L *lua.LState) int {
	r := uint8(L.CheckNumber(1))
	g := uint8(L.CheckNumber(2))
	b := uint8(L.CheckNumber(3))
	gs.frameLocal.ClearScreen(r, g, b)
	return 0
}

func (gs *GameState) apiSetColor(L *lua.LState) int {
	r := uint8(L.CheckNumber(1))
	g := uint8(L.CheckNumber(2))
	b := uint8(L.CheckNumber(3))
	a := uint8(optNumber(L, 4, cmdbuf.DefaultAlpha))
	gs.frameLocal.SetColor(r, g, b, a)
	return 0
}

func (gs *GameState) apiFillRect(L *lua.LState) int {
	x := float32(L.CheckNumber(1))
	y := float32(L.CheckNumber(2))
	w := float32(L.CheckNumber(3))
	h := float32(L.CheckNumber(4))
	gs.frameLocal.FillRect(x, y, w, h)
	return 0
}

func (gs *GameState) apiDrawLine(L *lua.LState) int {
	x1 := float32(L.CheckNumber(1))
	y1 := float32(L.CheckNumber(2))
	x2 := float32(L.CheckNumber(3))
	y2 := float32(L.CheckNumber(4))
	width := float32(optNumber(L, 5, float64(cmdbuf.DefaultLineWidth)))
	gs.frameLocal.DrawLine(x1, y1, x2, y2, width)
	return 0
}

func (gs *GameState) apiDrawText(L *lua.LState) int {
	x := float32(L.CheckNumber(1))
	y := float32(L.CheckNumber(2))
	text := L.CheckString(3)
	gs.frameLocal.DrawText(x, y, text)
	return 0
}

func (gs *GameState) apiLoadSound(L *lua.LState) int {
	name := L.CheckString(1)
	url := L.CheckString(2)
	gs.frameLocal.LoadSound(name, url)
	return 0
}

func (gs *GameState) apiPlaySound(L *lua.LState) int {
	name := L.CheckString(1)
	loop := optBool(L, 2, cmdbuf.DefaultLoop)
	volume := float32(optNumber(L, 3, float64(cmdbuf.DefaultVolume)))
	gs.modeBuffer().PlaySound(name, loop, volume)
	return 0
}

func (gs *GameState) apiStopSound(L *lua.LState) int {
	name := L.CheckString(1)
	gs.modeBuffer().StopSound(name)
	return 0
}

func (gs *GameState) apiSetVolume(L *lua.LState) int {
	name := L.CheckString(1)
	volume := float32(L.CheckNumber(2))
	gs.modeBuffer().SetVolume(name, volume)
	return 0
}

func optNumber(L *lua.LState, n int, def float64) float64 {
	v := L.Get(n)
	if v == lua.LNil {
		return def
	}
	if num, ok := v.(lua.LNumber); ok {
		return float64(num)
	}
	return def
}

func optBool(L *lua.LState, n int, def bool) bool {
	v := L.Get(n)
	if v == lua.LNil {
		return def
	}
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}
