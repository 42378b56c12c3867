// Package script hosts the sandboxed Lua game script: a restricted
// interpreter, the two-buffer render/audio protocol, lifecycle callback
// dispatch, and the api table exposed to scripts.
package script

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"

	"github.com/nocturne-engine/nocturne/internal/cmdbuf"
	"github.com/nocturne-engine/nocturne/internal/navgraph"
	"github.com/nocturne-engine/nocturne/internal/physics"
	"github.com/nocturne-engine/nocturne/internal/spatial"
)

// MemoryLimitBytes is the ceiling checked against the interpreter's own
// garbage-collector accounting after every update/draw call. gopher-lua
// exposes no allocator hook to enforce this at allocation time the way a
// host embedding CPython or mlua's MemoryLimit would, so enforcement is
// best-effort and checked at call boundaries via collectgarbage("count").
const MemoryLimitBytes = 128 * 1024 * 1024

// ErrMemoryLimitExceeded is returned from Update/Draw when the
// interpreter's reported heap usage exceeds MemoryLimitBytes.
var ErrMemoryLimitExceeded = fmt.Errorf("script: memory limit exceeded")

// Mode is the current-mode cell that governs where mode-sensitive audio
// calls write.
type Mode int

const (
	ModeUpdate Mode = iota
	ModeDraw
)

// GameState owns the script interpreter, both command buffers, the
// current-mode cell, and every world object the script constructed.
type GameState struct {
	L           *lua.LState
	scriptPath  string
	mode        Mode
	frameLocal  *cmdbuf.Buffer
	eventBuffer *cmdbuf.Buffer

	spatialIndexes []*spatial.Index
	physicsWorlds  []*physics.World
	graphs         []*navgraph.Graph
}

// Load compiles and runs scriptPath under a sandboxed interpreter, binds
// the api table, and invokes init() if the script defines one.
func Load(scriptPath string) (*GameState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	for _, pair := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.MathLibName, lua.OpenMath},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.CoroutineLibName, lua.OpenCoroutine},
		{lua.PackageLibName, lua.OpenPackage},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(pair.fn),
			NRet:    0,
			Protect: true,
		}); err != nil {
			L.Close()
			return nil, fmt.Errorf("script: opening stdlib %s: %w", pair.name, err)
		}
	}
	removeUnsandboxedBaseGlobals(L)

	dir := filepath.Dir(scriptPath)
	packagePath := "./?.lua;" + filepath.Join(dir, "?.lua")
	L.SetField(L.GetGlobal("package"), "path", lua.LString(packagePath))

	gs := &GameState{
		L:           L,
		scriptPath:  scriptPath,
		mode:        ModeUpdate,
		frameLocal:  cmdbuf.New(),
		eventBuffer: cmdbuf.New(),
	}
	gs.installAPI()

	if err := L.DoFile(scriptPath); err != nil {
		L.Close()
		return nil, fmt.Errorf("script: loading %s: %w", scriptPath, err)
	}

	if err := gs.callOptional("init"); err != nil {
		L.Close()
		return nil, fmt.Errorf("script: init: %w", err)
	}

	return gs, nil
}

// Close releases the interpreter.
func (gs *GameState) Close() {
	gs.L.Close()
}

// removeUnsandboxedBaseGlobals strips the base-library globals that reach
// the filesystem outside package.path. collectgarbage is left in place:
// checkMemoryLimit relies on its "count" mode, and gopher-lua's version
// carries no process-introspection capability beyond GC control.
func removeUnsandboxedBaseGlobals(L *lua.LState) {
	for _, name := range []string{"loadfile", "dofile"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func (gs *GameState) callOptional(name string, args ...lua.LValue) error {
	fn := gs.L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil
	}
	return gs.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...)
}

// BeginFrame clears the cross-frame event buffer. Must be called exactly
// once per tick, before Update.
func (gs *GameState) BeginFrame() {
	gs.eventBuffer.Clear()
}

// Update transitions to Update mode and invokes the script's update(dt).
func (gs *GameState) Update(dt float64) error {
	gs.mode = ModeUpdate
	if err := gs.callOptional("update", lua.LNumber(dt)); err != nil {
		return err
	}
	return gs.checkMemoryLimit()
}

// Draw transitions to Draw mode, rebuilds the frame-local buffer from the
// event buffer plus this call's commands, and returns its bytes.
//
// The event buffer is cleared only by BeginFrame, so Draw carries what
// every Update since the last BeginFrame produced. A Draw with no
// BeginFrame since the previous one replays the last Update's events
// again; a Draw after BeginFrame with no Update carries none — this
// replay is intentional, not a bug: see the buffer lifecycle note in the
// game state's owning spec section.
func (gs *GameState) Draw(sessionID string) ([]byte, error) {
	gs.mode = ModeDraw
	gs.frameLocal.Clear()
	gs.frameLocal.Append(gs.eventBuffer)
	if err := gs.callOptional("draw", lua.LString(sessionID)); err != nil {
		return nil, err
	}
	if err := gs.checkMemoryLimit(); err != nil {
		return nil, err
	}
	return gs.frameLocal.Bytes(), nil
}

// checkMemoryLimit asks the interpreter's own collector how much heap it
// is holding and reports an error once that crosses MemoryLimitBytes.
// This does not stop an allocation mid-flight; it is a per-call trip
// wire, not a hard ceiling.
func (gs *GameState) checkMemoryLimit() error {
	fn := gs.L.GetGlobal("collectgarbage")
	if fn.Type() != lua.LTFunction {
		return nil
	}
	if err := gs.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LString("count")); err != nil {
		return nil
	}
	ret := gs.L.Get(-1)
	gs.L.Pop(1)
	kb, ok := ret.(lua.LNumber)
	if !ok {
		return nil
	}
	if float64(kb)*1024 > float64(MemoryLimitBytes) {
		return ErrMemoryLimitExceeded
	}
	return nil
}

// OnConnect clears the frame-local buffer, invokes on_connect(session_id),
// and returns whatever commands that call produced — used both for live
// joins and for reload replay.
func (gs *GameState) OnConnect(sessionID string) ([]byte, error) {
	gs.frameLocal.Clear()
	if err := gs.callOptional("on_connect", lua.LString(sessionID)); err != nil {
		return nil, err
	}
	return gs.frameLocal.Bytes(), nil
}

// OnDisconnect invokes on_disconnect(session_id).
func (gs *GameState) OnDisconnect(sessionID string) error {
	return gs.callOptional("on_disconnect", lua.LString(sessionID))
}

// OnInput invokes on_input(session_id, code, active).
func (gs *GameState) OnInput(sessionID string, code uint8, active bool) error {
	return gs.callOptional("on_input", lua.LString(sessionID), lua.LNumber(code), lua.LBool(active))
}

// Eval compiles and evaluates a single expression or chunk, returning a
// printable representation of the result or the error — never both.
func (gs *GameState) Eval(code string) string {
	fn, err := gs.L.LoadString("return " + code)
	if err != nil {
		fn, err = gs.L.LoadString(code)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
	}
	gs.L.Push(fn)
	if err := gs.L.PCall(0, lua.MultRet, nil); err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	top := gs.L.GetTop()
	if top == 0 {
		return ""
	}
	ret := gs.L.Get(-1)
	gs.L.SetTop(0)
	return ret.String()
}

// snapshotGlobals are the well-known global names the source
// implementation serializes for hot-reload snapshots.
var snapshotGlobals = []string{"players", "asteroids", "bullets"}

// Snapshot serializes the well-known world globals to JSON. Present for
// compatibility with external hot-reload flows; the dispatcher in this
// repo does not use it (it discards globals and replays on_connect
// instead, per the source's actual reload behavior).
func (gs *GameState) Snapshot() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(snapshotGlobals))
	for _, name := range snapshotGlobals {
		v := gs.L.GetGlobal(name)
		if v == lua.LNil {
			continue
		}
		data, err := json.Marshal(luaToInterface(v))
		if err != nil {
			return nil, fmt.Errorf("script: snapshotting %s: %w", name, err)
		}
		out[name] = data
	}
	return json.Marshal(out)
}

// Restore deserializes a Snapshot and writes the globals back.
func (gs *GameState) Restore(data []byte) error {
	var in map[string]json.RawMessage
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("script: restore: %w", err)
	}
	for name, raw := range in {
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("script: restore %s: %w", name, err)
		}
		gs.L.SetGlobal(name, interfaceToLua(gs.L, v))
	}
	return nil
}
