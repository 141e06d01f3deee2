package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// DecideHook is the global function every decision script must define. It is
// called as decide(actor, allies, enemies) and returns a table describing the
// chosen action.
const DecideHook = "decide"

// Manager owns one sandboxed LState per decision script and dispatches
// decide calls into them.
//
// Manager is safe for concurrent Decide after LoadDir completes. Each
// script's LState is single-threaded; the mutex serializes calls into the
// same VM.
type Manager struct {
	mu     sync.Mutex
	states map[string]*script
	logger *zap.Logger
}

// script pairs a VM with its opcode budget so Decide can grant a fresh
// budget per call.
type script struct {
	L     *lua.LState
	limit int
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: logger must be non-nil.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		states: make(map[string]*script),
		logger: logger,
	}
}

// LoadDir loads every *.lua file in dir into its own sandboxed VM, keyed by
// the file name without extension. Each script must define a decide global;
// files that do not are rejected. A missing directory loads nothing and is
// not an error, matching optional content directories.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: Every loaded script id resolves through Decide.
func (m *Manager) LoadDir(dir string, instLimit int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	sort.Strings(luaFiles)

	for _, name := range luaFiles {
		id := strings.TrimSuffix(name, ".lua")
		if err := m.loadScript(id, filepath.Join(dir, name), instLimit); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) loadScript(id, path string, instLimit int) error {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}
	L := NewSandboxedState(instLimit)
	RegisterModules(L)

	if err := L.DoFile(path); err != nil {
		L.Close()
		return fmt.Errorf("scripting: loading %q: %w", path, err)
	}
	if L.GetGlobal(DecideHook) == lua.LNil {
		L.Close()
		return fmt.Errorf("scripting: script %q does not define %s", path, DecideHook)
	}

	m.mu.Lock()
	if old, ok := m.states[id]; ok {
		old.L.Close()
	}
	m.states[id] = &script{L: L, limit: instLimit}
	m.mu.Unlock()
	return nil
}

// Has reports whether a script with the given id is loaded.
func (m *Manager) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.states[id]
	return ok
}

// Decide calls the decide hook in the named script's VM. Returns (LNil, nil)
// when no such script is loaded. Lua runtime errors are logged at Warn level
// and reported as LNil, never propagated; a misbehaving script degrades to
// the caller's fallback behavior.
//
// Each call gets a fresh opcode budget, so the limit bounds one decision,
// not the VM's lifetime.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) Decide(id string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.states[id]
	if !ok {
		return lua.LNil, nil
	}
	L := s.L

	ctx, _ := newCountingContext(s.limit) //nolint:govet // cancel fires automatically when limit is reached
	L.SetContext(ctx)

	if err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal(DecideHook),
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("script", id),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close tears down every loaded VM. The Manager must not be used afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.states {
		s.L.Close()
		delete(m.states, id)
	}
}
