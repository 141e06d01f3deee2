package scripting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/mirefall/mirefall/internal/scripting"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func newTestManager(t *testing.T) *scripting.Manager {
	t.Helper()
	mgr := scripting.NewManager(zap.NewNop())
	t.Cleanup(mgr.Close)
	return mgr
}

func TestLoadDir_KeysByFileName(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "goblin.lua", `function decide(actor) return { action = "attack" } end`)
	writeScript(t, dir, "rat.lua", `function decide(actor) return { action = "defend" } end`)
	writeScript(t, dir, "notes.txt", `not a script`)

	mgr := newTestManager(t)
	require.NoError(t, mgr.LoadDir(dir, 0))

	assert.True(t, mgr.Has("goblin"))
	assert.True(t, mgr.Has("rat"))
	assert.False(t, mgr.Has("notes"))
}

func TestLoadDir_MissingDirLoadsNothing(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.LoadDir(filepath.Join(t.TempDir(), "absent"), 0))
	assert.False(t, mgr.Has("anything"))
}

func TestLoadDir_RejectsScriptWithoutDecide(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "broken.lua", `local x = 1`)

	mgr := newTestManager(t)
	err := mgr.LoadDir(dir, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decide")
}

func TestLoadDir_RejectsSyntaxError(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bad.lua", `function decide( return end`)

	mgr := newTestManager(t)
	assert.Error(t, mgr.LoadDir(dir, 0))
}

func TestDecide_ReturnsHookResult(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "goblin.lua", `
		function decide(actor)
			return { action = "attack", reason = actor.name }
		end
	`)

	mgr := newTestManager(t)
	require.NoError(t, mgr.LoadDir(dir, 0))

	L := lua.NewState()
	defer L.Close()
	actor := L.NewTable()
	L.SetField(actor, "name", lua.LString("Grak"))

	ret, err := mgr.Decide("goblin", actor)
	require.NoError(t, err)

	table, ok := ret.(*lua.LTable)
	require.True(t, ok, "decide must return a table, got %T", ret)
	assert.Equal(t, lua.LString("attack"), L.GetField(table, "action"))
	assert.Equal(t, lua.LString("Grak"), L.GetField(table, "reason"))
}

func TestDecide_UnknownScriptReturnsNil(t *testing.T) {
	mgr := newTestManager(t)
	ret, err := mgr.Decide("phantom")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestDecide_RuntimeErrorDegradesToNil(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "crash.lua", `function decide(actor) error("boom") end`)

	mgr := newTestManager(t)
	require.NoError(t, mgr.LoadDir(dir, 0))

	ret, err := mgr.Decide("crash", lua.LNil)
	require.NoError(t, err, "runtime errors must not propagate")
	assert.Equal(t, lua.LNil, ret)
}

func TestDecide_RunawayScriptHitsOpcodeLimit(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "spin.lua", `function decide(actor) while true do end end`)

	mgr := newTestManager(t)
	require.NoError(t, mgr.LoadDir(dir, 50))

	ret, err := mgr.Decide("spin", lua.LNil)
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestLoadDir_ReloadReplacesVM(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "goblin.lua", `function decide(actor) return { action = "attack" } end`)

	mgr := newTestManager(t)
	require.NoError(t, mgr.LoadDir(dir, 0))

	writeScript(t, dir, "goblin.lua", `function decide(actor) return { action = "defend" } end`)
	require.NoError(t, mgr.LoadDir(dir, 0))

	L := lua.NewState()
	defer L.Close()
	ret, err := mgr.Decide("goblin", L.NewTable())
	require.NoError(t, err)
	table, ok := ret.(*lua.LTable)
	require.True(t, ok)
	assert.Equal(t, lua.LString("defend"), L.GetField(table, "action"))
}
