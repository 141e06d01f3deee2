package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/mirefall/mirefall/internal/scripting"
)

func newEngineState(t *testing.T) *lua.LState {
	t.Helper()
	L := scripting.NewSandboxedState(0)
	t.Cleanup(L.Close)
	scripting.RegisterModules(L)
	return L
}

// pushRoster defines a Lua global holding entries of {name, hp} pairs.
func pushRoster(t *testing.T, L *lua.LState, global string, hps map[string]int, order []string) {
	t.Helper()
	roster := L.NewTable()
	for _, name := range order {
		entry := L.NewTable()
		L.SetField(entry, "name", lua.LString(name))
		L.SetField(entry, "hp", lua.LNumber(hps[name]))
		roster.Append(entry)
	}
	L.SetGlobal(global, roster)
}

func TestEngineLowestHP_PicksLowestLiving(t *testing.T) {
	L := newEngineState(t)
	pushRoster(t, L, "roster", map[string]int{"a": 12, "b": 3, "c": 0}, []string{"a", "b", "c"})

	require.NoError(t, L.DoString(`result = engine.lowest_hp(roster).name`))
	assert.Equal(t, lua.LString("b"), L.GetGlobal("result"))
}

func TestEngineLowestHP_SkipsDead(t *testing.T) {
	L := newEngineState(t)
	pushRoster(t, L, "roster", map[string]int{"a": 0, "b": 7}, []string{"a", "b"})

	require.NoError(t, L.DoString(`result = engine.lowest_hp(roster).name`))
	assert.Equal(t, lua.LString("b"), L.GetGlobal("result"))
}

func TestEngineLowestHP_AllDeadReturnsNil(t *testing.T) {
	L := newEngineState(t)
	pushRoster(t, L, "roster", map[string]int{"a": 0}, []string{"a"})

	require.NoError(t, L.DoString(`result = engine.lowest_hp(roster) == nil`))
	assert.Equal(t, lua.LTrue, L.GetGlobal("result"))
}

func TestEngineAnyAlive(t *testing.T) {
	L := newEngineState(t)
	pushRoster(t, L, "living", map[string]int{"a": 0, "b": 2}, []string{"a", "b"})
	pushRoster(t, L, "dead", map[string]int{"a": 0}, []string{"a"})

	require.NoError(t, L.DoString(`r1 = engine.any_alive(living); r2 = engine.any_alive(dead)`))
	assert.Equal(t, lua.LTrue, L.GetGlobal("r1"))
	assert.Equal(t, lua.LFalse, L.GetGlobal("r2"))
}

func TestProperty_LowestHPIsMinimumOfLiving(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		hps := rapid.SliceOfN(rapid.IntRange(0, 50), 1, 8).Draw(rt, "hps")

		L := scripting.NewSandboxedState(0)
		defer L.Close()
		scripting.RegisterModules(L)

		roster := L.NewTable()
		minLiving := -1
		for _, hp := range hps {
			entry := L.NewTable()
			L.SetField(entry, "hp", lua.LNumber(hp))
			roster.Append(entry)
			if hp > 0 && (minLiving == -1 || hp < minLiving) {
				minLiving = hp
			}
		}
		L.SetGlobal("roster", roster)

		require.NoError(rt, L.DoString(`picked = engine.lowest_hp(roster)`))
		picked := L.GetGlobal("picked")
		if minLiving == -1 {
			assert.Equal(rt, lua.LNil, picked)
			return
		}
		table, ok := picked.(*lua.LTable)
		require.True(rt, ok)
		assert.Equal(rt, lua.LNumber(minLiving), L.GetField(table, "hp"))
	})
}
