package scripting

import lua "github.com/yuin/gopher-lua"

// RegisterModules registers the engine.* Lua table into L. Scripts use it
// for common roster queries so they stay short and stay under the opcode
// limit.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetGlobal("engine", engine)

	// engine.lowest_hp(roster) returns the living entry with the lowest hp
	// field, or nil when none is alive.
	L.SetField(engine, "lowest_hp", L.NewFunction(func(L *lua.LState) int {
		roster := L.CheckTable(1)
		var best *lua.LTable
		bestHP := 0
		roster.ForEach(func(_, v lua.LValue) {
			entry, ok := v.(*lua.LTable)
			if !ok {
				return
			}
			hp, ok := L.GetField(entry, "hp").(lua.LNumber)
			if !ok || hp <= 0 {
				return
			}
			if best == nil || int(hp) < bestHP {
				best = entry
				bestHP = int(hp)
			}
		})
		if best == nil {
			L.Push(lua.LNil)
		} else {
			L.Push(best)
		}
		return 1
	}))

	// engine.any_alive(roster) reports whether any entry has hp > 0.
	L.SetField(engine, "any_alive", L.NewFunction(func(L *lua.LState) int {
		roster := L.CheckTable(1)
		alive := false
		roster.ForEach(func(_, v lua.LValue) {
			entry, ok := v.(*lua.LTable)
			if !ok {
				return
			}
			if hp, ok := L.GetField(entry, "hp").(lua.LNumber); ok && hp > 0 {
				alive = true
			}
		})
		L.Push(lua.LBool(alive))
		return 1
	}))
}
