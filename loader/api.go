package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers the catalog constructors as globals.
func registerAPI(L *lua.LState, coll *collector) {
	// Game { title = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Tiers { "mortal", "adept", ... } lowest first.
	L.SetGlobal("Tiers", L.NewFunction(func(L *lua.LState) int {
		coll.tiers = L.CheckTable(1)
		return 0
	}))

	// Balance { skill_cost = 20, ... } overrides the default tunables.
	L.SetGlobal("Balance", L.NewFunction(func(L *lua.LState) int {
		coll.balance = L.CheckTable(1)
		return 0
	}))

	// Item "id" { ... }, Monster "id" { ... } and friends are curried:
	// the first call takes the id and returns a function taking the table.
	L.SetGlobal("Item", curried(L, func(id string, tbl *lua.LTable) {
		coll.items = append(coll.items, coll.def(id, tbl))
	}))
	L.SetGlobal("Monster", curried(L, func(id string, tbl *lua.LTable) {
		coll.monsters = append(coll.monsters, coll.def(id, tbl))
	}))
	L.SetGlobal("Drops", curried(L, func(id string, tbl *lua.LTable) {
		coll.drops = append(coll.drops, coll.def(id, tbl))
	}))
	L.SetGlobal("Location", curried(L, func(id string, tbl *lua.LTable) {
		coll.locations = append(coll.locations, coll.def(id, tbl))
	}))
	L.SetGlobal("Actor", curried(L, func(id string, tbl *lua.LTable) {
		coll.actors = append(coll.actors, coll.def(id, tbl))
	}))
}

func curried(L *lua.LState, add func(id string, tbl *lua.LTable)) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			add(id, L.CheckTable(1))
			return 0
		}))
		return 1
	})
}
