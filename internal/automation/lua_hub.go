package automation

import (
	lua "github.com/yuin/gopher-lua"
)

const maxHandlersPerScript = 100

// registerHubModule registers the `hub` global table in a Lua state.
func registerHubModule(L *lua.LState, vm *scriptVM, e *Engine) {
	mod := L.NewTable()

	mod.RawSetString("on_action", L.NewFunction(func(L *lua.LState) int {
		return hubOnAction(L, vm)
	}))

	mod.RawSetString("log", L.NewFunction(func(L *lua.LState) int {
		msg := L.CheckString(1)
		e.logger.Info("script log", "msg", msg)
		return 0
	}))

	mod.RawSetString("devices", L.NewFunction(func(L *lua.LState) int {
		return hubDevices(L, e)
	}))

	L.SetGlobal("hub", mod)
}

// hub.on_action(filter, callback) — filter is a table with optional "ieee"
// and "action" keys; the callback receives the action event table.
func hubOnAction(L *lua.LState, vm *scriptVM) int {
	filter := L.CheckTable(1)
	fn := L.CheckFunction(2)

	h := actionHandler{fn: fn}
	if v := filter.RawGetString("ieee"); v != lua.LNil {
		h.ieee = v.String()
	}
	if v := filter.RawGetString("action"); v != lua.LNil {
		h.action = v.String()
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if len(vm.handlers) >= maxHandlersPerScript {
		L.RaiseError("too many handlers (max %d)", maxHandlersPerScript)
		return 0
	}
	vm.handlers = append(vm.handlers, h)
	return 0
}

// hub.devices() returns an array of device tables.
func hubDevices(L *lua.LState, e *Engine) int {
	devices, err := e.hub.Store().ListDevices()
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	arr := L.NewTable()
	for _, d := range devices {
		t := L.NewTable()
		t.RawSetString("ieee", lua.LString(d.IEEEAddress))
		t.RawSetString("model", lua.LString(d.Model))
		t.RawSetString("friendly_name", lua.LString(d.FriendlyName))
		t.RawSetString("profile", lua.LString(d.Profile))
		t.RawSetString("last_action", lua.LString(d.LastAction))
		arr.Append(t)
	}
	L.Push(arr)
	return 1
}
