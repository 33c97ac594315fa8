package modules

import (
	"time"

	lua "github.com/yuin/gopher-lua"
)

// UtilsModule provides utility functions to Lua
type UtilsModule struct{}

// NewUtilsModule creates a new utils module
func NewUtilsModule() *UtilsModule {
	return &UtilsModule{}
}

// Loader is the module loader for Lua
func (m *UtilsModule) Loader(L *lua.LState) int {
	mod := L.NewTable()

	L.SetField(mod, "sleep", L.NewFunction(m.sleep))

	L.Push(mod)
	return 1
}

// sleep(ms | "2s") waits between applies. Returns false when the script's
// context was cancelled first.
func (m *UtilsModule) sleep(L *lua.LState) int {
	d := checkDuration(L, 1)

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		L.Push(lua.LTrue)
	case <-luaContext(L).Done():
		L.Push(lua.LFalse)
	}
	return 1
}
