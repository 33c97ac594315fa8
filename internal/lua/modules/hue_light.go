package modules

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/huepreset/internal/hue"
)

const lightTypeName = "hue.light"

// LightUserdata wraps a *hue.Light for Lua access
type LightUserdata struct {
	light *hue.Light
}

// RegisterLightType registers the hue.light metatable
func RegisterLightType(L *lua.LState) {
	mt := L.NewTypeMetatable(lightTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), lightMethods))
}

var lightMethods = map[string]lua.LGFunction{
	"name":     lightName,
	"set_name": lightSetName,
	"state":    lightState,
	"attr":     lightAttr,
	"export":   lightExport,
}

func newLightUserdata(L *lua.LState, light *hue.Light) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = &LightUserdata{light: light}
	L.SetMetatable(ud, L.GetTypeMetatable(lightTypeName))
	return ud
}

// pushLight creates a new Light userdata and pushes it onto the stack
func pushLight(L *lua.LState, light *hue.Light) {
	L.Push(newLightUserdata(L, light))
}

// checkLight retrieves the LightUserdata from the Lua stack
func checkLight(L *lua.LState) (*LightUserdata, *lua.LUserData) {
	ud := L.CheckUserData(1)
	if v, ok := ud.Value.(*LightUserdata); ok {
		return v, ud
	}
	L.ArgError(1, "hue.light expected")
	return nil, nil
}

// light:name() -> string
func lightName(L *lua.LState) int {
	l, _ := checkLight(L)
	L.Push(lua.LString(l.light.Name()))
	return 1
}

// light:set_name(name) -> self
func lightSetName(L *lua.LState) int {
	l, ud := checkLight(L)
	l.light.SetName(L.CheckString(2))
	L.Push(ud)
	return 1
}

// light:state() -> hue.state bound to this light
func lightState(L *lua.LState) int {
	l, _ := checkLight(L)
	pushState(L, l.light.State())
	return 1
}

// light:attr(key) -> value or nil
func lightAttr(L *lua.LState) int {
	l, _ := checkLight(L)
	v, ok := l.light.Attr(L.CheckString(2))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(GoToLuaValue(L, v))
	return 1
}

// light:export() -> table
func lightExport(L *lua.LState) int {
	l, _ := checkLight(L)
	L.Push(MapToLuaTable(L, l.light.Export()))
	return 1
}
