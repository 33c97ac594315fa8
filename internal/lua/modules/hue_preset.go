package modules

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/huepreset/internal/hue"
)

const presetTypeName = "hue.preset"

// PresetUserdata wraps a *hue.Preset for Lua access
type PresetUserdata struct {
	preset *hue.Preset
}

// RegisterPresetType registers the hue.preset metatable
func RegisterPresetType(L *lua.LState) {
	mt := L.NewTypeMetatable(presetTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), presetMethods))
	L.SetField(mt, "__len", L.NewFunction(presetLen))
}

var presetMethods = map[string]lua.LGFunction{
	"add":    presetAdd,
	"get":    presetGet,
	"keys":   presetKeys,
	"each":   presetEach,
	"color":  presetColor,
	"export": presetExport,
	"len":    presetLen,
}

func pushPreset(L *lua.LState, p *hue.Preset) {
	ud := L.NewUserData()
	ud.Value = &PresetUserdata{preset: p}
	L.SetMetatable(ud, L.GetTypeMetatable(presetTypeName))
	L.Push(ud)
}

func checkPreset(L *lua.LState, n int) (*PresetUserdata, *lua.LUserData) {
	ud := L.CheckUserData(n)
	if v, ok := ud.Value.(*PresetUserdata); ok {
		return v, ud
	}
	L.ArgError(n, "hue.preset expected")
	return nil, nil
}

// preset:add(id, [light | table]) -> self
// The preset stores its own copy; later changes to the argument are not seen.
func presetAdd(L *lua.LState) int {
	p, ud := checkPreset(L, 1)
	id := checkID(L, 2)

	switch v := L.Get(3).(type) {
	case *lua.LUserData:
		l, ok := v.Value.(*LightUserdata)
		if !ok {
			L.ArgError(3, "hue.light or table expected")
			return 0
		}
		p.preset.Add(id, l.light)
	case *lua.LTable:
		p.preset.AddRaw(id, LuaTableToMap(v))
	case *lua.LNilType:
		p.preset.Add(id, nil)
	default:
		L.ArgError(3, "hue.light or table expected")
		return 0
	}

	L.Push(ud)
	return 1
}

// preset:get(id) -> light or nil
func presetGet(L *lua.LState) int {
	p, _ := checkPreset(L, 1)
	l, ok := p.preset.Get(checkID(L, 2))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	pushLight(L, l)
	return 1
}

// preset:keys() -> array of ids in insertion order
func presetKeys(L *lua.LState) int {
	p, _ := checkPreset(L, 1)
	L.Push(StringsToLuaTable(L, p.preset.Keys()))
	return 1
}

// preset:each(fn(light, id, preset)) -> self
func presetEach(L *lua.LState) int {
	p, ud := checkPreset(L, 1)
	fn := L.CheckFunction(2)

	p.preset.Each(func(light *hue.Light, id string, _ *hue.Preset) {
		L.CallByParam(lua.P{Fn: fn, NRet: 0}, newLightUserdata(L, light), lua.LString(id), ud)
	})

	L.Push(ud)
	return 1
}

// preset:color(expr) -> self, raises on an unparseable color
func presetColor(L *lua.LState) int {
	p, ud := checkPreset(L, 1)
	if _, err := p.preset.Color(L.CheckString(2)); err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(ud)
	return 1
}

// preset:export() -> { [id] = light table }
func presetExport(L *lua.LState) int {
	p, _ := checkPreset(L, 1)
	L.Push(GoToLuaValue(L, p.preset.Export()))
	return 1
}

// preset:len() / #preset -> number of lights
func presetLen(L *lua.LState) int {
	p, _ := checkPreset(L, 1)
	L.Push(lua.LNumber(p.preset.Len()))
	return 1
}
