package modules

import (
	"context"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/huepreset/internal/hue"
)

// Bridge is the part of the bridge client scripts can reach directly
type Bridge interface {
	Lights(ctx context.Context) (*hue.Preset, error)
	Light(ctx context.Context, id string) (*hue.Light, error)
	URL(segments ...string) string
}

// Applier pushes a named preset to the bridge
type Applier interface {
	Apply(ctx context.Context, name string, p *hue.Preset) error
}

// HueModule provides hue.* functions to Lua.
//
// Functions that talk to the bridge return (result, err_string):
//
//	local snapshot, err = hue.lights()
//	if err then
//	    log.error("Failed: " .. err)
//	end
//
// Builders are chainable and raise on invalid input:
//
//	local evening = hue.preset()
//	evening:add(1):add(2)
//	evening:color("orange"):each(function(light)
//	    light:state():on():bri(0.4):transition("2s")
//	end)
//	hue.apply(evening, "evening")
type HueModule struct {
	bridge  Bridge
	applier Applier
}

// NewHueModule creates a new hue module
func NewHueModule(bridge Bridge, applier Applier) *HueModule {
	return &HueModule{
		bridge:  bridge,
		applier: applier,
	}
}

// Loader is the module loader for Lua
func (m *HueModule) Loader(L *lua.LState) int {
	RegisterStateType(L)
	RegisterLightType(L)
	RegisterPresetType(L)

	mod := L.NewTable()

	// Constructors
	L.SetField(mod, "state", L.NewFunction(m.newState))
	L.SetField(mod, "light", L.NewFunction(m.newLight))
	L.SetField(mod, "preset", L.NewFunction(m.newPreset))

	// Bridge access
	L.SetField(mod, "lights", L.NewFunction(m.getLights))
	L.SetField(mod, "get_light", L.NewFunction(m.getLight))
	L.SetField(mod, "apply", L.NewFunction(m.apply))
	L.SetField(mod, "url", L.NewFunction(m.url))

	// Blink kinds
	L.SetField(mod, "BLINK_ONCE", lua.LString(hue.BlinkOnce))
	L.SetField(mod, "BLINK_LONG", lua.LString(hue.BlinkLong))
	L.SetField(mod, "BLINK_OFF", lua.LString(hue.BlinkOff))

	L.Push(mod)
	return 1
}

// hue.state([table]) -> state
func (m *HueModule) newState(L *lua.LState) int {
	pushState(L, hue.NewState(optMap(L, 1)))
	return 1
}

// hue.light([table]) -> light
func (m *HueModule) newLight(L *lua.LState) int {
	pushLight(L, hue.NewLight(optMap(L, 1)))
	return 1
}

// hue.preset([preset | { [id] = light table }]) -> preset
func (m *HueModule) newPreset(L *lua.LState) int {
	switch v := L.Get(1).(type) {
	case *lua.LNilType:
		pushPreset(L, hue.NewPreset())
	case *lua.LUserData:
		src, ok := v.Value.(*PresetUserdata)
		if !ok {
			L.ArgError(1, "hue.preset or table expected")
			return 0
		}
		pushPreset(L, hue.PresetFrom(src.preset))
	case *lua.LTable:
		raw := make(map[string]map[string]any)
		v.ForEach(func(k, val lua.LValue) {
			id, ok := luaKey(k)
			if !ok {
				L.ArgError(1, "light ids must be strings or numbers")
			}
			tbl, ok := val.(*lua.LTable)
			if !ok {
				L.ArgError(1, "light records must be tables")
			}
			raw[id] = LuaTableToMap(tbl)
		})
		pushPreset(L, hue.PresetFromRaw(raw))
	default:
		L.ArgError(1, "hue.preset or table expected")
		return 0
	}
	return 1
}

// hue.lights() -> (preset, err)
// Snapshot of every light the bridge knows about.
func (m *HueModule) getLights(L *lua.LState) int {
	p, err := m.bridge.Lights(luaContext(L))
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch lights")
		return pushError(L, err)
	}
	pushPreset(L, p)
	L.Push(lua.LNil)
	return 2
}

// hue.get_light(id) -> (light, err)
func (m *HueModule) getLight(L *lua.LState) int {
	id := checkID(L, 1)
	l, err := m.bridge.Light(luaContext(L), id)
	if err != nil {
		log.Error().Err(err).Str("light", id).Msg("Failed to fetch light")
		return pushError(L, err)
	}
	pushLight(L, l)
	L.Push(lua.LNil)
	return 2
}

// hue.apply(preset[, name]) -> (true, err)
func (m *HueModule) apply(L *lua.LState) int {
	p, _ := checkPreset(L, 1)
	name := L.OptString(2, "lua")

	if err := m.applier.Apply(luaContext(L), name, p.preset); err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LTrue)
	L.Push(lua.LNil)
	return 2
}

// hue.url(...) -> string
func (m *HueModule) url(L *lua.LState) int {
	segments := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		segments = append(segments, L.CheckString(i))
	}
	L.Push(lua.LString(m.bridge.URL(segments...)))
	return 1
}
