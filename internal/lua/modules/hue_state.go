package modules

import (
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/huepreset/internal/hue"
)

const stateTypeName = "hue.state"

// StateUserdata wraps a *hue.State for Lua access
type StateUserdata struct {
	state *hue.State
}

// RegisterStateType registers the hue.state metatable
func RegisterStateType(L *lua.LState) {
	mt := L.NewTypeMetatable(stateTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), stateMethods))
}

var stateMethods = map[string]lua.LGFunction{
	// Chainable setters (return self)
	"on":         stateOn,
	"off":        stateOff,
	"hue":        stateHue,
	"sat":        stateSat,
	"bri":        stateBri,
	"color":      stateColor,
	"transition": stateTransition,
	"colorloop":  stateColorloop,
	"blink":      stateBlink,

	// Getters
	"get":    stateGet,
	"export": stateExport,
}

func pushState(L *lua.LState, state *hue.State) {
	ud := L.NewUserData()
	ud.Value = &StateUserdata{state: state}
	L.SetMetatable(ud, L.GetTypeMetatable(stateTypeName))
	L.Push(ud)
}

func checkState(L *lua.LState) (*StateUserdata, *lua.LUserData) {
	ud := L.CheckUserData(1)
	if v, ok := ud.Value.(*StateUserdata); ok {
		return v, ud
	}
	L.ArgError(1, "hue.state expected")
	return nil, nil
}

// state:on([bool]) -> self
func stateOn(L *lua.LState) int {
	s, ud := checkState(L)
	s.state.On(L.OptBool(2, true))
	L.Push(ud)
	return 1
}

// state:off([bool]) -> self
func stateOff(L *lua.LState) int {
	s, ud := checkState(L)
	s.state.Off(L.OptBool(2, true))
	L.Push(ud)
	return 1
}

// state:hue(degrees) -> self
func stateHue(L *lua.LState) int {
	s, ud := checkState(L)
	s.state.Hue(float64(L.CheckNumber(2)))
	L.Push(ud)
	return 1
}

// state:sat(fraction) -> self
func stateSat(L *lua.LState) int {
	s, ud := checkState(L)
	s.state.Sat(float64(L.CheckNumber(2)))
	L.Push(ud)
	return 1
}

// state:bri(fraction) -> self
func stateBri(L *lua.LState) int {
	s, ud := checkState(L)
	s.state.Bri(float64(L.CheckNumber(2)))
	L.Push(ud)
	return 1
}

// state:color(expr) -> self, raises on an unparseable color
func stateColor(L *lua.LState) int {
	s, ud := checkState(L)
	if _, err := s.state.Color(L.CheckString(2)); err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(ud)
	return 1
}

// state:transition(ms | "400ms") -> self
func stateTransition(L *lua.LState) int {
	s, ud := checkState(L)
	s.state.Transition(checkDuration(L, 2))
	L.Push(ud)
	return 1
}

// state:colorloop([bool]) -> self
func stateColorloop(L *lua.LState) int {
	s, ud := checkState(L)
	s.state.Colorloop(L.OptBool(2, true))
	L.Push(ud)
	return 1
}

// state:blink(["once"|"long"|"off"]) -> self, raises on an unknown kind
func stateBlink(L *lua.LState) int {
	s, ud := checkState(L)
	if _, err := s.state.Blink(L.OptString(2, hue.BlinkOnce)); err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(ud)
	return 1
}

// state:get(field) -> value or nil
func stateGet(L *lua.LState) int {
	s, _ := checkState(L)
	v, ok := s.state.Get(L.CheckString(2))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(GoToLuaValue(L, v))
	return 1
}

// state:export() -> table
func stateExport(L *lua.LState) int {
	s, _ := checkState(L)
	L.Push(MapToLuaTable(L, s.state.Export()))
	return 1
}

// checkDuration accepts a number of milliseconds or a duration string
func checkDuration(L *lua.LState, n int) time.Duration {
	var d time.Duration
	switch v := L.Get(n).(type) {
	case lua.LNumber:
		d = time.Duration(float64(v) * float64(time.Millisecond))
	case lua.LString:
		parsed, err := time.ParseDuration(string(v))
		if err != nil {
			L.ArgError(n, err.Error())
		}
		d = parsed
	default:
		L.ArgError(n, "duration must be milliseconds or a string like \"400ms\"")
	}
	if d < 0 {
		L.ArgError(n, "duration must not be negative")
	}
	return d
}
