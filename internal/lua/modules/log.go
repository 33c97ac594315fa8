package modules

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
)

// LogModule provides logging functions to Lua:
//
//	log.info("applied preset", { name = "evening", lights = 3 })
type LogModule struct {
	logger zerolog.Logger
}

// NewLogModule creates a new log module writing through the global logger
func NewLogModule() *LogModule {
	return &LogModule{logger: log.Logger}
}

// NewLogModuleWith creates a log module writing to logger
func NewLogModuleWith(logger zerolog.Logger) *LogModule {
	return &LogModule{logger: logger}
}

// Loader is the module loader for Lua
func (m *LogModule) Loader(L *lua.LState) int {
	mod := L.NewTable()

	L.SetField(mod, "debug", L.NewFunction(m.at(zerolog.DebugLevel)))
	L.SetField(mod, "info", L.NewFunction(m.at(zerolog.InfoLevel)))
	L.SetField(mod, "warn", L.NewFunction(m.at(zerolog.WarnLevel)))
	L.SetField(mod, "error", L.NewFunction(m.at(zerolog.ErrorLevel)))

	L.Push(mod)
	return 1
}

func (m *LogModule) at(level zerolog.Level) lua.LGFunction {
	return func(L *lua.LState) int {
		msg := L.CheckString(1)

		event := m.logger.WithLevel(level).Str("source", "lua")
		if tbl, ok := L.Get(2).(*lua.LTable); ok {
			fields := LuaTableToMap(tbl)
			for _, k := range sortedKeys(fields) {
				event = event.Interface(k, fields[k])
			}
		}
		event.Msg(msg)

		return 0
	}
}
