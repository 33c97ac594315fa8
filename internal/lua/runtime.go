package lua

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/huepreset/internal/lua/modules"
)

// Runtime owns one Lua VM with the hue, log and utils modules preloaded.
// A Runtime is not safe for concurrent use.
type Runtime struct {
	L    *lua.LState
	deps RuntimeDeps
}

// NewRuntime creates a new Lua runtime
func NewRuntime(deps RuntimeDeps) *Runtime {
	r := &Runtime{
		L:    lua.NewState(),
		deps: deps,
	}
	r.registerModules()
	return r
}

// Close closes the Lua state
func (r *Runtime) Close() {
	r.L.Close()
}

// registerModules registers all Lua modules
func (r *Runtime) registerModules() {
	r.L.PreloadModule("log", modules.NewLogModule().Loader)
	r.L.PreloadModule("utils", modules.NewUtilsModule().Loader)
	r.L.PreloadModule("hue", modules.NewHueModule(r.deps.Bridge, r.deps.Applier).Loader)
}

// LoadScript executes the script at path. Bridge calls made by the script
// use ctx, and cancelling ctx aborts the script.
func (r *Runtime) LoadScript(ctx context.Context, path string) error {
	log.Info().Str("path", path).Msg("Running Lua script")

	if err := r.exec(ctx, func() error { return r.L.DoFile(path) }); err != nil {
		return fmt.Errorf("failed to execute Lua script: %w", err)
	}

	log.Info().Str("path", path).Msg("Lua script finished")
	return nil
}

// DoString executes a chunk of Lua source
func (r *Runtime) DoString(ctx context.Context, source string) error {
	return r.exec(ctx, func() error { return r.L.DoString(source) })
}

// exec runs fn with ctx attached to the VM, turning panics into errors
func (r *Runtime) exec(ctx context.Context, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("Lua execution panicked")
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()

	r.L.SetContext(ctx)
	defer r.L.RemoveContext()
	return fn()
}
