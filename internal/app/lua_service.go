package app

import (
	"context"

	luart "github.com/dokzlo13/huepreset/internal/lua"
)

// LuaService runs preset scripts against the bridge.
type LuaService struct {
	deps luart.RuntimeDeps
}

// NewLuaService creates a new LuaService.
func NewLuaService(hueSvc *HueService, presets *PresetService) *LuaService {
	return &LuaService{
		deps: luart.RuntimeDeps{
			Bridge:  hueSvc.Client,
			Applier: presets,
		},
	}
}

// RunScript executes the script at path in a fresh VM.
func (s *LuaService) RunScript(ctx context.Context, path string) error {
	runtime := luart.NewRuntime(s.deps)
	defer runtime.Close()

	return runtime.LoadScript(ctx, path)
}
