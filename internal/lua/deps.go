package lua

import (
	"github.com/dokzlo13/huepreset/internal/lua/modules"
)

// RuntimeDeps groups all dependencies needed by Lua runtime.
type RuntimeDeps struct {
	// Bridge serves hue.lights, hue.get_light and hue.url.
	Bridge modules.Bridge
	// Applier serves hue.apply.
	Applier modules.Applier
}
