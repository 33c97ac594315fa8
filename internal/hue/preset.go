package hue

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/dokzlo13/huepreset/internal/color"
)

// Preset is an insertion-ordered set of lights keyed by bridge light ID.
//
// A preset always owns its lights: Add copies the given light, so two presets
// built from the same source can be changed independently.
type Preset struct {
	ids    []string
	lights map[string]*Light
}

// NewPreset returns an empty preset.
func NewPreset() *Preset {
	return &Preset{lights: make(map[string]*Light)}
}

// PresetFrom copies every light of other, in order.
func PresetFrom(other *Preset) *Preset {
	p := NewPreset()
	if other == nil {
		return p
	}
	for _, id := range other.ids {
		p.Add(id, other.lights[id])
	}
	return p
}

// PresetFromRaw builds a preset from a raw id -> record mapping, such as a
// bridge /lights response. Numeric IDs come first in numeric order, then the
// rest lexically.
func PresetFromRaw(raw map[string]map[string]any) *Preset {
	p := NewPreset()
	for _, id := range sortedIDs(raw) {
		p.AddRaw(id, raw[id])
	}
	return p
}

// Add stores a copy of light under id. Adding an existing id replaces the
// light but keeps its position.
func (p *Preset) Add(id string, light *Light) *Preset {
	var raw map[string]any
	if light != nil {
		raw = light.Export()
	}
	return p.AddRaw(id, raw)
}

// AddRaw stores a new Light built from raw under id.
func (p *Preset) AddRaw(id string, raw map[string]any) *Preset {
	if _, exists := p.lights[id]; !exists {
		p.ids = append(p.ids, id)
	}
	p.lights[id] = NewLight(raw)
	return p
}

// Get returns the light stored under id.
func (p *Preset) Get(id string) (*Light, bool) {
	l, ok := p.lights[id]
	return l, ok
}

// Keys returns the light IDs in insertion order.
func (p *Preset) Keys() []string {
	return append([]string(nil), p.ids...)
}

// Len returns the number of lights.
func (p *Preset) Len() int {
	return len(p.ids)
}

// Each calls fn for every light in insertion order. The key list is captured
// before the first call.
func (p *Preset) Each(fn func(light *Light, id string, p *Preset)) *Preset {
	for _, id := range p.Keys() {
		light, ok := p.lights[id]
		if !ok {
			continue
		}
		fn(light, id, p)
	}
	return p
}

// Color sets every light to the color described by expr. No light is changed
// if expr is invalid.
func (p *Preset) Color(expr string) (*Preset, error) {
	c, err := color.Parse(expr)
	if err != nil {
		return p, err
	}
	return p.Each(func(light *Light, _ string, _ *Preset) {
		light.State().HSL(c)
	}), nil
}

// Export returns every light as a raw record keyed by id.
func (p *Preset) Export() map[string]map[string]any {
	out := make(map[string]map[string]any, len(p.ids))
	for _, id := range p.ids {
		out[id] = p.lights[id].Export()
	}
	return out
}

// MarshalJSON encodes the lights as a JSON object in insertion order.
func (p *Preset) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range p.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(p.lights[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func sortedIDs[T any](raw map[string]T) []string {
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aErr := strconv.Atoi(ids[i])
		b, bErr := strconv.Atoi(ids[j])
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
	return ids
}
