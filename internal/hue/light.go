package hue

import "encoding/json"

// Light is a bridge light record: a display name, a pending State and any
// other attributes the bridge reported (type, modelid, swversion, ...).
type Light struct {
	name    string
	hasName bool
	state   *State
	attrs   map[string]any
}

// NewLight builds a Light from a raw record. Attributes are deep-copied so the
// light never shares maps or slices with raw. A missing or non-object state
// yields an empty State.
func NewLight(raw map[string]any) *Light {
	l := &Light{attrs: make(map[string]any, len(raw))}
	for key, value := range raw {
		switch key {
		case "state":
			// handled below
		case "name":
			if name, ok := value.(string); ok {
				l.name, l.hasName = name, true
				continue
			}
			l.attrs[key] = cloneValue(value)
		default:
			l.attrs[key] = cloneValue(value)
		}
	}

	rawState, _ := raw["state"].(map[string]any)
	l.state = NewState(rawState)
	return l
}

// Name returns the display name, or "" if none was set.
func (l *Light) Name() string {
	return l.name
}

// SetName sets the display name.
func (l *Light) SetName(name string) *Light {
	l.name, l.hasName = name, true
	return l
}

// State returns the light's pending state update.
func (l *Light) State() *State {
	return l.state
}

// Attr returns a passthrough attribute.
func (l *Light) Attr(key string) (any, bool) {
	v, ok := l.attrs[key]
	return v, ok
}

// Export returns the light as a raw record, suitable for NewLight.
func (l *Light) Export() map[string]any {
	out := make(map[string]any, len(l.attrs)+2)
	for key, value := range l.attrs {
		out[key] = cloneValue(value)
	}
	if l.hasName {
		out["name"] = l.name
	}
	out["state"] = l.state.Export()
	return out
}

// MarshalJSON encodes the exported record.
func (l *Light) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Export())
}

// cloneValue deep-copies the map and slice shapes produced by encoding/json.
// Other values are returned as-is.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []float64:
		return append([]float64(nil), val...)
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}
