package hue

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dokzlo13/huepreset/internal/color"
)

// ErrInvalidBlink is returned by State.Blink for an unknown blink kind.
var ErrInvalidBlink = errors.New("invalid blink kind")

// Blink kinds accepted by State.Blink.
const (
	BlinkOnce = "once"
	BlinkLong = "long"
	BlinkOff  = "off"
)

// Effects written by State.Colorloop.
const (
	EffectColorloop = "colorloop"
	EffectNone      = "none"
)

const (
	maxHue = 65535
	maxSat = 254
	// Brightness spans 1-254; 0 is not a valid bridge value.
	briSteps = 253

	transitionUnit = 100 * time.Millisecond
)

var blinkAlerts = map[string]string{
	BlinkOnce: "select",
	BlinkLong: "lselect",
	BlinkOff:  "none",
}

// Fields that are read-only telemetry or belong to color modes we don't
// drive (ct, xy). They are dropped when importing a bridge state record.
var strippedFields = map[string]struct{}{
	"ct":        {},
	"xy":        {},
	"alert":     {},
	"reachable": {},
	"colormode": {},
}

// State is a sparse light state update. Only fields that were explicitly set
// (or imported) are sent; the bridge leaves everything else untouched.
//
// Setters mutate the receiver and return it so calls can be chained:
//
//	s := hue.NewState(nil).On(true).Bri(0.5).Transition(400 * time.Millisecond)
type State struct {
	fields map[string]any
}

// NewState imports a bridge state record (as found in a /lights response).
// Values are copied verbatim except for the stripped fields; already encoded
// values such as hue are not reinterpreted.
func NewState(raw map[string]any) *State {
	s := &State{fields: make(map[string]any, len(raw))}
	for key, value := range raw {
		if _, skip := strippedFields[key]; skip {
			continue
		}
		s.fields[key] = cloneValue(value)
	}
	return s
}

// On sets whether the light should be on.
func (s *State) On(on bool) *State {
	s.fields["on"] = on
	return s
}

// Off sets whether the light should be off. Off(true) is On(false).
func (s *State) Off(off bool) *State {
	return s.On(!off)
}

// Hue sets the hue from degrees on the color wheel (0-360).
func (s *State) Hue(degrees float64) *State {
	s.fields["hue"] = int(math.Floor(degrees / 360 * maxHue))
	return s
}

// Sat sets the saturation from a fraction (0-1).
func (s *State) Sat(percent float64) *State {
	s.fields["sat"] = int(math.Floor(percent * maxSat))
	return s
}

// Bri sets the brightness from a fraction (0-1), encoded as 1-254.
func (s *State) Bri(percent float64) *State {
	s.fields["bri"] = int(math.Floor(percent*briSteps)) + 1
	return s
}

// HSL sets hue, saturation and brightness together.
func (s *State) HSL(c color.HSL) *State {
	return s.Hue(c.H).Sat(c.S).Bri(c.L)
}

// Color parses a CSS color expression and sets hue, saturation and
// brightness from it. The state is left untouched if expr is invalid.
func (s *State) Color(expr string) (*State, error) {
	c, err := color.Parse(expr)
	if err != nil {
		return s, err
	}
	return s.HSL(c), nil
}

// Transition sets the transition time. The bridge counts in 100ms steps;
// durations are truncated to that resolution.
func (s *State) Transition(d time.Duration) *State {
	s.fields["transitiontime"] = int(d / transitionUnit)
	return s
}

// Colorloop starts or stops the colorloop effect.
func (s *State) Colorloop(enabled bool) *State {
	if enabled {
		s.fields["effect"] = EffectColorloop
	} else {
		s.fields["effect"] = EffectNone
	}
	return s
}

// Blink sets the alert effect. kind is one of BlinkOnce, BlinkLong or
// BlinkOff; an empty kind means BlinkOnce.
func (s *State) Blink(kind string) (*State, error) {
	if kind == "" {
		kind = BlinkOnce
	}
	alert, ok := blinkAlerts[kind]
	if !ok {
		return s, fmt.Errorf("%w: expected %q, %q, or %q, got %q",
			ErrInvalidBlink, BlinkOnce, BlinkLong, BlinkOff, kind)
	}
	s.fields["alert"] = alert
	return s, nil
}

// Get returns a single field value.
func (s *State) Get(field string) (any, bool) {
	v, ok := s.fields[field]
	return v, ok
}

// Len returns the number of fields set.
func (s *State) Len() int {
	return len(s.fields)
}

// Export returns a copy of the pending update.
func (s *State) Export() map[string]any {
	out := make(map[string]any, len(s.fields))
	for key, value := range s.fields {
		out[key] = cloneValue(value)
	}
	return out
}

// Clone returns an independent copy of the state.
func (s *State) Clone() *State {
	return &State{fields: s.Export()}
}

// MarshalJSON encodes the pending update as the bridge expects it.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.fields)
}
