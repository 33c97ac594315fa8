// Package color turns CSS-style color expressions into HSL triples.
//
// Supported forms:
//
//	blue, rebeccapurple      named CSS colors
//	#abcdef, #abc, abcdef    hex
//	rgb(50, 75, 100)         rgb()/rgba(), components 0-255 or percentages
//	hsl(200, 75%, 75%)       hsl()/hsla(), hue in degrees
//
// Alpha channels are accepted and ignored.
package color

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ErrInvalidColor is returned when an expression cannot be parsed.
var ErrInvalidColor = errors.New("invalid color expression")

// HSL is a normalized color: H in degrees [0,360], S and L in [0,1].
type HSL struct {
	H float64
	S float64
	L float64
}

// Parser converts a color expression into HSL.
type Parser interface {
	Parse(expr string) (HSL, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(expr string) (HSL, error)

// Parse calls f(expr).
func (f ParserFunc) Parse(expr string) (HSL, error) {
	return f(expr)
}

// Default is the parser used by Parse.
var Default Parser = ParserFunc(parseCSS)

// Parse converts expr using the Default parser.
func Parse(expr string) (HSL, error) {
	return Default.Parse(expr)
}

func parseCSS(expr string) (HSL, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return HSL{}, fmt.Errorf("%w: empty expression", ErrInvalidColor)
	}

	if named, ok := colornames.Map[s]; ok {
		c, _ := colorful.MakeColor(named)
		return fromColorful(c), nil
	}

	if name, args, ok := splitFunc(s); ok {
		switch name {
		case "rgb", "rgba":
			return parseRGB(expr, args)
		case "hsl", "hsla":
			return parseHSL(expr, args)
		default:
			return HSL{}, fmt.Errorf("%w: unknown function %q", ErrInvalidColor, name)
		}
	}

	hex := s
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	if len(hex) != 4 && len(hex) != 7 {
		return HSL{}, fmt.Errorf("%w: %q", ErrInvalidColor, expr)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return HSL{}, fmt.Errorf("%w: %q", ErrInvalidColor, expr)
	}
	return fromColorful(c), nil
}

func fromColorful(c colorful.Color) HSL {
	h, s, l := c.Hsl()
	return HSL{H: h, S: s, L: l}
}

// splitFunc splits "name(a, b, c)" into name and its arguments. Arguments may
// be separated by commas, whitespace, or a slash before the alpha component.
func splitFunc(s string) (string, []string, bool) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", nil, false
	}
	name := strings.TrimSpace(s[:open])
	body := s[open+1 : len(s)-1]
	args := strings.FieldsFunc(body, func(r rune) bool {
		return r == ',' || r == '/' || r == ' ' || r == '\t'
	})
	return name, args, true
}

func parseRGB(expr string, args []string) (HSL, error) {
	if len(args) != 3 && len(args) != 4 {
		return HSL{}, fmt.Errorf("%w: %q expects 3 components", ErrInvalidColor, expr)
	}

	var rgb [3]float64
	for i := 0; i < 3; i++ {
		v, pct, err := parseNumber(args[i])
		if err != nil {
			return HSL{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, expr, err)
		}
		if pct {
			rgb[i] = clamp01(v / 100)
		} else {
			rgb[i] = clamp01(v / 255)
		}
	}

	return fromColorful(colorful.Color{R: rgb[0], G: rgb[1], B: rgb[2]}), nil
}

func parseHSL(expr string, args []string) (HSL, error) {
	if len(args) != 3 && len(args) != 4 {
		return HSL{}, fmt.Errorf("%w: %q expects 3 components", ErrInvalidColor, expr)
	}

	h, _, err := parseNumber(strings.TrimSuffix(args[0], "deg"))
	if err != nil {
		return HSL{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, expr, err)
	}

	var sl [2]float64
	for i := 0; i < 2; i++ {
		v, pct, err := parseNumber(args[i+1])
		if err != nil {
			return HSL{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, expr, err)
		}
		// Bare numbers up to 1 are fractions, anything larger is a percentage.
		if pct || v > 1 {
			v /= 100
		}
		sl[i] = clamp01(v)
	}

	// Normalize through RGB so that achromatic input reports hue 0 and
	// 360 wraps to 0, the same as the hex and rgb forms.
	return fromColorful(colorful.Hsl(clampHue(h), sl[0], sl[1])), nil
}

func parseNumber(s string) (value float64, percent bool, err error) {
	if strings.HasSuffix(s, "%") {
		percent = true
		s = strings.TrimSuffix(s, "%")
	}
	value, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("bad component %q", s)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false, fmt.Errorf("bad component %q", s)
	}
	return value, percent, nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func clampHue(h float64) float64 {
	return math.Max(0, math.Min(360, h))
}
