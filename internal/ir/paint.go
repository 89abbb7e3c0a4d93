package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Paint is a solid fill or stroke colour. Channels are in [0, 1].
type Paint struct {
	R       float64 `json:"r"`
	G       float64 `json:"g"`
	B       float64 `json:"b"`
	A       float64 `json:"a"`
	Visible bool    `json:"visible"`

	// Unrecognized holds the raw JSON of a paint the decoder could not
	// read. Such a paint is invisible and carries no cue.
	Unrecognized string `json:"-"`
}

// RGB builds an opaque, visible paint.
func RGB(r, g, b float64) Paint {
	return Paint{R: r, G: g, B: b, A: 1, Visible: true}
}

// Transparent reports whether the paint contributes no colour.
func (p Paint) Transparent() bool {
	return !p.Visible || p.A <= 0
}

// paintObject mirrors the object form of a paint; pointer fields let us
// tell an absent channel, alpha or visibility from an explicit zero.
type paintObject struct {
	Type    string          `json:"type"`
	R       *float64        `json:"r"`
	G       *float64        `json:"g"`
	B       *float64        `json:"b"`
	A       *float64        `json:"a"`
	Opacity *float64        `json:"opacity"`
	Visible *bool           `json:"visible"`
	Color   json.RawMessage `json:"color"`
}

// UnmarshalJSON accepts these encodings:
//
//	{"r": 0.9, "g": 0.1, "b": 0.1, "a": 1}
//	{"type": "SOLID", "color": {"r": 1, "g": 0, "b": 0}, "opacity": 1}
//	{"color": "crimson"}
//	"#e53935" or "#e53935ff"
//	"crimson" (CSS colour names)
//
// Screen data comes from arbitrary design files, so decoding never fails:
// anything else becomes an invisible paint with Unrecognized set.
func (p *Paint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	parsed, ok := decodePaint(data)
	if !ok {
		*p = Paint{Unrecognized: string(data)}
		return nil
	}
	*p = parsed
	return nil
}

func decodePaint(data []byte) (Paint, bool) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseColor(s)
		return parsed, err == nil
	}

	var obj paintObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return Paint{}, false
	}
	// Gradients and image fills have no single colour.
	if obj.Type != "" && !strings.EqualFold(obj.Type, "SOLID") {
		return Paint{}, false
	}

	out := Paint{A: 1, Visible: true}
	switch {
	case len(obj.Color) > 0:
		c, ok := decodePaint(obj.Color)
		if !ok {
			return Paint{}, false
		}
		out.R, out.G, out.B, out.A = c.R, c.G, c.B, c.A
	case obj.R != nil || obj.G != nil || obj.B != nil:
		out.R, out.G, out.B = deref(obj.R), deref(obj.G), deref(obj.B)
	default:
		return Paint{}, false
	}
	if obj.A != nil {
		out.A = *obj.A
	}
	if obj.Opacity != nil {
		out.A *= *obj.Opacity
	}
	if obj.Visible != nil {
		out.Visible = *obj.Visible
	}
	return out, true
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// ParseColor parses a hex colour ("#rgb", "#rrggbb", "#rrggbbaa"), a CSS
// colour name or "transparent" into a visible paint.
func ParseColor(s string) (Paint, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	if s == "transparent" {
		return Paint{Visible: true}, nil
	}
	if c, ok := colornames.Map[s]; ok {
		return Paint{
			R:       float64(c.R) / 255,
			G:       float64(c.G) / 255,
			B:       float64(c.B) / 255,
			A:       float64(c.A) / 255,
			Visible: true,
		}, nil
	}
	return Paint{}, fmt.Errorf("paint: unknown colour %q", s)
}

func parseHex(h string) (Paint, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return Paint{}, fmt.Errorf("paint: invalid hex colour %q", "#"+h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Paint{}, fmt.Errorf("paint: invalid hex colour %q: %w", "#"+h, err)
	}
	return Paint{
		R:       float64((v>>24)&0xff) / 255,
		G:       float64((v>>16)&0xff) / 255,
		B:       float64((v>>8)&0xff) / 255,
		A:       float64(v&0xff) / 255,
		Visible: true,
	}, nil
}
