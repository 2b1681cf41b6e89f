package scene

import (
	"fmt"
	"strconv"
	"strings"
)

// HoldoutSuffix is appended to a material's name for its holdout variant.
const HoldoutSuffix = "_Holdout"

// Color is linear RGBA in [0, 1].
type Color [4]float64

// Black is opaque black.
var Black = Color{0, 0, 0, 1}

// ParseColor reads "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return Color{}, fmt.Errorf("invalid colour %q, expected #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	var c Color
	for i := 0; i < 4; i++ {
		c[i] = float64((v>>(24-8*i))&0xff) / 255
	}
	return c, nil
}

// Hex formats c as "#rrggbb", dropping alpha.
func (c Color) Hex() string {
	b := func(f float64) int {
		if f < 0 {
			return 0
		}
		if f > 1 {
			return 255
		}
		return int(f * 255)
	}
	return fmt.Sprintf("#%02x%02x%02x", b(c[0]), b(c[1]), b(c[2]))
}

// Mix blends c toward o by factor f.
func (c Color) Mix(o Color, f float64) Color {
	var out Color
	for i := range c {
		out[i] = c[i]*(1-f) + o[i]*f
	}
	return out
}

// Material is an entry of the scene's material table.
type Material struct {
	Name      string
	ShowFill  bool
	Holdout   bool
	FillColor Color
	Lock      bool
	Hide      bool
}

// Material returns the material at index i, or nil when out of range.
func (s *Scene) Material(i int) *Material {
	if i < 0 || i >= len(s.Materials) {
		return nil
	}
	return s.Materials[i]
}

// MaterialIndex returns the index of the named material, or -1.
func (s *Scene) MaterialIndex(name string) int {
	for i, m := range s.Materials {
		if m.Name == name {
			return i
		}
	}
	return -1
}

// AddMaterial appends m and returns its index.
func (s *Scene) AddMaterial(m Material) int {
	s.Materials = append(s.Materials, &m)
	return len(s.Materials) - 1
}

// IsLine reports whether st's material draws no fill.
func (s *Scene) IsLine(st *Stroke) bool {
	m := s.Material(st.Material)
	return m == nil || !m.ShowFill
}

// IsLocked reports whether st's material is locked or hidden.
func (s *Scene) IsLocked(st *Stroke) bool {
	m := s.Material(st.Material)
	return m != nil && (m.Lock || m.Hide)
}

// IsHole reports whether st's material is a holdout.
func (s *Scene) IsHole(st *Stroke) bool {
	m := s.Material(st.Material)
	return m != nil && m.Holdout
}

// HoldoutCache remembers, per source material index, the index of its
// holdout variant. One cache serves one operator run.
type HoldoutCache map[int]int

// Holdout switches st to the holdout variant of its material. A material
// that already holds out is left alone; otherwise an existing
// "<name>_Holdout" material is reused, or a copy with a black fill is
// added.
func (s *Scene) Holdout(st *Stroke, cache HoldoutCache) {
	src := s.Material(st.Material)
	if src == nil || src.Holdout {
		return
	}
	if i, ok := cache[st.Material]; ok {
		st.Material = i
		return
	}
	name := src.Name + HoldoutSuffix
	if i := s.MaterialIndex(name); i >= 0 {
		cache[st.Material] = i
		st.Material = i
		return
	}
	dst := *src
	dst.Name = name
	dst.FillColor = Black
	dst.Holdout = true
	i := s.AddMaterial(dst)
	cache[st.Material] = i
	st.Material = i
}
