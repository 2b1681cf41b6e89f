// Package config loads strokemesh settings from TOML files.
//
// A settings file only needs the keys it changes; everything else keeps
// the value from Default. Unknown keys are rejected so typos surface as
// errors instead of silently falling back.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/chazu/strokemesh/pkg/boolean"
	"github.com/chazu/strokemesh/pkg/clip"
	"github.com/chazu/strokemesh/pkg/clip/clipper"
	"github.com/chazu/strokemesh/pkg/convert"
	"github.com/chazu/strokemesh/pkg/engine"
	"github.com/chazu/strokemesh/pkg/extrude"
	"github.com/chazu/strokemesh/pkg/logging"
	"github.com/chazu/strokemesh/pkg/offset"
	"github.com/chazu/strokemesh/pkg/operator"
	"github.com/chazu/strokemesh/pkg/plane"
	"github.com/chazu/strokemesh/pkg/scene"
	"github.com/chazu/strokemesh/pkg/tess"
)

// DefaultFile is the settings file the CLI looks for when none is given.
const DefaultFile = "strokemesh.toml"

// Settings is the full configuration.
type Settings struct {
	Plane           string  `toml:"plane"`
	ScaleTarget     float64 `toml:"scale_target"`
	LineWidthFactor float64 `toml:"line_width_factor"`
	ClipBackend     string  `toml:"clip_backend"`
	Triangulator    string  `toml:"triangulator"`
	Beautify        bool    `toml:"beautify"`
	LogLevel        string  `toml:"log_level"`

	Offset      OffsetSettings      `toml:"offset"`
	Boolean     BooleanSettings     `toml:"boolean"`
	BooleanLast BooleanLastSettings `toml:"boolean_last"`
	Holes       HolesSettings       `toml:"holes"`
	Mesh        MeshSettings        `toml:"mesh"`
}

// OffsetSettings are the defaults of the offset operator.
type OffsetSettings struct {
	Amount          float64 `toml:"amount"`
	Falloff         float64 `toml:"falloff"`
	Corner          string  `toml:"corner"`
	Mode            string  `toml:"mode"`
	KeepOriginal    bool    `toml:"keep_original"`
	InvertHoldout   bool    `toml:"invert_holdout"`
	LineColor       string  `toml:"line_color"`
	LineColorFactor float64 `toml:"line_color_factor"`
	FillColor       string  `toml:"fill_color"`
	FillColorFactor float64 `toml:"fill_color_factor"`
}

// BooleanSettings are the defaults of the boolean operator.
type BooleanSettings struct {
	Op           string `toml:"op"`
	Inherit      string `toml:"inherit"`
	Sequence     string `toml:"sequence"`
	Clips        int    `toml:"clips"`
	KeepSubjects bool   `toml:"keep_subjects"`
	KeepClips    bool   `toml:"keep_clips"`
}

// BooleanLastSettings are the defaults of the boolean-with-last-stroke
// operator.
type BooleanLastSettings struct {
	Op           string `toml:"op"`
	ClipMode     string `toml:"clip_mode"`
	SameMaterial bool   `toml:"same_material"`
	FillOnly     bool   `toml:"fill_only"`
}

// HolesSettings are the defaults of hole processing.
type HolesSettings struct {
	Rearrange      bool `toml:"rearrange"`
	SeparateColors bool `toml:"separate_colors"`
}

// MeshSettings are the defaults of mesh generation.
type MeshSettings struct {
	Amount       float64 `toml:"amount"`
	Resolution   int     `toml:"resolution"`
	Corner       string  `toml:"corner"`
	Slope        string  `toml:"slope"`
	ShadeSmooth  bool    `toml:"shade_smooth"`
	KeepOriginal bool    `toml:"keep_original"`
	Mirror       bool    `toml:"mirror"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Plane:           plane.XZ.String(),
		ScaleTarget:     convert.DefaultScaleTarget,
		LineWidthFactor: operator.DefaultLineWidthFactor,
		ClipBackend:     clipper.Name,
		Triangulator:    tess.EarcutName,
		Beautify:        true,
		LogLevel:        "info",
		Offset: OffsetSettings{
			Corner:        "round",
			Mode:          "fill",
			InvertHoldout: true,
			LineColor:     "#ff0000",
			FillColor:     "#0000ff",
		},
		Boolean: BooleanSettings{
			Op:       "union",
			Inherit:  "subject",
			Sequence: "all",
			Clips:    1,
		},
		BooleanLast: BooleanLastSettings{
			Op:       "union",
			ClipMode: "fill",
		},
		Holes: HolesSettings{Rearrange: true},
		Mesh: MeshSettings{
			Amount:       0.1,
			Resolution:   4,
			Corner:       "round",
			Slope:        "sphere",
			KeepOriginal: true,
			Mirror:       true,
		},
	}
}

// Read decodes TOML from r on top of the defaults and validates the
// result.
func Read(r io.Reader) (Settings, error) {
	s := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Settings{}, fmt.Errorf("config: unknown keys:\n%s", strict.String())
		}
		return Settings{}, fmt.Errorf("config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Open reads settings from filename.
func Open(filename string) (Settings, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return Settings{}, fmt.Errorf("config: %w", err)
	}
	defer fp.Close()
	s, err := Read(bufio.NewReader(fp))
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", filename, err)
	}
	logging.Logger().Debug("loaded settings", "file", filename)
	return s, nil
}

// Encode writes s as TOML.
func (s Settings) Encode(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(s)
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate reports every invalid setting at once.
func (s Settings) Validate() error {
	var errs []error
	check := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	_, err := plane.Parse(s.Plane)
	check(err)
	if s.ScaleTarget <= 0 {
		check(fmt.Errorf("scale_target must be positive, got %g", s.ScaleTarget))
	}
	if s.LineWidthFactor <= 0 {
		check(fmt.Errorf("line_width_factor must be positive, got %g", s.LineWidthFactor))
	}
	if s.ClipBackend == "" {
		check(errors.New("clip_backend must not be empty"))
	}
	if s.Triangulator == "" {
		check(errors.New("triangulator must not be empty"))
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		check(fmt.Errorf("invalid log_level %q, expected debug, info, warn or error", s.LogLevel))
	}

	_, err = s.OffsetOperator()
	check(err)
	_, err = s.BooleanOperator()
	check(err)
	_, err = s.BooleanLastOperator()
	check(err)
	_, err = s.MeshOperator()
	check(err)

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

// WorkingPlane returns the configured plane.
func (s Settings) WorkingPlane() (plane.WorkingPlane, error) {
	return plane.Parse(s.Plane)
}

// Level returns the configured log level.
func (s Settings) Level() slog.Level {
	return logging.ParseLevel(s.LogLevel)
}

// Env looks up the configured geometry backends.
func (s Settings) Env() (operator.Env, error) {
	b, err := clip.Lookup(s.ClipBackend)
	if err != nil {
		return operator.Env{}, err
	}
	t, err := tess.Lookup(s.Triangulator)
	if err != nil {
		return operator.Env{}, err
	}
	if ec, ok := t.(*tess.EarClipper); ok {
		ec.Beautify = s.Beautify
	}
	return operator.Env{
		Clip:            b,
		Tess:            t,
		ScaleTarget:     s.ScaleTarget,
		LineWidthFactor: s.LineWidthFactor,
	}, nil
}

// EngineOptions returns the defaults scripts start from.
func (s Settings) EngineOptions() (engine.Options, error) {
	var opts engine.Options
	var err error
	if opts.Plane, err = s.WorkingPlane(); err != nil {
		return opts, err
	}
	if opts.Offset, err = s.OffsetOperator(); err != nil {
		return opts, err
	}
	if opts.Boolean, err = s.BooleanOperator(); err != nil {
		return opts, err
	}
	if opts.BooleanLast, err = s.BooleanLastOperator(); err != nil {
		return opts, err
	}
	if opts.Mesh, err = s.MeshOperator(); err != nil {
		return opts, err
	}
	opts.Holes = s.HolesOperator()
	return opts, nil
}

// OffsetOperator returns the configured offset defaults.
func (s Settings) OffsetOperator() (operator.Offset, error) {
	o := operator.DefaultOffset()
	c := s.Offset
	var err error
	if o.Join, err = clip.ParseJoin(c.Corner); err != nil {
		return o, fmt.Errorf("offset: %w", err)
	}
	if o.Mode, err = offset.ParseMode(c.Mode); err != nil {
		return o, fmt.Errorf("offset: %w", err)
	}
	if o.LineColor, err = scene.ParseColor(c.LineColor); err != nil {
		return o, fmt.Errorf("offset line_color: %w", err)
	}
	if o.FillColor, err = scene.ParseColor(c.FillColor); err != nil {
		return o, fmt.Errorf("offset fill_color: %w", err)
	}
	if c.Falloff < 0 {
		return o, fmt.Errorf("offset: falloff must not be negative, got %g", c.Falloff)
	}
	for _, f := range []float64{c.LineColorFactor, c.FillColorFactor} {
		if f < 0 || f > 1 {
			return o, fmt.Errorf("offset: colour factor %g outside [0, 1]", f)
		}
	}
	o.Amount = c.Amount
	o.Falloff = c.Falloff
	o.KeepOriginal = c.KeepOriginal
	o.InvertHoldout = c.InvertHoldout
	o.LineColorFactor = c.LineColorFactor
	o.FillColorFactor = c.FillColorFactor
	return o, nil
}

// BooleanOperator returns the configured boolean defaults.
func (s Settings) BooleanOperator() (operator.Boolean, error) {
	b := operator.DefaultBoolean()
	c := s.Boolean
	var err error
	if b.Op, err = clip.ParseOp(c.Op); err != nil {
		return b, fmt.Errorf("boolean: %w", err)
	}
	if b.Inherit, err = boolean.ParseInherit(c.Inherit); err != nil {
		return b, fmt.Errorf("boolean: %w", err)
	}
	if b.Sequence, err = boolean.ParseSequence(c.Sequence); err != nil {
		return b, fmt.Errorf("boolean: %w", err)
	}
	if c.Clips < 1 {
		return b, fmt.Errorf("boolean: clips must be at least 1, got %d", c.Clips)
	}
	b.Clips = c.Clips
	b.KeepSubjects = c.KeepSubjects
	b.KeepClips = c.KeepClips
	return b, nil
}

// BooleanLastOperator returns the configured boolean-with-last defaults.
func (s Settings) BooleanLastOperator() (operator.BooleanLast, error) {
	b := operator.DefaultBooleanLast()
	c := s.BooleanLast
	var err error
	if b.Op, err = clip.ParseOp(c.Op); err != nil {
		return b, fmt.Errorf("boolean_last: %w", err)
	}
	if b.ClipMode, err = operator.ParseClipMode(c.ClipMode); err != nil {
		return b, fmt.Errorf("boolean_last: %w", err)
	}
	b.SameMaterial = c.SameMaterial
	b.FillOnly = c.FillOnly
	return b, nil
}

// HolesOperator returns the configured hole processing defaults.
func (s Settings) HolesOperator() operator.Holes {
	return operator.Holes{Rearrange: s.Holes.Rearrange, SeparateColors: s.Holes.SeparateColors}
}

// MeshOperator returns the configured mesh generation defaults.
func (s Settings) MeshOperator() (operator.Mesh, error) {
	m := operator.DefaultMesh()
	c := s.Mesh
	var err error
	if m.Join, err = clip.ParseJoin(c.Corner); err != nil {
		return m, fmt.Errorf("mesh: %w", err)
	}
	if m.Slope, err = extrude.ParseSlope(c.Slope); err != nil {
		return m, fmt.Errorf("mesh: %w", err)
	}
	if c.Resolution < 1 || c.Resolution > extrude.MaxResolution {
		return m, fmt.Errorf("mesh: resolution %d outside [1, %d]", c.Resolution, extrude.MaxResolution)
	}
	m.Amount = c.Amount
	m.Resolution = c.Resolution
	m.Smooth = c.ShadeSmooth
	m.KeepOriginal = c.KeepOriginal
	m.Mirror = c.Mirror
	return m, nil
}
