package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/strokemesh/pkg/boolean"
	"github.com/chazu/strokemesh/pkg/clip"
	"github.com/chazu/strokemesh/pkg/engine"
	"github.com/chazu/strokemesh/pkg/extrude"
	"github.com/chazu/strokemesh/pkg/offset"
	"github.com/chazu/strokemesh/pkg/operator"
	"github.com/chazu/strokemesh/pkg/plane"
	"github.com/chazu/strokemesh/pkg/tess"
)

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())

	p, err := s.WorkingPlane()
	require.NoError(t, err)
	assert.Equal(t, plane.XZ, p)
	assert.Equal(t, slog.LevelInfo, s.Level())

	off, err := s.OffsetOperator()
	require.NoError(t, err)
	assert.Equal(t, operator.DefaultOffset(), off)

	b, err := s.BooleanOperator()
	require.NoError(t, err)
	assert.Equal(t, operator.DefaultBoolean(), b)

	bl, err := s.BooleanLastOperator()
	require.NoError(t, err)
	assert.Equal(t, operator.DefaultBooleanLast(), bl)

	assert.Equal(t, operator.DefaultHoles(), s.HolesOperator())

	m, err := s.MeshOperator()
	require.NoError(t, err)
	assert.Equal(t, operator.DefaultMesh(), m)

	opts, err := s.EngineOptions()
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultOptions(), opts)
}

func TestReadOverridesDefaults(t *testing.T) {
	src := `
plane = "X-Y"
log_level = "debug"
beautify = false

[offset]
amount = -0.5
corner = "miter"
mode = "corner"

[boolean]
op = "difference"
inherit = "clip"
sequence = "each"
clips = 2

[boolean_last]
clip_mode = "line"

[mesh]
resolution = 8
slope = "step"
`
	s, err := Read(strings.NewReader(src))
	require.NoError(t, err)

	p, err := s.WorkingPlane()
	require.NoError(t, err)
	assert.Equal(t, plane.XY, p)
	assert.Equal(t, slog.LevelDebug, s.Level())
	assert.Equal(t, 8192.0, s.ScaleTarget, "untouched keys keep defaults")

	off, err := s.OffsetOperator()
	require.NoError(t, err)
	assert.Equal(t, -0.5, off.Amount)
	assert.Equal(t, clip.JoinMiter, off.Join)
	assert.Equal(t, offset.Corner, off.Mode)
	assert.True(t, off.InvertHoldout)

	b, err := s.BooleanOperator()
	require.NoError(t, err)
	assert.Equal(t, clip.Difference, b.Op)
	assert.Equal(t, boolean.InheritClip, b.Inherit)
	assert.Equal(t, boolean.Each, b.Sequence)
	assert.Equal(t, 2, b.Clips)

	bl, err := s.BooleanLastOperator()
	require.NoError(t, err)
	assert.Equal(t, operator.ClipLine, bl.ClipMode)

	m, err := s.MeshOperator()
	require.NoError(t, err)
	assert.Equal(t, 8, m.Resolution)
	assert.Equal(t, extrude.Step, m.Slope)
	assert.Equal(t, 0.1, m.Amount)

	env, err := s.Env()
	require.NoError(t, err)
	ec, ok := env.Tess.(*tess.EarClipper)
	require.True(t, ok)
	assert.False(t, ec.Beautify)
}

func TestReadRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown key", "colour = 1", "unknown keys"},
		{"unknown table key", "[mesh]\nsmooth_level = 2", "unknown keys"},
		{"syntax", "plane = ", "config"},
		{"plane", `plane = "X-W"`, "working plane"},
		{"scale target", "scale_target = 0.0", "scale_target"},
		{"line width factor", "line_width_factor = -1.0", "line_width_factor"},
		{"log level", `log_level = "loud"`, "log_level"},
		{"corner", "[offset]\ncorner = \"bevel\"", "corner"},
		{"colour", "[offset]\nline_color = \"red\"", "line_color"},
		{"factor", "[offset]\nfill_color_factor = 2.0", "colour factor"},
		{"op", "[boolean]\nop = \"merge\"", "boolean operation"},
		{"clips", "[boolean]\nclips = 0", "clips"},
		{"clip mode", "[boolean_last]\nclip_mode = \"area\"", "clip mode"},
		{"resolution low", "[mesh]\nresolution = 0", "resolution"},
		{"resolution high", "[mesh]\nresolution = 300", "resolution"},
		{"slope", "[mesh]\nslope = \"cone\"", "slope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateReportsEverything(t *testing.T) {
	s := Default()
	s.Plane = "nope"
	s.Mesh.Resolution = 0
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "working plane")
	assert.Contains(t, err.Error(), "resolution")
}

func TestEnvUnknownBackend(t *testing.T) {
	s := Default()
	s.ClipBackend = "polybool"
	_, err := s.Env()
	assert.ErrorIs(t, err, clip.ErrMissingDependency)

	s = Default()
	s.Triangulator = "libtess"
	_, err = s.Env()
	assert.ErrorIs(t, err, clip.ErrMissingDependency)
}

func TestOpenAndEncode(t *testing.T) {
	var buf bytes.Buffer
	want := Default()
	want.Holes.SeparateColors = true
	require.NoError(t, want.Encode(&buf))

	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	got, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Open(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
