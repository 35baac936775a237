package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaporlab/ivt-etl/internal/domain"
	"github.com/vaporlab/ivt-etl/internal/observability"
	"github.com/vaporlab/ivt-etl/internal/pipeline"
)

// --- mocks ---

type mockLoader struct {
	fields map[string]*domain.Field // keyed by variable name
	err    error
	calls  []string
}

func (m *mockLoader) Load(_ context.Context, path, variable string) (*domain.Field, error) {
	m.calls = append(m.calls, variable)
	if m.err != nil {
		return nil, m.err
	}
	f, ok := m.fields[variable]
	if !ok {
		return nil, domain.ErrVariableNotFound
	}
	return f, nil
}

type mockWriter struct {
	path    string
	written *domain.Field
	err     error
}

func (m *mockWriter) Write(_ context.Context, path string, f *domain.Field) error {
	if m.err != nil {
		return m.err
	}
	m.path = path
	m.written = f
	return nil
}

type mockRenderer struct {
	calls     int
	timeIndex int
	path      string
}

func (m *mockRenderer) Render(_, _, _ *domain.Field, timeIndex int, path string) error {
	m.calls++
	m.timeIndex = timeIndex
	m.path = path
	return nil
}

// --- helpers ---

func fluxField(name string, val float64) *domain.Field {
	d := sparse.ZerosDense(1, 1, 1)
	d.Elements[0] = val
	return &domain.Field{
		Data: d,
		Time: domain.Axis{Name: "time", Values: []float64{0}, Units: "hours since 1984-01-01 00:00:00"},
		Lat:  domain.Axis{Name: "latitude", Values: []float64{45}, Units: "degrees_north"},
		Lon:  domain.Axis{Name: "longitude", Values: []float64{120}, Units: "degrees_east"},
		Meta: domain.Metadata{Name: name, Units: "kg/m/s"},
	}
}

// touch creates an empty placeholder file so checkInputs passes.
func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}

func newTestPipeline(loader *mockLoader, writer *mockWriter, renderer *mockRenderer) *pipeline.Pipeline {
	return pipeline.New(loader, writer, renderer, slog.Default(), observability.NewMetricsForTesting())
}

// --- tests ---

func TestRun_HappyPath(t *testing.T) {
	dir := t.TempDir()
	loader := &mockLoader{fields: map[string]*domain.Field{
		"uflux": fluxField("uflux", 3),
		"vflux": fluxField("vflux", 4),
	}}
	writer := &mockWriter{}
	renderer := &mockRenderer{}
	p := newTestPipeline(loader, writer, renderer)

	job := pipeline.Job{
		UPath:   touch(t, dir, "u.nc"),
		VPath:   touch(t, dir, "v.nc"),
		OutPath: filepath.Join(dir, "ivt.nc"),
		UVar:    "uflux",
		VVar:    "vflux",
	}
	require.NoError(t, p.Run(context.Background(), job))

	require.NotNil(t, writer.written)
	assert.Equal(t, job.OutPath, writer.path)
	assert.Equal(t, "ivt", writer.written.Meta.Name)
	assert.InDelta(t, 5.0, writer.written.Data.Get(0, 0, 0), 1e-12)
	assert.Equal(t, []string{"uflux", "vflux"}, loader.calls)
	assert.Zero(t, renderer.calls, "renderer must stay idle without a plot path")

	if diff := cmp.Diff(loader.fields["uflux"].Lat, writer.written.Lat); diff != "" {
		t.Errorf("latitude axis mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_MissingUFileCheckedBeforeV(t *testing.T) {
	dir := t.TempDir()
	loader := &mockLoader{}
	p := newTestPipeline(loader, &mockWriter{}, &mockRenderer{})

	// Neither input exists; the error must name the u path.
	uPath := filepath.Join(dir, "u.nc")
	err := p.Run(context.Background(), pipeline.Job{
		UPath:   uPath,
		VPath:   filepath.Join(dir, "v.nc"),
		OutPath: filepath.Join(dir, "ivt.nc"),
		UVar:    "uflux",
		VVar:    "vflux",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingInput)
	assert.Contains(t, err.Error(), uPath)
	assert.Empty(t, loader.calls, "no file may be opened when a precondition fails")
}

func TestRun_MissingVFile(t *testing.T) {
	dir := t.TempDir()
	p := newTestPipeline(&mockLoader{}, &mockWriter{}, &mockRenderer{})

	vPath := filepath.Join(dir, "v.nc")
	err := p.Run(context.Background(), pipeline.Job{
		UPath:   touch(t, dir, "u.nc"),
		VPath:   vPath,
		OutPath: filepath.Join(dir, "ivt.nc"),
		UVar:    "uflux",
		VVar:    "vflux",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingInput)
	assert.Contains(t, err.Error(), vPath)
}

func TestRun_VariableNotFound(t *testing.T) {
	dir := t.TempDir()
	loader := &mockLoader{fields: map[string]*domain.Field{
		"uflux": fluxField("uflux", 3),
	}}
	p := newTestPipeline(loader, &mockWriter{}, &mockRenderer{})

	err := p.Run(context.Background(), pipeline.Job{
		UPath:   touch(t, dir, "u.nc"),
		VPath:   touch(t, dir, "v.nc"),
		OutPath: filepath.Join(dir, "ivt.nc"),
		UVar:    "uflux",
		VVar:    "wrong",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVariableNotFound)
}

func TestRun_AxisMismatchAborts(t *testing.T) {
	dir := t.TempDir()
	v := fluxField("vflux", 4)
	v.Lat = domain.Axis{Name: "latitude", Values: []float64{-45}, Units: "degrees_north"}
	loader := &mockLoader{fields: map[string]*domain.Field{
		"uflux": fluxField("uflux", 3),
		"vflux": v,
	}}
	writer := &mockWriter{}
	p := newTestPipeline(loader, writer, &mockRenderer{})

	err := p.Run(context.Background(), pipeline.Job{
		UPath:   touch(t, dir, "u.nc"),
		VPath:   touch(t, dir, "v.nc"),
		OutPath: filepath.Join(dir, "ivt.nc"),
		UVar:    "uflux",
		VVar:    "vflux",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAxisMismatch)
	assert.Nil(t, writer.written)
}

func TestRun_WriteFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	loader := &mockLoader{fields: map[string]*domain.Field{
		"uflux": fluxField("uflux", 3),
		"vflux": fluxField("vflux", 4),
	}}
	writeErr := errors.New("disk full")
	p := newTestPipeline(loader, &mockWriter{err: writeErr}, &mockRenderer{})

	err := p.Run(context.Background(), pipeline.Job{
		UPath:   touch(t, dir, "u.nc"),
		VPath:   touch(t, dir, "v.nc"),
		OutPath: filepath.Join(dir, "ivt.nc"),
		UVar:    "uflux",
		VVar:    "vflux",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, writeErr)
}

func TestRun_RendersWhenPlotPathSet(t *testing.T) {
	dir := t.TempDir()
	loader := &mockLoader{fields: map[string]*domain.Field{
		"uflux": fluxField("uflux", 3),
		"vflux": fluxField("vflux", 4),
	}}
	renderer := &mockRenderer{}
	p := newTestPipeline(loader, &mockWriter{}, renderer)

	plotPath := filepath.Join(dir, "quicklook.png")
	require.NoError(t, p.Run(context.Background(), pipeline.Job{
		UPath:         touch(t, dir, "u.nc"),
		VPath:         touch(t, dir, "v.nc"),
		OutPath:       filepath.Join(dir, "ivt.nc"),
		UVar:          "uflux",
		VVar:          "vflux",
		PlotPath:      plotPath,
		PlotTimeIndex: 0,
	}))
	assert.Equal(t, 1, renderer.calls)
	assert.Equal(t, plotPath, renderer.path)
}

func TestCheckReadiness(t *testing.T) {
	dir := t.TempDir()
	loader := &mockLoader{fields: map[string]*domain.Field{
		"uflux": fluxField("uflux", 3),
		"vflux": fluxField("vflux", 4),
	}}
	p := newTestPipeline(loader, &mockWriter{}, &mockRenderer{})

	require.Error(t, p.CheckReadiness(context.Background()))

	require.NoError(t, p.Run(context.Background(), pipeline.Job{
		UPath:   touch(t, dir, "u.nc"),
		VPath:   touch(t, dir, "v.nc"),
		OutPath: filepath.Join(dir, "ivt.nc"),
		UVar:    "uflux",
		VVar:    "vflux",
	}))
	assert.NoError(t, p.CheckReadiness(context.Background()))
}
