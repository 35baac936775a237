// Package render draws diagnostic quicklook images of gridded fields.
package render

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/vaporlab/ivt-etl/internal/domain"
)

// Quicklook renders three vertically stacked heat-map panels (u, v,
// magnitude) for one time step. Diagnostic only; the PNG is not part of the
// data contract.
type Quicklook struct {
	logger *slog.Logger
}

// NewQuicklook creates a quicklook renderer.
func NewQuicklook(logger *slog.Logger) *Quicklook {
	return &Quicklook{logger: logger}
}

// Render writes the three-panel PNG to path. The panels share the u field's
// axes and are titled with the timestamp and each field's name.
func (q *Quicklook) Render(u, v, ivt *domain.Field, timeIndex int, path string) error {
	if timeIndex < 0 || timeIndex >= u.Time.Len() {
		return fmt.Errorf("time index %d out of range [0, %d)", timeIndex, u.Time.Len())
	}

	stamp := timeStamp(u, timeIndex)
	panels := []*domain.Field{u, v, ivt}

	plots := make([][]*plot.Plot, len(panels))
	for i, f := range panels {
		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s %s (%s)", stamp, f.Meta.Name, f.Meta.Units)
		p.X.Label.Text = "longitude"
		p.Y.Label.Text = "latitude"
		p.Add(plotter.NewHeatMap(newGrid(f, timeIndex), palette.Heat(16, 255)))
		plots[i] = []*plot.Plot{p}
	}

	img := vgimg.New(16*vg.Centimeter, 24*vg.Centimeter)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: len(panels),
		Cols: 1,
		PadY: vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer w.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// timeStamp labels the rendered time step, falling back to the raw index
// when the time axis units cannot be decoded.
func timeStamp(f *domain.Field, timeIndex int) string {
	ts, err := f.Timestamps()
	if err != nil {
		return fmt.Sprintf("t=%d", timeIndex)
	}
	return ts[timeIndex].Format("2006-01-02 15:04")
}

// grid adapts one time slice of a field to plotter.GridXYZ. The heat map
// needs ascending coordinates, so a descending latitude axis (common in
// reanalysis files) is flipped, and masked cells are painted at the slice
// minimum.
type grid struct {
	f     *domain.Field
	t     int
	flip  bool
	floor float64
}

func newGrid(f *domain.Field, t int) grid {
	g := grid{f: f, t: t}
	lats := f.Lat.Values
	g.flip = len(lats) > 1 && lats[0] > lats[len(lats)-1]

	g.floor = math.Inf(1)
	for j := 0; j < f.Lat.Len(); j++ {
		for i := 0; i < f.Lon.Len(); i++ {
			if v := f.Data.Get(t, j, i); !math.IsNaN(v) && v < g.floor {
				g.floor = v
			}
		}
	}
	if math.IsInf(g.floor, 1) {
		g.floor = 0
	}
	return g
}

func (g grid) Dims() (c, r int) { return g.f.Lon.Len(), g.f.Lat.Len() }

func (g grid) X(c int) float64 { return g.f.Lon.Values[c] }

func (g grid) Y(r int) float64 {
	if g.flip {
		r = g.f.Lat.Len() - 1 - r
	}
	return g.f.Lat.Values[r]
}

func (g grid) Z(c, r int) float64 {
	if g.flip {
		r = g.f.Lat.Len() - 1 - r
	}
	v := g.f.Data.Get(g.t, r, c)
	if math.IsNaN(v) {
		return g.floor
	}
	return v
}
