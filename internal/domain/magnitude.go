package domain

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// Magnitude computes the integrated vapor transport field from the eastward
// and northward flux components: sqrt(u²+v²) per grid cell and time step.
// Masked (NaN) cells in either input are masked in the output.
//
// Both fields must share identical axes; the result inherits u's axes by
// reference and a fresh ivt metadata block with u's units ("" when absent).
func Magnitude(u, v *Field) (*Field, error) {
	if err := checkSameAxes(u, v); err != nil {
		return nil, err
	}

	out := sparse.ZerosDense(u.Data.Shape...)
	for i, uv := range u.Data.Elements {
		out.Elements[i] = math.Hypot(uv, v.Data.Elements[i])
	}

	return &Field{
		Data: out,
		Time: u.Time,
		Lat:  u.Lat,
		Lon:  u.Lon,
		Meta: Metadata{
			Name:         "ivt",
			LongName:     "integrated vapor transport (IVT)",
			StandardName: "integrated_vapor_transport",
			Title:        "integrated vapor transport (IVT)",
			Units:        u.Meta.Units,
		},
		CreatedAt: clock.Now().UTC(),
	}, nil
}

// checkSameAxes verifies the two fields live on the same grid: equal shapes
// and equal coordinate values on every axis.
func checkSameAxes(u, v *Field) error {
	if len(u.Data.Shape) != len(v.Data.Shape) {
		return fmt.Errorf("%w: shapes %v and %v", ErrAxisMismatch, u.Data.Shape, v.Data.Shape)
	}
	for i := range u.Data.Shape {
		if u.Data.Shape[i] != v.Data.Shape[i] {
			return fmt.Errorf("%w: shapes %v and %v", ErrAxisMismatch, u.Data.Shape, v.Data.Shape)
		}
	}
	for _, ax := range []struct {
		name string
		a, b Axis
	}{
		{"time", u.Time, v.Time},
		{"latitude", u.Lat, v.Lat},
		{"longitude", u.Lon, v.Lon},
	} {
		if !sameValues(ax.a.Values, ax.b.Values) {
			return fmt.Errorf("%w: %s coordinates differ", ErrAxisMismatch, ax.name)
		}
	}
	return nil
}

func sameValues(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
