package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ctessum/sparse"
)

var (
	// ErrMissingInput indicates a declared input file does not exist.
	ErrMissingInput = errors.New("input file does not exist")

	// ErrVariableNotFound indicates the requested variable is absent from an
	// opened input file.
	ErrVariableNotFound = errors.New("variable not found")

	// ErrAxisMismatch indicates two fields do not share identical axes.
	ErrAxisMismatch = errors.New("fields do not share identical axes")
)

// Axis is one coordinate axis of a gridded field: an ordered sequence of
// coordinate values plus the CF units string describing them.
type Axis struct {
	Name   string
	Values []float64
	Units  string
}

// Len returns the number of coordinate values on the axis.
func (a Axis) Len() int { return len(a.Values) }

// Metadata holds the descriptive attributes of a field. Keys follow CF
// conventions; empty values are omitted on write.
type Metadata struct {
	Name         string // variable name in the file
	LongName     string
	StandardName string
	Title        string
	Units        string
}

// Field is a gridded physical quantity: a data array on a
// (time, latitude, longitude) grid with coordinate axes and descriptive
// metadata. Masked cells are NaN. Fields are not mutated after creation;
// derived fields share their parent's axes by reference.
type Field struct {
	Data *sparse.DenseArray // shape (time, latitude, longitude)
	Time Axis
	Lat  Axis
	Lon  Axis
	Meta Metadata

	// CreatedAt is set for derived fields and recorded as a history
	// attribute on write. Zero for fields loaded from a file.
	CreatedAt time.Time
}

// Shape returns the (time, latitude, longitude) dimension lengths.
func (f *Field) Shape() []int { return f.Data.Shape }

// Lats returns the latitude axis values.
func (f *Field) Lats() []float64 { return f.Lat.Values }

// Lons returns the longitude axis values.
func (f *Field) Lons() []float64 { return f.Lon.Values }

// Timestamps decodes the time axis to UTC timestamps using its CF units.
func (f *Field) Timestamps() ([]time.Time, error) {
	return ParseCFTime(f.Time.Units, f.Time.Values)
}

// MaskedCount returns the number of masked (NaN) cells in the data array.
func (f *Field) MaskedCount() int {
	n := 0
	for _, v := range f.Data.Elements {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Summary returns key/value pairs describing the field, suitable for
// structured logging.
func (f *Field) Summary() []any {
	return []any{
		"var", f.Meta.Name,
		"units", f.Meta.Units,
		"shape", f.Data.Shape,
		"tCnt", f.Time.Len(),
		"laCnt", f.Lat.Len(),
		"loCnt", f.Lon.Len(),
		"masked", f.MaskedCount(),
	}
}

// String returns a multi-line human-readable description of the field's
// shape, axes and attributes for diagnostic printing.
func (f *Field) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", f.Meta.Name, f.Meta.Units)
	if f.Meta.LongName != "" {
		fmt.Fprintf(&b, "  long_name: %s\n", f.Meta.LongName)
	}
	if f.Meta.StandardName != "" {
		fmt.Fprintf(&b, "  standard_name: %s\n", f.Meta.StandardName)
	}
	fmt.Fprintf(&b, "  shape: %v\n", f.Data.Shape)
	fmt.Fprintf(&b, "  %s: %d values [%s]\n", f.Time.Name, f.Time.Len(), f.Time.Units)
	fmt.Fprintf(&b, "  %s: %d values%s\n", f.Lat.Name, f.Lat.Len(), axisRange(f.Lat))
	fmt.Fprintf(&b, "  %s: %d values%s\n", f.Lon.Name, f.Lon.Len(), axisRange(f.Lon))
	fmt.Fprintf(&b, "  masked cells: %d", f.MaskedCount())
	return b.String()
}

func axisRange(a Axis) string {
	if a.Len() == 0 {
		return ""
	}
	return fmt.Sprintf(" (%g to %g)", a.Values[0], a.Values[a.Len()-1])
}
