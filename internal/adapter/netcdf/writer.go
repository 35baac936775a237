package netcdf

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"github.com/vaporlab/ivt-etl/internal/domain"
)

// fillValue marks masked cells in written files. 1e20 is the conventional
// fill for float data in CDAT/cdms-produced files.
const fillValue = 1e20

// Write serializes the field's data, axes and metadata to a NetCDF classic
// file at path, overwriting any existing file. NaN cells are written as the
// fill value, with _FillValue and missing_value attributes set accordingly.
func (s *FileStore) Write(ctx context.Context, path string, f *domain.Field) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Meta.Name == "" {
		return fmt.Errorf("write %s: field has no variable name", path)
	}

	// Overwrite semantics: a stale file must not survive a rewrite.
	_ = os.Remove(path)

	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	for _, ax := range []domain.Axis{f.Time, f.Lat, f.Lon} {
		if err := addAxis(cw, ax); err != nil {
			return fmt.Errorf("write %s: axis %q: %w", path, ax.Name, err)
		}
	}

	attrs, err := dataAttrs(f)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	err = cw.AddVar(f.Meta.Name, api.Variable{
		Values:     gridValues(f),
		Dimensions: []string{f.Time.Name, f.Lat.Name, f.Lon.Name},
		Attributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("write %s: variable %q: %w", path, f.Meta.Name, err)
	}

	if err := cw.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	s.logger.Info("field written", "path", path, "var", f.Meta.Name, "shape", f.Data.Shape)
	return nil
}

func addAxis(cw *cdf.CDFWriter, ax domain.Axis) error {
	if ax.Name == "" {
		return fmt.Errorf("axis has no name")
	}
	var attrs api.AttributeMap
	if ax.Units != "" {
		var err error
		attrs, err = util.NewOrderedMap([]string{"units"}, map[string]any{"units": ax.Units})
		if err != nil {
			return err
		}
	}
	return cw.AddVar(ax.Name, api.Variable{
		Values:     ax.Values,
		Dimensions: []string{ax.Name},
		Attributes: attrs,
	})
}

// dataAttrs assembles the variable's attribute map: the descriptive metadata
// block, the fill value, and a history stamp for derived fields.
func dataAttrs(f *domain.Field) (api.AttributeMap, error) {
	keys := make([]string, 0, 7)
	vals := make(map[string]any, 7)
	add := func(key string, val any) {
		keys = append(keys, key)
		vals[key] = val
	}

	if f.Meta.LongName != "" {
		add("long_name", f.Meta.LongName)
	}
	if f.Meta.StandardName != "" {
		add("standard_name", f.Meta.StandardName)
	}
	if f.Meta.Title != "" {
		add("title", f.Meta.Title)
	}
	add("units", f.Meta.Units)
	add("_FillValue", float64(fillValue))
	add("missing_value", float64(fillValue))
	if !f.CreatedAt.IsZero() {
		add("history", "created "+f.CreatedAt.Format(time.RFC3339))
	}
	return util.NewOrderedMap(keys, vals)
}

// gridValues converts the dense array to the nested-slice form the writer
// expects, substituting the fill value for NaN cells.
func gridValues(f *domain.Field) [][][]float64 {
	nt, nla, nlo := f.Data.Shape[0], f.Data.Shape[1], f.Data.Shape[2]
	out := make([][][]float64, nt)
	k := 0
	for t := 0; t < nt; t++ {
		out[t] = make([][]float64, nla)
		for j := 0; j < nla; j++ {
			row := make([]float64, nlo)
			for i := 0; i < nlo; i++ {
				v := f.Data.Elements[k]
				if math.IsNaN(v) {
					v = fillValue
				}
				row[i] = v
				k++
			}
			out[t][j] = row
		}
	}
	return out
}
