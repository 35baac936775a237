// Package netcdf adapts NetCDF files to the domain Field type. It implements
// the pipeline's FieldLoader and FieldWriter interfaces.
package netcdf

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	gonetcdf "github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/ctessum/sparse"

	"github.com/vaporlab/ivt-etl/internal/domain"
)

// FileStore reads and writes gridded fields as NetCDF files.
type FileStore struct {
	logger *slog.Logger
}

// NewFileStore creates a NetCDF-backed field store.
func NewFileStore(logger *slog.Logger) *FileStore {
	return &FileStore{logger: logger}
}

// Load opens the file at path and reads the named variable into a Field,
// together with its (time, latitude, longitude) coordinate axes and
// descriptive attributes. Packed int16 variables are decoded via
// scale_factor/add_offset; fill values become NaN.
func (s *FileStore) Load(ctx context.Context, path, variable string) (*domain.Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nc, err := gonetcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer nc.Close()

	vr, err := nc.GetVariable(variable)
	if err != nil {
		return nil, fmt.Errorf("%w: %q in %s (file has: %s)",
			domain.ErrVariableNotFound, variable, path, strings.Join(nc.ListVariables(), ", "))
	}
	if len(vr.Dimensions) != 3 {
		return nil, fmt.Errorf("variable %q in %s: want 3 dimensions (time, latitude, longitude), got %v",
			variable, path, vr.Dimensions)
	}

	var axes [3]domain.Axis
	for i, dim := range vr.Dimensions {
		axes[i], err = readAxis(nc, dim)
		if err != nil {
			return nil, fmt.Errorf("axis %q of %q in %s: %w", dim, variable, path, err)
		}
	}

	data, err := decodeGrid(vr)
	if err != nil {
		return nil, fmt.Errorf("variable %q in %s: %w", variable, path, err)
	}

	f := &domain.Field{
		Data: data,
		Time: axes[0],
		Lat:  axes[1],
		Lon:  axes[2],
		Meta: domain.Metadata{
			Name:         variable,
			LongName:     attrString(vr.Attributes, "long_name"),
			StandardName: attrString(vr.Attributes, "standard_name"),
			Title:        attrString(vr.Attributes, "title"),
			Units:        attrString(vr.Attributes, "units"),
		},
	}
	s.logger.Debug("field loaded", append([]any{"path", path}, f.Summary()...)...)
	return f, nil
}

// readAxis reads the coordinate variable that shares its dimension's name.
func readAxis(nc api.Group, name string) (domain.Axis, error) {
	vr, err := nc.GetVariable(name)
	if err != nil {
		return domain.Axis{}, fmt.Errorf("no coordinate variable: %w", err)
	}
	vals, err := toFloat64s(vr.Values)
	if err != nil {
		return domain.Axis{}, err
	}
	return domain.Axis{
		Name:   name,
		Values: vals,
		Units:  attrString(vr.Attributes, "units"),
	}, nil
}

// decodeGrid converts a 3-D variable of any supported element type into a
// dense float64 array with fill values replaced by NaN.
func decodeGrid(vr *api.Variable) (*sparse.DenseArray, error) {
	fill, hasFill := attrFloat(vr.Attributes, "_FillValue")
	if !hasFill {
		fill, hasFill = attrFloat(vr.Attributes, "missing_value")
	}

	switch vals := vr.Values.(type) {
	case [][][]float64:
		return decodeFloats(vals, fill, hasFill, func(x float64) float64 { return x }), nil
	case [][][]float32:
		return decodeFloats(vals, fill, hasFill, func(x float32) float64 { return float64(x) }), nil
	case [][][]int16:
		scale, hasScale := attrFloat(vr.Attributes, "scale_factor")
		if !hasScale {
			scale = 1
		}
		offset, _ := attrFloat(vr.Attributes, "add_offset")
		return decodePacked(vals, fill, hasFill, scale, offset), nil
	default:
		return nil, fmt.Errorf("unsupported data type %T", vr.Values)
	}
}

func decodeFloats[T float32 | float64](vals [][][]T, fill float64, hasFill bool, conv func(T) float64) *sparse.DenseArray {
	d := sparse.ZerosDense(len(vals), len(vals[0]), len(vals[0][0]))
	k := 0
	for _, plane := range vals {
		for _, row := range plane {
			for _, v := range row {
				x := conv(v)
				if hasFill && x == fill {
					x = math.NaN()
				}
				d.Elements[k] = x
				k++
			}
		}
	}
	return d
}

// decodePacked unpacks ERA5-style int16 data: raw*scale_factor + add_offset,
// with the fill value compared against the raw integer.
func decodePacked(vals [][][]int16, fill float64, hasFill bool, scale, offset float64) *sparse.DenseArray {
	d := sparse.ZerosDense(len(vals), len(vals[0]), len(vals[0][0]))
	k := 0
	for _, plane := range vals {
		for _, row := range plane {
			for _, v := range row {
				if hasFill && float64(v) == fill {
					d.Elements[k] = math.NaN()
				} else {
					d.Elements[k] = float64(v)*scale + offset
				}
				k++
			}
		}
	}
	return d
}

// toFloat64s widens a 1-D coordinate array of any supported type.
func toFloat64s(values any) ([]float64, error) {
	switch v := values.(type) {
	case []float64:
		return v, nil
	case []float32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int64:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported coordinate type %T", values)
	}
}

// attrString fetches a string attribute, returning "" when absent.
func attrString(attrs api.AttributeMap, key string) string {
	if attrs == nil {
		return ""
	}
	v, has := attrs.Get(key)
	if !has {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case []string:
		if len(x) > 0 {
			return x[0]
		}
	}
	return ""
}

// attrFloat fetches a numeric attribute. Scalar attributes may surface as
// single-element slices depending on how the file was written.
func attrFloat(attrs api.AttributeMap, key string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	v, has := attrs.Get(key)
	if !has {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case []float64:
		if len(x) > 0 {
			return x[0], true
		}
	case []float32:
		if len(x) > 0 {
			return float64(x[0]), true
		}
	case []int16:
		if len(x) > 0 {
			return float64(x[0]), true
		}
	case []int32:
		if len(x) > 0 {
			return float64(x[0]), true
		}
	}
	return 0, false
}
