// Command ncinfo prints a summary of one or more NetCDF files: every
// variable with its dimensions and attributes, plus a decoded field summary
// for three-dimensional (time, latitude, longitude) variables. Useful for
// inspecting inputs before a pipeline run.
//
// Usage:
//
//	go run ./cmd/ncinfo uflux_1984.nc vflux_1984.nc
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"reflect"

	gonetcdf "github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	netcdfadapter "github.com/vaporlab/ivt-etl/internal/adapter/netcdf"
	"github.com/vaporlab/ivt-etl/internal/domain"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s file.nc [file.nc ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	code := 0
	for _, path := range flag.Args() {
		if err := describe(path); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			code = 1
		}
	}
	os.Exit(code)
}

func describe(path string) error {
	nc, err := gonetcdf.Open(path)
	if err != nil {
		return err
	}
	defer nc.Close()

	fmt.Printf("=== %s ===\n", path)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store := netcdfadapter.NewFileStore(logger)

	for _, name := range nc.ListVariables() {
		vr, err := nc.GetVariable(name)
		if err != nil {
			return fmt.Errorf("variable %q: %w", name, err)
		}

		if len(vr.Dimensions) == 3 {
			f, err := store.Load(context.Background(), path, name)
			if err == nil {
				fmt.Println(f)
				continue
			}
			// Fall back to the raw listing for grids the loader cannot
			// decode, such as those missing a coordinate variable.
			if !errors.Is(err, domain.ErrVariableNotFound) {
				fmt.Fprintf(os.Stderr, "  note: %v\n", err)
			}
		}

		fmt.Printf("%s\n", name)
		fmt.Printf("  dimensions: %v\n", vr.Dimensions)
		fmt.Printf("  shape: %v\n", shapeOf(vr.Values))
		printAttrs(vr.Attributes)
	}
	return nil
}

// shapeOf walks nested slices to recover the dimension lengths of a value.
func shapeOf(values any) []int {
	var shape []int
	v := reflect.ValueOf(values)
	for v.Kind() == reflect.Slice {
		shape = append(shape, v.Len())
		if v.Len() == 0 {
			break
		}
		v = v.Index(0)
	}
	return shape
}

func printAttrs(attrs api.AttributeMap) {
	if attrs == nil {
		return
	}
	for _, key := range attrs.Keys() {
		if val, has := attrs.Get(key); has {
			fmt.Printf("  %s: %v\n", key, val)
		}
	}
}
