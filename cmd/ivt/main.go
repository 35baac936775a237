// Command ivt computes integrated vapor transport from the eastward and
// northward vertically integrated water vapor flux components of two NetCDF
// files and writes the result to a third.
//
// Usage:
//
//	ivt -u uflux_1984.nc -v vflux_1984.nc -o ivt_1984.nc \
//	  -plot ivt_quicklook.png -plot-time 0
//
// Flags override the corresponding environment variables (UFLUX_FILE,
// VFLUX_FILE, OUTPUT_FILE, ...).
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/vaporlab/ivt-etl/internal/adapter/http"
	netcdfadapter "github.com/vaporlab/ivt-etl/internal/adapter/netcdf"
	"github.com/vaporlab/ivt-etl/internal/config"
	"github.com/vaporlab/ivt-etl/internal/observability"
	"github.com/vaporlab/ivt-etl/internal/pipeline"
	"github.com/vaporlab/ivt-etl/internal/render"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	flag.StringVar(&cfg.UPath, "u", cfg.UPath, "path to the eastward flux (uflux) NetCDF input")
	flag.StringVar(&cfg.VPath, "v", cfg.VPath, "path to the northward flux (vflux) NetCDF input")
	flag.StringVar(&cfg.OutPath, "o", cfg.OutPath, "path for the computed IVT NetCDF output")
	flag.StringVar(&cfg.UVar, "uvar", cfg.UVar, "variable name in the u input")
	flag.StringVar(&cfg.VVar, "vvar", cfg.VVar, "variable name in the v input")
	flag.StringVar(&cfg.PlotPath, "plot", cfg.PlotPath, "write a three-panel quicklook PNG to this path (empty disables)")
	flag.IntVar(&cfg.PlotTimeIndex, "plot-time", cfg.PlotTimeIndex, "time step rendered in the quicklook")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve /healthz, /readyz and /metrics on this address while running (empty disables)")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		flag.Usage()
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store := netcdfadapter.NewFileStore(logger)
	quicklook := render.NewQuicklook(logger)
	p := pipeline.New(store, store, quicklook, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.MetricsAddr != "" {
		srv = httpadapter.NewServer(cfg.MetricsAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	runErr := p.Run(ctx, pipeline.Job{
		UPath:         cfg.UPath,
		VPath:         cfg.VPath,
		OutPath:       cfg.OutPath,
		UVar:          cfg.UVar,
		VVar:          cfg.VVar,
		PlotPath:      cfg.PlotPath,
		PlotTimeIndex: cfg.PlotTimeIndex,
	})

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("pipeline failed", "error", runErr)
		os.Exit(1)
	}
}
