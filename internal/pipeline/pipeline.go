// Package pipeline orchestrates the IVT batch run: locate inputs, load the
// two flux components, compute the magnitude, write the output file, and
// optionally render a quicklook.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/vaporlab/ivt-etl/internal/domain"
	"github.com/vaporlab/ivt-etl/internal/observability"
)

// FieldLoader reads a named variable from a gridded data file.
type FieldLoader interface {
	Load(ctx context.Context, path, variable string) (*domain.Field, error)
}

// FieldWriter serializes a field to a gridded data file.
type FieldWriter interface {
	Write(ctx context.Context, path string, f *domain.Field) error
}

// Renderer draws a quicklook image of the three fields at one time step.
type Renderer interface {
	Render(u, v, ivt *domain.Field, timeIndex int, path string) error
}

// Job names the files and variables of one pipeline run.
type Job struct {
	UPath, VPath, OutPath string
	UVar, VVar            string

	// PlotPath enables the quicklook when non-empty.
	PlotPath      string
	PlotTimeIndex int
}

// Pipeline runs the locate-load-compute-write-render sequence once.
type Pipeline struct {
	loader   FieldLoader
	writer   FieldWriter
	renderer Renderer
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(loader FieldLoader, writer FieldWriter, renderer Renderer, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		loader:   loader,
		writer:   writer,
		renderer: renderer,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once the output file has been written, or an
// error describing why the run is not yet complete.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("output has not been written yet")
	}
	return nil
}

// Run executes the batch sequence. It is one-shot: any failure aborts the
// run and is returned to the caller, no retries.
func (p *Pipeline) Run(ctx context.Context, job Job) error {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Fail fast before any expensive work; u is checked before v.
	if err := checkInputs(job.UPath, job.VPath); err != nil {
		return err
	}

	u, err := p.loadField(ctx, "load_u", job.UPath, job.UVar)
	if err != nil {
		return err
	}
	v, err := p.loadField(ctx, "load_v", job.VPath, job.VVar)
	if err != nil {
		return err
	}

	start := time.Now()
	ivt, err := domain.Magnitude(u, v)
	if err != nil {
		return fmt.Errorf("compute magnitude: %w", err)
	}
	p.observeStage("compute", start)
	p.metrics.CellsComputed.Add(float64(len(ivt.Data.Elements)))
	p.metrics.MaskedCells.Add(float64(ivt.MaskedCount()))
	p.logger.Info("magnitude computed", ivt.Summary()...)

	start = time.Now()
	if err := p.writer.Write(ctx, job.OutPath, ivt); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	p.observeStage("write", start)
	p.ready.Store(true)

	if job.PlotPath != "" {
		start = time.Now()
		if err := p.renderer.Render(u, v, ivt, job.PlotTimeIndex, job.PlotPath); err != nil {
			return fmt.Errorf("render quicklook: %w", err)
		}
		p.observeStage("render", start)
		p.logger.Info("quicklook rendered", "path", job.PlotPath, "timeIndex", job.PlotTimeIndex)
	}

	p.logger.Info("pipeline complete", "output", job.OutPath)
	return nil
}

func (p *Pipeline) loadField(ctx context.Context, stage, path, variable string) (*domain.Field, error) {
	start := time.Now()
	f, err := p.loader.Load(ctx, path, variable)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", variable, err)
	}
	p.observeStage(stage, start)
	p.metrics.FieldsLoaded.Inc()
	p.logger.Info("field loaded", append([]any{"path", path}, f.Summary()...)...)
	return f, nil
}

func (p *Pipeline) observeStage(stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// checkInputs verifies each input exists, in order, before any file is
// opened.
func checkInputs(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: %s", domain.ErrMissingInput, path)
			}
			return fmt.Errorf("stat %s: %w", path, err)
		}
	}
	return nil
}
