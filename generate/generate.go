// Package generate runs the mapping-to-SHACL pipeline: load a mapping
// document, infer shapes, render Turtle and write it atomically.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/shapegen/export"
	"github.com/c360studio/shapegen/mapping"
	"github.com/c360studio/shapegen/metrics"
	"github.com/c360studio/shapegen/shape"
)

// Report describes one completed run.
type Report struct {
	Input      string
	Output     string
	Shapes     int
	Properties int
	Skipped    int
	Duration   time.Duration
}

// Generator runs the pipeline. It is safe for concurrent use.
type Generator struct {
	logger     *slog.Logger
	inferencer *shape.Inferencer
	recorder   *metrics.Recorder
}

// New creates a Generator. logger may be nil; recorder may be nil to
// disable metrics.
func New(logger *slog.Logger, recorder *metrics.Recorder, opts ...shape.Option) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		logger:     logger,
		inferencer: shape.NewInferencer(logger, opts...),
		recorder:   recorder,
	}
}

// Run generates the shapes for inPath and writes them to outPath. Nothing
// is written unless every step succeeds.
func (g *Generator) Run(ctx context.Context, inPath, outPath string) (*Report, error) {
	start := time.Now()

	report, err := g.run(ctx, inPath, outPath)
	if report != nil {
		report.Duration = time.Since(start)
	}

	var run metrics.Run
	if report != nil {
		run = metrics.Run{
			Shapes:     report.Shapes,
			Properties: report.Properties,
			Skipped:    report.Skipped,
			Duration:   report.Duration,
		}
	}
	g.recorder.ObserveRun(run, err)

	if err != nil {
		return nil, err
	}

	g.logger.Info("Wrote shapes",
		slog.String("input", report.Input),
		slog.String("output", report.Output),
		slog.Int("shapes", report.Shapes),
		slog.Int("properties", report.Properties),
		slog.Int("skipped", report.Skipped),
		slog.Duration("duration", report.Duration))
	return report, nil
}

func (g *Generator) run(ctx context.Context, inPath, outPath string) (*Report, error) {
	doc, err := mapping.LoadFromFile(inPath)
	if err != nil {
		return nil, fmt.Errorf("load mapping: %w", err)
	}

	result := g.inferencer.Infer(doc.Mappings)
	ttl := export.Turtle(result.Shapes)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := export.WriteFile(outPath, ttl); err != nil {
		return nil, fmt.Errorf("write shapes: %w", err)
	}

	return &Report{
		Input:      inPath,
		Output:     outPath,
		Shapes:     len(result.Shapes),
		Properties: result.Shapes.PropertyCount(),
		Skipped:    len(result.Skipped),
	}, nil
}
