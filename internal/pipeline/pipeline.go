// Package pipeline turns records into a composed thumbnail grid, one record
// at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kwsong/biodigitalviz/internal/config"
	"github.com/kwsong/biodigitalviz/internal/grid"
	"github.com/kwsong/biodigitalviz/internal/locator"
	"github.com/kwsong/biodigitalviz/internal/models"
	"github.com/kwsong/biodigitalviz/internal/thumb"
)

var ErrNoLocator = errors.New("record has no image reference")

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*image.NRGBA, error)
}

type Pipeline struct {
	cfg      config.GridConfig
	layout   grid.Layout
	resolver locator.Resolver
	fetcher  Fetcher
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *metrics
}

func New(cfg config.GridConfig, fetcher Fetcher, logger *slog.Logger, tracer trace.Tracer, meter metric.Meter) (*Pipeline, error) {
	m, err := newMetrics(meter)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:      cfg,
		layout:   grid.NewLayout(cfg),
		resolver: locator.Resolver{BaseURL: cfg.BaseURL},
		fetcher:  fetcher,
		logger:   logger,
		tracer:   tracer,
		metrics:  m,
	}, nil
}

// Run places one tile per record, up to the grid's capacity, and returns the
// canvas with a result per placed index. Per-record failures become
// placeholders; only composition errors are returned.
func (p *Pipeline) Run(ctx context.Context, records []models.Record) (*grid.Canvas, []models.Result, error) {
	capacity := p.layout.Capacity()
	if len(records) > capacity {
		p.logger.WarnContext(ctx, "more records than grid cells, ignoring the rest",
			"records", len(records), "capacity", capacity)
		records = records[:capacity]
	}

	canvas := grid.NewCanvas(p.layout)
	results := make([]models.Result, 0, len(records))
	succeeded := 0

	for idx, record := range records {
		result, tile := p.process(ctx, idx, record)
		if err := canvas.Place(idx, tile); err != nil {
			return nil, nil, fmt.Errorf("error placing record %d: %w", idx, err)
		}
		results = append(results, result)
		if result.OK {
			succeeded++
		}

		if result.Col == p.layout.Cols-1 || idx == len(records)-1 {
			p.logger.InfoContext(ctx, fmt.Sprintf("Processed row %d/%d", result.Row+1, p.layout.Rows),
				"placed", idx+1,
				"succeeded", succeeded,
			)
		}
	}

	return canvas, results, nil
}

// process never fails: anything that goes wrong, panics included, yields a
// placeholder tile and a failed result.
func (p *Pipeline) process(ctx context.Context, idx int, record models.Record) (result models.Result, tile *image.NRGBA) {
	row, col := p.layout.Coord(idx)
	result = models.Result{Index: idx, Row: row, Col: col, Record: record}

	ctx, span := p.tracer.Start(ctx, "thumbgrid.record", trace.WithAttributes(
		attribute.Int("thumbgrid.index", idx),
		attribute.String("thumbgrid.name", record.DisplayName()),
	))
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			result.OK = false
			result.Err = recovered(ctx, p.logger, rec, idx)
			tile = p.placeholder(ctx, record)
		}
		outcome := outcomeOf(result.Err)
		p.metrics.records.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		span.SetAttributes(attribute.String("thumbgrid.outcome", outcome))
		if result.Err != nil {
			span.SetStatus(codes.Error, result.Err.Error())
		}
	}()

	img, url, err := p.fetch(ctx, record)
	result.URL = url
	if err == nil {
		tile, err = thumb.Make(img, p.cfg.ThumbSize)
	}
	if err != nil {
		result.Err = err
		p.logger.InfoContext(ctx, "using placeholder",
			"index", idx,
			"name", record.DisplayName(),
			"url", url,
			"reason", err,
		)
		return result, p.placeholder(ctx, record)
	}

	result.OK = true
	return result, tile
}

func (p *Pipeline) fetch(ctx context.Context, record models.Record) (*image.NRGBA, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	url, ok := p.resolver.Resolve(record.ImgName)
	if !ok {
		return nil, "", ErrNoLocator
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("thumbgrid.url", url))

	start := time.Now()
	img, err := p.fetcher.Fetch(ctx, url)
	p.metrics.fetchDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.Bool("ok", err == nil)))
	if err != nil {
		return nil, url, fmt.Errorf("error downloading %s: %w", url, err)
	}
	return img, url, nil
}

// placeholder returns a flat tile labelled with the record's name, or the
// plain tile when the label cannot be drawn.
func (p *Pipeline) placeholder(ctx context.Context, record models.Record) *image.NRGBA {
	tile := thumb.Placeholder(p.cfg.ThumbSize)
	if err := thumb.Label(tile, record.DisplayName()); err != nil {
		p.logger.DebugContext(ctx, "placeholder left unlabelled", "name", record.DisplayName(), "reason", err)
	}
	return tile
}
