package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/kwsong/biodigitalviz/internal/config"
	"github.com/kwsong/biodigitalviz/internal/fetch"
	"github.com/kwsong/biodigitalviz/internal/models"
	"github.com/kwsong/biodigitalviz/internal/pipeline"
	"github.com/kwsong/biodigitalviz/internal/report"
	"github.com/kwsong/biodigitalviz/internal/source"
	"github.com/kwsong/biodigitalviz/internal/telemetry"
)

var inputFlag = flag.String("input", "systemslist.json", "records file (.json, .yaml or .yml) with a top-level data array")
var sourceFlag = flag.String("source", "file", "where to read records from: file or airtable")
var outputFlag = flag.String("output", "bio_digital_systems_thumbnails.png", "grid image to write (.png, .jpg, .gif, .bmp or .tif)")
var listFlag = flag.String("list", "bio_digital_systems_list.txt", "listing of grid positions to write")
var verboseFlag = flag.Bool("v", false, "log every HTTP request")

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalln("Error loading config:", err)
	}

	level := slog.LevelInfo
	if *verboseFlag {
		level = slog.LevelDebug
	}
	runID := uuid.NewString()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})).With("run_id", runID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, runID)
	if err != nil {
		log.Fatalln("Error setting up telemetry:", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	records, err := loadRecords(ctx, cfg)
	if err != nil {
		log.Fatalln("Error loading records:", err)
	}
	logger.InfoContext(ctx, "Loaded records", "count", len(records), "source", *sourceFlag)

	client := fetch.NewClient(cfg.Fetch, tel.TracerProvider, logger)
	p, err := pipeline.New(cfg.Grid, client, logger, tel.Tracer(), tel.Meter())
	if err != nil {
		log.Fatalln("Error creating pipeline:", err)
	}

	canvas, results, err := p.Run(ctx, records)
	if err != nil {
		log.Fatalln("Error building grid:", err)
	}
	if ctx.Err() != nil {
		logger.WarnContext(ctx, "Interrupted, remaining records were left as placeholders")
	}

	if err := canvas.Save(*outputFlag, cfg.Grid.DPI); err != nil {
		log.Fatalln("Error saving grid:", err)
	}
	logger.InfoContext(ctx, "Thumbnail grid saved", "path", *outputFlag)

	report.Summarize(results).Log(ctx, logger)

	if err := report.WriteListingFile(*listFlag, results); err != nil {
		log.Fatalln("Error writing listing:", err)
	}
	logger.InfoContext(ctx, "System list saved", "path", *listFlag)
}

func loadRecords(ctx context.Context, cfg *config.Config) ([]models.Record, error) {
	switch *sourceFlag {
	case "file":
		return source.LoadFile(*inputFlag)
	case "airtable":
		if err := cfg.Airtable.Validate(); err != nil {
			return nil, err
		}
		return source.NewAirtableClient(cfg.Airtable).ListRecords(ctx)
	default:
		return nil, fmt.Errorf("unknown source %q (want file or airtable)", *sourceFlag)
	}
}
