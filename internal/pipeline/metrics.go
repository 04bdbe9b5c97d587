package pipeline

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/metric"

	"github.com/kwsong/biodigitalviz/internal/fetch"
	"github.com/kwsong/biodigitalviz/internal/thumb"
)

type metrics struct {
	records       metric.Int64Counter
	fetchDuration metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	records, err := meter.Int64Counter("thumbgrid.records",
		metric.WithDescription("Records placed on the grid, by outcome."))
	if err != nil {
		return nil, err
	}
	fetchDuration, err := meter.Float64Histogram("thumbgrid.fetch.duration",
		metric.WithDescription("Time spent downloading one image, retries included."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &metrics{records: records, fetchDuration: fetchDuration}, nil
}

// outcomeOf classifies a record's error for the records counter.
func outcomeOf(err error) string {
	var statusErr *fetch.StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoLocator):
		return "no_locator"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "interrupted"
	case errors.Is(err, fetch.ErrIndirectURL):
		return "indirect_url"
	case errors.As(err, &statusErr):
		return "http_status"
	case errors.Is(err, fetch.ErrNotImage):
		return "not_image"
	case errors.Is(err, fetch.ErrTooLarge):
		return "too_large"
	case errors.Is(err, thumb.ErrEmptyImage):
		return "empty_image"
	default:
		return "error"
	}
}
