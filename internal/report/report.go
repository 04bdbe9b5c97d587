// Package report writes the grid listing and the end-of-run summary.
package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/kwsong/biodigitalviz/internal/models"
)

const shownFailures = 5

// WriteListing writes one line per result:
//
//	[row,col] name (year) OK
func WriteListing(w io.Writer, results []models.Result) error {
	bw := bufio.NewWriter(w)
	for _, r := range results {
		if _, err := fmt.Fprintf(bw, "[%d,%d] %s (%s) %s\n",
			r.Row, r.Col, r.Record.DisplayName(), r.Record.DisplayYear(), status(r)); err != nil {
			return fmt.Errorf("error writing listing: %w", err)
		}
	}
	return bw.Flush()
}

func WriteListingFile(path string, results []models.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating listing: %w", err)
	}
	if err := WriteListing(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func status(r models.Result) string {
	if r.OK {
		return "OK"
	}
	return "FAILED"
}

type Summary struct {
	Total     int
	Succeeded int
	Failed    []string
}

func Summarize(results []models.Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.OK {
			s.Succeeded++
			continue
		}
		s.Failed = append(s.Failed, r.Record.DisplayName())
	}
	return s
}

// Lines renders the summary the way it is printed at the end of a run.
func (s Summary) Lines() []string {
	lines := []string{fmt.Sprintf("Successfully downloaded: %d/%d images", s.Succeeded, s.Total)}
	if len(s.Failed) == 0 {
		return lines
	}

	shown := s.Failed[:min(len(s.Failed), shownFailures)]
	lines = append(lines, "Failed to download images for: "+strings.Join(shown, ", "))
	if extra := len(s.Failed) - len(shown); extra > 0 {
		lines = append(lines, fmt.Sprintf("  ... and %d more", extra))
	}
	return lines
}

func (s Summary) Log(ctx context.Context, logger *slog.Logger) {
	for _, line := range s.Lines() {
		logger.InfoContext(ctx, line, "succeeded", s.Succeeded, "failed", len(s.Failed), "total", s.Total)
	}
}
