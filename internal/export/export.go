// Package export runs one compilation pass: read the edits of the previous
// workbook, fetch releases, compile, re-apply edits, record metadata and
// replace the workbook.
package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/vlanse/plan-b/internal/plan"
	"github.com/vlanse/plan-b/internal/report"
	"github.com/vlanse/plan-b/internal/roundtrip"
	"github.com/vlanse/plan-b/internal/sheet"
)

// Recorder keeps a copy of the fetched plan after a successful export.
type Recorder interface {
	RecordSnapshot(ctx context.Context, runID string, p *plan.Plan) error
}

// Exporter produces capacity plan workbooks.
type Exporter struct {
	source   plan.DataSource
	recorder Recorder
	logger   *slog.Logger
}

// New creates an exporter. recorder may be nil.
func New(source plan.DataSource, recorder Recorder, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{source: source, recorder: recorder, logger: logger}
}

// Result describes a finished export.
type Result struct {
	RunID   string
	Output  string
	Layout  *report.Layout
	Patched int
	Dropped []roundtrip.Dropped
}

// Run compiles p into the workbook at output. An existing workbook is read
// for edits first and is replaced only once the new one is complete; any
// failure before that leaves it untouched.
func (e *Exporter) Run(ctx context.Context, p *plan.Plan, output string) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Output: output}
	logger := e.logger.With("run_id", res.RunID)

	edits, err := loadEdits(output)
	if err != nil {
		return nil, err
	}
	if edits != nil {
		logger.Info("loaded previous edits", "file", output, "teams", len(edits.Teams))
	}

	if err := p.Fetch(ctx, e.source, logger); err != nil {
		return nil, err
	}

	wb := sheet.NewWorkbook()
	defer wb.Close()

	l, err := report.Compile(wb, sheet.NewFormats(), p, logger)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	res.Layout = l

	patches, dropped := roundtrip.Reconcile(edits, l)
	for _, d := range dropped {
		logger.Warn("recorded allocation has no place in the new plan, dropping it", "team", d.Team, "item", d.Item)
	}
	res.Patched = roundtrip.Apply(l, patches)
	res.Dropped = dropped

	if _, err := roundtrip.Save(wb, l); err != nil {
		return nil, err
	}
	if err := wb.Hide(roundtrip.SheetName); err != nil {
		return nil, err
	}
	if err := wb.Save(output); err != nil {
		return nil, err
	}
	logger.Info("capacity plan written", "file", output, "patched_cells", res.Patched, "dropped_items", len(dropped))

	if e.recorder != nil {
		if err := e.recorder.RecordSnapshot(ctx, res.RunID, p); err != nil {
			return res, fmt.Errorf("record snapshot: %w", err)
		}
	}
	return res, nil
}

func loadEdits(path string) (*roundtrip.Edits, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return roundtrip.Load(path)
}
