package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/hub-export/pkg/models/domain"
	"github.com/de-tools/hub-export/pkg/models/store"
	"github.com/de-tools/hub-export/pkg/services/normalize"
	"github.com/de-tools/hub-export/pkg/services/window"
	"github.com/de-tools/hub-export/pkg/services/workbook"
)

// RecordFetcher yields the hub records for one reporting window.
type RecordFetcher interface {
	FetchRecords(ctx context.Context, w domain.ReportingWindow) ([]store.RawRecord, error)
}

// Uploader delivers the finished artifact to the remote document store.
type Uploader interface {
	Upload(ctx context.Context, localPath, container string) error
}

type Settings struct {
	TempPath  string
	Prefix    string
	Container string
	WeeksBack int
}

// Exporter runs the weekly export end to end: compute the reporting window,
// fetch the window's hub records, merge them row by row into the week's
// workbook and deliver it.
type Exporter struct {
	fetcher  RecordFetcher
	uploader Uploader
	settings Settings
	policy   domain.ShapePolicy
}

func NewExporter(fetcher RecordFetcher, uploader Uploader, settings Settings) (*Exporter, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("record fetcher is nil")
	}
	if uploader == nil {
		return nil, fmt.Errorf("uploader is nil")
	}
	return &Exporter{
		fetcher:  fetcher,
		uploader: uploader,
		settings: settings,
		policy:   DefaultShapePolicy(),
	}, nil
}

// Run executes one export for the week containing ref (offset by the
// configured weeks-back). Any failure aborts the run: rows merged before the
// failure are committed, the upload is skipped, and the caller detects the
// incomplete run by the absence of a delivery. Overlapping runs against the
// same week must be serialized by the scheduler.
func (e *Exporter) Run(ctx context.Context, ref time.Time) error {
	logger := zerolog.Ctx(ctx)

	win, err := window.Compute(ref, e.settings.WeeksBack)
	if err != nil {
		return err
	}
	logger.Info().
		Int("week", win.Week).
		Time("start", win.Start).
		Time("end", win.End).
		Msg("computed reporting window")

	if err := os.MkdirAll(e.settings.TempPath, 0o755); err != nil {
		return fmt.Errorf("failed to create temp directory %s: %w", e.settings.TempPath, err)
	}

	records, err := e.fetcher.FetchRecords(ctx, win)
	if err != nil {
		return fmt.Errorf("failed to fetch hub records: %w", err)
	}
	if len(records) == 0 {
		logger.Info().Msg("no records in the reporting window, nothing to deliver")
		return nil
	}

	path := filepath.Join(e.settings.TempPath, win.ArtifactName(e.settings.Prefix))
	session, err := workbook.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		// commits rows merged before an abort; Close is a no-op after the
		// explicit call below
		if err := session.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close workbook session")
		}
	}()

	sheet := win.SheetName()
	for _, rec := range records {
		row, err := normalize.Normalize(rec)
		if err != nil {
			return err
		}
		if err := session.Merge(sheet, []domain.Row{row}, e.policy); err != nil {
			return fmt.Errorf("failed to merge record %s: %w", rec.ID, err)
		}
	}

	if err := session.Close(); err != nil {
		return err
	}
	logger.Info().
		Int("records", len(records)).
		Str("artifact", path).
		Msg("workbook saved")

	if err := e.uploader.Upload(ctx, path, e.settings.Container); err != nil {
		return fmt.Errorf("failed to deliver artifact: %w", err)
	}
	logger.Info().Str("container", e.settings.Container).Msg("artifact delivered")
	return nil
}
