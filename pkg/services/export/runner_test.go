package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/de-tools/hub-export/pkg/models/domain"
	"github.com/de-tools/hub-export/pkg/models/store"
)

// MockRecordFetcher is a mock implementation of RecordFetcher for testing
type MockRecordFetcher struct {
	mock.Mock
}

func (m *MockRecordFetcher) FetchRecords(ctx context.Context, w domain.ReportingWindow) ([]store.RawRecord, error) {
	args := m.Called(ctx, w)
	return args.Get(0).([]store.RawRecord), args.Error(1)
}

// MockUploader is a mock implementation of Uploader for testing
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, localPath, container string) error {
	args := m.Called(ctx, localPath, container)
	return args.Error(0)
}

func hubRecord(day int) store.RawRecord {
	completed := fmt.Sprintf("2024-03-%02dT10:00:00", day)
	return store.RawRecord{
		ID:         uuid.NewString(),
		ReceivedAt: completed,
		Payload: fmt.Sprintf(
			`{"data": {"navn": "Testsen", "beloeb": 125.5, "test": "no", "attachments": "none", "koerselsliste_tomme_felter_tjek_": "x"}, "completed": %q}`,
			completed),
	}
}

type fixture struct {
	fetcher  *MockRecordFetcher
	uploader *MockUploader
	exporter *Exporter
	tempPath string
}

func setupFixture(t *testing.T) *fixture {
	tempPath := t.TempDir()
	fetcher := new(MockRecordFetcher)
	uploader := new(MockUploader)

	exporter, err := NewExporter(fetcher, uploader, Settings{
		TempPath:  tempPath,
		Prefix:    "Egenbefordring",
		Container: "weekly-reports",
	})
	require.NoError(t, err)

	return &fixture{
		fetcher:  fetcher,
		uploader: uploader,
		exporter: exporter,
		tempPath: tempPath,
	}
}

func TestNewExporter_Validation(t *testing.T) {
	t.Run("nil fetcher", func(t *testing.T) {
		exporter, err := NewExporter(nil, new(MockUploader), Settings{})
		assert.Error(t, err)
		assert.Nil(t, exporter)
	})

	t.Run("nil uploader", func(t *testing.T) {
		exporter, err := NewExporter(new(MockRecordFetcher), nil, Settings{})
		assert.Error(t, err)
		assert.Nil(t, exporter)
	})
}

func TestExporter_Run(t *testing.T) {
	ctx := context.Background()
	ref := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC) // Wednesday of week 10

	t.Run("exports and delivers the week's records", func(t *testing.T) {
		f := setupFixture(t)
		records := []store.RawRecord{hubRecord(4), hubRecord(5)}
		artifact := filepath.Join(f.tempPath, "Egenbefordring_10_04032024_10032024.xlsx")

		f.fetcher.On("FetchRecords", ctx, mock.AnythingOfType("domain.ReportingWindow")).Return(records, nil)
		f.uploader.On("Upload", ctx, artifact, "weekly-reports").Return(nil)

		err := f.exporter.Run(ctx, ref)

		require.NoError(t, err)
		f.uploader.AssertExpectations(t)

		wb, err := excelize.OpenFile(artifact)
		require.NoError(t, err)
		defer wb.Close()

		rows, err := wb.GetRows("10_2024")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		// shaped header: payload columns minus the scratch column, injected
		// columns, bookkeeping columns trailing
		assert.Equal(t, []string{
			"navn", "beloeb", "modtagelsesdato",
			"aendret_beloeb_i_alt", "godkendt", "godkendt_af", "behandlet_ok", "behandlet_fejl",
			"test", "attachments", "uuid",
		}, rows[0])
		assert.Equal(t, "Testsen", rows[1][0])
		assert.Equal(t, "125.5", rows[1][1])
		assert.Equal(t, "2024-03-04 10:00:00", rows[1][2])
		assert.Equal(t, records[0].ID, rows[1][10])
	})

	t.Run("rerun within the same week appends duplicates", func(t *testing.T) {
		f := setupFixture(t)
		records := []store.RawRecord{hubRecord(4)}
		artifact := filepath.Join(f.tempPath, "Egenbefordring_10_04032024_10032024.xlsx")

		f.fetcher.On("FetchRecords", ctx, mock.AnythingOfType("domain.ReportingWindow")).Return(records, nil)
		f.uploader.On("Upload", ctx, artifact, "weekly-reports").Return(nil)

		require.NoError(t, f.exporter.Run(ctx, ref))
		require.NoError(t, f.exporter.Run(ctx, ref))

		wb, err := excelize.OpenFile(artifact)
		require.NoError(t, err)
		defer wb.Close()

		rows, err := wb.GetRows("10_2024")
		require.NoError(t, err)
		assert.Len(t, rows, 3) // header + one row per run
	})

	t.Run("empty week delivers nothing", func(t *testing.T) {
		f := setupFixture(t)

		f.fetcher.On("FetchRecords", ctx, mock.AnythingOfType("domain.ReportingWindow")).Return([]store.RawRecord{}, nil)

		err := f.exporter.Run(ctx, ref)

		require.NoError(t, err)
		f.uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)

		entries, err := os.ReadDir(f.tempPath)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("undecodable record aborts before delivery", func(t *testing.T) {
		f := setupFixture(t)
		bad := store.RawRecord{ID: uuid.NewString(), Payload: `not json`}

		f.fetcher.On("FetchRecords", ctx, mock.AnythingOfType("domain.ReportingWindow")).
			Return([]store.RawRecord{hubRecord(4), bad}, nil)

		err := f.exporter.Run(ctx, ref)

		require.Error(t, err)
		f.uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)

		// the record merged before the failure is committed
		artifact := filepath.Join(f.tempPath, "Egenbefordring_10_04032024_10032024.xlsx")
		wb, err := excelize.OpenFile(artifact)
		require.NoError(t, err)
		defer wb.Close()

		rows, err := wb.GetRows("10_2024")
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("fetch failure aborts the run", func(t *testing.T) {
		f := setupFixture(t)

		f.fetcher.On("FetchRecords", ctx, mock.AnythingOfType("domain.ReportingWindow")).
			Return([]store.RawRecord{}, fmt.Errorf("connection reset"))

		err := f.exporter.Run(ctx, ref)

		assert.Error(t, err)
		f.uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})
}
