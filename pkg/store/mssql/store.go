package mssql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/de-tools/hub-export/pkg/models/domain"
	"github.com/de-tools/hub-export/pkg/models/store"
)

const boundLayout = "2006-01-02 15:04:05"

type Store interface {
	// FetchRecords materializes every hub record whose completion timestamp
	// falls inside the window. The result is eager: one query execution, no
	// open cursor handed back.
	FetchRecords(ctx context.Context, window domain.ReportingWindow) ([]store.RawRecord, error)
}

type hubStore struct {
	db    *sql.DB
	table string
}

func NewStore(db *sql.DB, table string) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if table == "" {
		return nil, fmt.Errorf("hub table name is empty")
	}
	return &hubStore{db: db, table: table}, nil
}

func (s *hubStore) FetchRecords(ctx context.Context, window domain.ReportingWindow) ([]store.RawRecord, error) {
	logger := zerolog.Ctx(ctx)

	// The two timestamp fields are checked independently: a record matches
	// when either falls inside the window, even if the other is absent or
	// out of range. The displayed timestamp always prefers $.completed, so
	// for records matched via the fallback field it can lie outside the
	// window.
	query := fmt.Sprintf(`
		SELECT	reference,
				CASE
					WHEN JSON_VALUE(data, '$.completed') IS NOT NULL THEN JSON_VALUE(data, '$.completed')
					ELSE JSON_VALUE(data, '$.entity.completed[0].value')
				END AS received_at,
				data
		FROM	%s
		WHERE	(JSON_VALUE(data, '$.completed') >= @p1 AND JSON_VALUE(data, '$.completed') <= @p2)
				OR (JSON_VALUE(data, '$.entity.completed[0].value') >= @p3 AND JSON_VALUE(data, '$.entity.completed[0].value') <= @p4)
	`, s.table)

	start := window.Start.Format(boundLayout)
	end := window.End.Format(boundLayout)

	rows, err := s.db.QueryContext(ctx, query, start, end, start, end)
	if err != nil {
		return nil, fmt.Errorf("hub records query failed: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close hub query rows")
		}
	}(rows)

	var records []store.RawRecord
	for rows.Next() {
		var (
			rec        store.RawRecord
			receivedAt sql.NullString
		)
		if err := rows.Scan(&rec.ID, &receivedAt, &rec.Payload); err != nil {
			return nil, fmt.Errorf("hub record scan failed: %w", err)
		}
		rec.ReceivedAt = receivedAt.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("hub records iteration failed: %w", err)
	}

	return records, nil
}
