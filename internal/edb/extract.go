package edb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// maxRowsPerTable caps the best-effort read of each message table.
const maxRowsPerTable = 1000

// Row is one extracted record keyed by column name.
type Row map[string]any

// TableOutcome records the result of reading one candidate table.
type TableOutcome struct {
	Table string
	Rows  int
	Err   error
}

// ExtractionReport aggregates per-table outcomes of one extraction. A
// malformed table never aborts the whole run; its failure lands here.
type ExtractionReport struct {
	Outcomes []TableOutcome
}

// Failed returns the outcomes whose table read failed.
func (r *ExtractionReport) Failed() []TableOutcome {
	var failed []TableOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// ExtractMessages decrypts the container, opens it as a SQLite database and
// reads the most recent rows of every table whose name contains "log" or
// "message" (case-insensitively). Per-table failures are recorded in the
// report and logged; remaining tables are still processed. The temporary
// plaintext file is deleted before returning on every outcome.
func (d *Decryptor) ExtractMessages(ctx context.Context, path string) ([]Row, *ExtractionReport, error) {
	tmpPath, cleanup, err := d.DecryptToTempFile(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	defer cleanup()

	db, err := openStore(tmpPath)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	tables, err := listTables(ctx, db)
	if err != nil {
		return nil, nil, fmt.Errorf("reading table catalog: %w", err)
	}

	report := &ExtractionReport{}
	var rows []Row
	for _, table := range tables {
		if !isMessageTable(table) {
			continue
		}

		got, err := readRecentRows(ctx, db, table)
		report.Outcomes = append(report.Outcomes, TableOutcome{Table: table, Rows: len(got), Err: err})
		if err != nil {
			d.logger.Warn().Str("table", table).Err(err).Msg("skipping unreadable table")
			continue
		}
		rows = append(rows, got...)
	}

	if len(rows) == 0 {
		d.logger.Warn().Str("path", path).Int("tables", len(report.Outcomes)).Msg("extraction produced no rows")
	}
	return rows, report, nil
}

// isMessageTable reports whether a table is worth reading for messages.
func isMessageTable(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "log") || strings.Contains(lower, "message")
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// openStore opens a decrypted container as a SQLite database.
func openStore(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening decrypted store: %w", err)
	}
	return db, nil
}

// readRecentRows reads up to maxRowsPerTable rows, most recent first. The
// send-timestamp column name is assumed; tables without it fail here and the
// caller records the outcome.
func readRecentRows(ctx context.Context, db *sql.DB, table string) ([]Row, error) {
	query := fmt.Sprintf("SELECT * FROM %q ORDER BY sendAt DESC LIMIT %d", table, maxRowsPerTable)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// readRecentChatRooms reads the chat room catalog of a chatListInfo store.
func readRecentChatRooms(ctx context.Context, db *sql.DB) ([]Row, error) {
	query := fmt.Sprintf("SELECT * FROM chatRooms LIMIT %d", maxRowsPerTable)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// scanRows materializes a result set into string-keyed rows, converting
// byte slices to strings for downstream keyword matching.
func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []Row
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
