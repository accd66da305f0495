package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gdelt/pkg/apperror"
	"gdelt/pkg/metrics"
	"gdelt/pkg/telemetry"
)

// Row is a shallow mapping of column name to cell value, the shape
// returned per row by the warehouse adapter.
type Row map[string]any

// Query describes one parameterized, partition-filtered warehouse query.
// Every value derived from caller input must travel through Args; the
// adapter never concatenates or formats user values into SQL text.
type Query struct {
	Table   Table
	Columns []string
	Start   time.Time
	End     time.Time
	// ExtraPredicate is an optional additional WHERE clause fragment using
	// only positional placeholders ($1, $2, ...) referencing ExtraArgs; it
	// is appended after the mandatory partition predicate. Column names it
	// references must also appear in Columns or be pre-validated by the
	// caller, since the adapter cannot parse arbitrary SQL text.
	ExtraPredicate string
	ExtraArgs      []any
	Limit          int
}

// build renders sql and its positional args. _PARTITIONTIME bounds are
// always args $1 and $2; ExtraArgs follow.
func (q Query) build() (string, []any, error) {
	if err := validateColumns(q.Table, q.Columns); err != nil {
		return "", nil, err
	}

	projection := strings.Join(q.Columns, ", ")
	args := []any{q.Start, q.End}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s >= $1 AND %s < $2",
		projection, q.Table, partitionColumn, partitionColumn)

	if q.ExtraPredicate != "" {
		sql += " AND (" + q.ExtraPredicate + ")"
		args = append(args, q.ExtraArgs...)
	}

	if q.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	return sql, args, nil
}

// Adapter executes Query values against a Conn through an async wrapper:
// the blocking pgx call runs on its own goroutine and the caller's
// goroutine receives rows over a channel, so the caller is never blocked
// while rows are materialized.
type Adapter struct {
	conn Conn
}

// NewAdapter wraps conn for parameterized queries.
func NewAdapter(conn Conn) *Adapter {
	return &Adapter{conn: conn}
}

// Run executes q and returns a channel of rows and a channel carrying at
// most one terminal error. Both channels are closed when the query and
// all rows have been delivered or ctx is cancelled.
func (a *Adapter) Run(ctx context.Context, q Query) (<-chan Row, <-chan error) {
	rows := make(chan Row)
	errc := make(chan error, 1)

	sql, args, err := q.build()
	if err != nil {
		close(rows)
		errc <- err
		close(errc)
		return rows, errc
	}

	go func() {
		defer close(rows)
		defer close(errc)

		start := time.Now()
		pgxRows, err := a.conn.Query(ctx, sql, args...)
		if err != nil {
			errc <- apperror.Wrap(err, apperror.CodeWarehouseFailure, "warehouse query failed")
			return
		}
		defer pgxRows.Close()

		fieldDescs := pgxRows.FieldDescriptions()
		count := 0

		for pgxRows.Next() {
			values, err := pgxRows.Values()
			if err != nil {
				errc <- apperror.Wrap(err, apperror.CodeWarehouseFailure, "failed to read warehouse row")
				return
			}

			row := make(Row, len(fieldDescs))
			for i, fd := range fieldDescs {
				if i < len(values) {
					row[string(fd.Name)] = values[i]
				}
			}

			select {
			case rows <- row:
				count++
			case <-ctx.Done():
				errc <- apperror.Wrap(ctx.Err(), apperror.CodeCancelled, "warehouse query cancelled")
				return
			}
		}

		if err := pgxRows.Err(); err != nil {
			errc <- apperror.Wrap(err, apperror.CodeWarehouseFailure, "warehouse row iteration failed")
			return
		}

		metrics.Get().RecordWarehouseQuery(string(q.Table), time.Since(start), count)
		telemetry.AddEvent(ctx, "warehouse query complete",
			telemetry.WarehouseQueryAttributes(string(q.Table), count)...)
	}()

	return rows, errc
}
