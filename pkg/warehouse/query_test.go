package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gdelt/pkg/apperror"
)

func TestQuery_Build_RejectsUnknownColumn(t *testing.T) {
	q := Query{
		Table:   TableEvents,
		Columns: []string{"GlobalEventID", "NotARealColumn"},
		Start:   time.Now().Add(-24 * time.Hour),
		End:     time.Now(),
	}

	_, _, err := q.build()
	require.Error(t, err)
	assert.Equal(t, apperror.CodeBadRequest, apperror.Code(err))
}

func TestQuery_Build_IncludesPartitionPredicateAndLimit(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)

	q := Query{
		Table:   TableEvents,
		Columns: []string{"GlobalEventID", "AvgTone"},
		Start:   start,
		End:     end,
		Limit:   500,
	}

	sql, args, err := q.build()
	require.NoError(t, err)
	assert.Contains(t, sql, "_PARTITIONTIME >= $1 AND _PARTITIONTIME < $2")
	assert.Contains(t, sql, "LIMIT 500")
	assert.Equal(t, []any{start, end}, args)
}

func TestAdapter_Run_YieldsRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	start := time.Now().Add(-time.Hour)
	end := time.Now()

	rows := pgxmock.NewRows([]string{"GlobalEventID", "AvgTone"}).
		AddRow(int64(1), 2.5).
		AddRow(int64(2), -1.1)

	mock.ExpectQuery("SELECT GlobalEventID, AvgTone FROM events_partitioned").
		WithArgs(start, end).
		WillReturnRows(rows)

	adapter := NewAdapter(mock)
	resultCh, errCh := adapter.Run(context.Background(), Query{
		Table:   TableEvents,
		Columns: []string{"GlobalEventID", "AvgTone"},
		Start:   start,
		End:     end,
	})

	var collected []Row
	for row := range resultCh {
		collected = append(collected, row)
	}
	require.NoError(t, <-errCh)
	require.Len(t, collected, 2)
	assert.Equal(t, int64(1), collected[0]["GlobalEventID"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Run_PropagatesQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	start := time.Now().Add(-time.Hour)
	end := time.Now()

	mock.ExpectQuery("SELECT GlobalEventID FROM events_partitioned").
		WithArgs(start, end).
		WillReturnError(assertError{"connection reset"})

	adapter := NewAdapter(mock)
	resultCh, errCh := adapter.Run(context.Background(), Query{
		Table:   TableEvents,
		Columns: []string{"GlobalEventID"},
		Start:   start,
		End:     end,
	})

	for range resultCh {
	}
	err = <-errCh
	require.Error(t, err)
	assert.Equal(t, apperror.CodeWarehouseFailure, apperror.Code(err))
}

func TestAdapter_Run_RejectsColumnBeforeSubmission(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	adapter := NewAdapter(mock)
	resultCh, errCh := adapter.Run(context.Background(), Query{
		Table:   TableEvents,
		Columns: []string{"DropTable; --"},
		Start:   time.Now().Add(-time.Hour),
		End:     time.Now(),
	})

	for range resultCh {
	}
	err = <-errCh
	require.Error(t, err)
	assert.Equal(t, apperror.CodeBadRequest, apperror.Code(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
