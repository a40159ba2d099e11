package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/utility"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

func closedPosition(id string, closedAt time.Time, realized string, win bool) common.Position {
	return common.Position{
		Id:                 id,
		ExecutionID:        utility.GetExecutionID(),
		SignalId:           "signal-" + id,
		Exchange:           "sandbox",
		Market:             "BTC/USDT",
		Status:             common.PositionStatusClosed,
		Win:                &win,
		RealizedPnL:        fixed.MustParse(realized),
		RealizedPnLPercent: fixed.MustParse("1.5"),
		Metrics:            common.PositionMetrics{Duration: 90 * time.Minute},
		CreatedAt:          closedAt.Add(-90 * time.Minute),
		ClosedAt:           closedAt,
	}
}

func TestSQLiteJournal_InsertAndList(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	closedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, InsertPosition(ctx, db, closedPosition("b", closedAt.Add(time.Hour), "-0.1999", false)))
	require.NoError(t, InsertPosition(ctx, db, closedPosition("a", closedAt, "4.790105", true)))
	require.NoError(t, InsertPosition(ctx, db, closedPosition("a", closedAt, "100", true)))

	records, err := Positions(ctx, db)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "a", first.Id)
	assert.Equal(t, utility.GetExecutionID().String(), first.ExecutionID)
	assert.Equal(t, "signal-a", first.SignalId)
	assert.Equal(t, "BTC/USDT", first.Market)
	assert.True(t, first.ClosedAt.Equal(closedAt))
	assert.Equal(t, 90*time.Minute, first.Duration)
	assert.Equal(t, "4.790105", first.RealizedPnL.String())
	require.NotNil(t, first.Win)
	assert.True(t, *first.Win)

	assert.Equal(t, "b", records[1].Id)
	assert.Equal(t, "-0.1999", records[1].RealizedPnL.String())
	require.NotNil(t, records[1].Win)
	assert.False(t, *records[1].Win)
}

func TestSQLiteJournal_NullWin(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	position := closedPosition("a", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "0", false)
	position.Win = nil
	require.NoError(t, InsertPosition(ctx, db, position))

	records, err := Positions(ctx, db)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Win)
}
