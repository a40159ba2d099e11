package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS positions (
	position_id           TEXT NOT NULL PRIMARY KEY,
	execution_id          TEXT NOT NULL,
	signal_id             TEXT,
	exchange              TEXT NOT NULL,
	market                TEXT NOT NULL,
	created_at            DATETIME NOT NULL,
	closed_at             DATETIME NOT NULL,
	duration_ms           INTEGER NOT NULL,
	realized_pnl          TEXT NOT NULL,
	realized_pnl_percent  TEXT NOT NULL,
	win                   INTEGER
);
`

// Record is a closed position as stored in the journal.
type Record struct {
	Id                 string
	ExecutionID        string
	SignalId           string
	Exchange           string
	Market             string
	CreatedAt          time.Time
	ClosedAt           time.Time
	Duration           time.Duration
	RealizedPnL        fixed.Point
	RealizedPnLPercent fixed.Point
	Win                *bool
}

func Open(ctx context.Context, dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("unable to open journal %q: %w", dataSourceName, err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to reach journal %q: %w", dataSourceName, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to create journal schema: %w", err)
	}

	return db, nil
}

// InsertPosition journals a position once. Later inserts of the same id are ignored.
func InsertPosition(ctx context.Context, db *sql.DB, position common.Position) error {
	query := `
	INSERT INTO positions (
		position_id,
		execution_id,
		signal_id,
		exchange,
		market,
		created_at,
		closed_at,
		duration_ms,
		realized_pnl,
		realized_pnl_percent,
		win
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (position_id) DO NOTHING;
	`

	var win sql.NullBool
	if position.Win != nil {
		win = sql.NullBool{Bool: *position.Win, Valid: true}
	}

	_, err := db.ExecContext(
		ctx,
		query,
		position.Id,
		position.ExecutionID.String(),
		position.SignalId,
		position.Exchange,
		position.Market,
		position.CreatedAt.UTC(),
		position.ClosedAt.UTC(),
		position.Metrics.Duration.Milliseconds(),
		position.RealizedPnL.String(),
		position.RealizedPnLPercent.String(),
		win,
	)
	if err != nil {
		return fmt.Errorf("unable to insert position %s: %w", position.Id, err)
	}
	return nil
}

// Positions returns every journaled position ordered by close time.
func Positions(ctx context.Context, db *sql.DB) ([]Record, error) {
	rows, err := db.QueryContext(ctx, `
	SELECT position_id, execution_id, signal_id, exchange, market, created_at, closed_at,
	       duration_ms, realized_pnl, realized_pnl_percent, win
	FROM positions
	ORDER BY closed_at, position_id`)
	if err != nil {
		return nil, fmt.Errorf("error querying positions: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var records []Record
	for rows.Next() {
		var (
			record                 Record
			signalId               sql.NullString
			durationMs             int64
			realized, realizedPerc string
			win                    sql.NullBool
		)
		if err := rows.Scan(&record.Id, &record.ExecutionID, &signalId, &record.Exchange, &record.Market,
			&record.CreatedAt, &record.ClosedAt, &durationMs, &realized, &realizedPerc, &win); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}

		record.SignalId = signalId.String
		record.Duration = time.Duration(durationMs) * time.Millisecond
		if record.RealizedPnL, err = fixed.Parse(realized); err != nil {
			return nil, fmt.Errorf("position %s has invalid realized pnl %q: %w", record.Id, realized, err)
		}
		if record.RealizedPnLPercent, err = fixed.Parse(realizedPerc); err != nil {
			return nil, fmt.Errorf("position %s has invalid realized pnl percent %q: %w", record.Id, realizedPerc, err)
		}
		if win.Valid {
			w := win.Bool
			record.Win = &w
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning rows: %w", err)
	}
	return records, nil
}
