package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"

	_ "github.com/marcboeker/go-duckdb"
)

var (
	ErrInvalidTable = errors.New("invalid table name")

	tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Reader loads candles with columns ts, open, high, low, close and volume
// from a DuckDB table or a CSV file.
type Reader struct {
	dataSourceName string
	db             *sql.DB
}

// NewReader opens dataSourceName on Connect. An empty name is an in-memory database.
func NewReader(dataSourceName string) *Reader {
	return &Reader{
		dataSourceName: dataSourceName,
	}
}

func (r *Reader) Connect() error {
	db, err := sql.Open("duckdb", r.dataSourceName)
	if err != nil {
		return fmt.Errorf("unable to open duckdb %q: %w", r.dataSourceName, err)
	}
	r.db = db
	return nil
}

func (r *Reader) Close() {
	if r.db != nil {
		_ = r.db.Close()
	}
}

// DB exposes the connection, for example to stage tables.
func (r *Reader) DB() *sql.DB {
	return r.db
}

// LoadCandles streams the candles of table within [from, to] in time order.
func (r *Reader) LoadCandles(ctx context.Context, table, symbol string, from, to time.Time, handler func(common.Candle) error) error {
	if !tableName.MatchString(table) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	return r.load(ctx, table, symbol, from, to, handler)
}

// LoadCandlesCSV streams the candles of a CSV file with a header row.
func (r *Reader) LoadCandlesCSV(ctx context.Context, path, symbol string, from, to time.Time, handler func(common.Candle) error) error {
	source := fmt.Sprintf("read_csv_auto('%s', header = true)", strings.ReplaceAll(path, "'", "''"))
	return r.load(ctx, source, symbol, from, to, handler)
}

func (r *Reader) load(ctx context.Context, source, symbol string, from, to time.Time, handler func(common.Candle) error) error {
	query := fmt.Sprintf(`
	SELECT CAST(ts AS TIMESTAMP),
	       CAST(open AS VARCHAR),
	       CAST(high AS VARCHAR),
	       CAST(low AS VARCHAR),
	       CAST(close AS VARCHAR),
	       CAST(volume AS VARCHAR)
	FROM %s
	WHERE CAST(ts AS TIMESTAMP) BETWEEN ? AND ?
	ORDER BY 1`, source)

	rows, err := r.db.QueryContext(ctx, query, from.UTC(), to.UTC())
	if err != nil {
		return fmt.Errorf("error preparing query: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	for rows.Next() {
		var (
			timeStamp     time.Time
			o, h, l, c, v string
		)
		if err := rows.Scan(&timeStamp, &o, &h, &l, &c, &v); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}

		candle := common.Candle{Symbol: symbol, TimeStamp: timeStamp.UTC()}
		if err := parseAll([]string{o, h, l, c, v},
			&candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume); err != nil {
			return fmt.Errorf("candle at %s: %w", timeStamp, err)
		}

		if err := handler(candle); err != nil {
			return fmt.Errorf("error processing candle: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error scanning rows: %w", err)
	}
	return nil
}

func parseAll(values []string, points ...*fixed.Point) error {
	for i, value := range values {
		p, err := fixed.Parse(value)
		if err != nil {
			return fmt.Errorf("invalid decimal %q: %w", value, err)
		}
		*points[i] = p
	}
	return nil
}
