package middleware

import (
	"context"
	"database/sql"

	"github.com/peter-kozarec/spotsim/pkg/bus"
	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/data/db/sqlite"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const ledgerWriters = 4

// Ledger journals every position that reaches CLOSED.
type Ledger struct {
	logger *zap.Logger
	db     *sql.DB
	group  errgroup.Group
}

func NewLedger(logger *zap.Logger, db *sql.DB) *Ledger {
	l := &Ledger{
		logger: logger,
		db:     db,
	}
	l.group.SetLimit(ledgerWriters)
	return l
}

func (l *Ledger) WithPositionUpdated(handler bus.PositionUpdatedEventHandler) bus.PositionUpdatedEventHandler {
	return func(ctx context.Context, position common.Position) {
		if position.Status == common.PositionStatusClosed {
			writeCtx := context.WithoutCancel(ctx)
			l.group.Go(func() error {
				if err := sqlite.InsertPosition(writeCtx, l.db, position); err != nil {
					l.logger.Warn("unable to insert position", zap.String("position_id", position.Id), zap.Error(err))
					return err
				}
				return nil
			})
		}
		handler(ctx, position)
	}
}

// Wait blocks until every pending insert finished and returns the first
// insert error.
func (l *Ledger) Wait() error {
	return l.group.Wait()
}
