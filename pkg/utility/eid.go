package utility

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// ExecutionID identifies one backtest run. Every position opened during the
// run carries it.
type ExecutionID = uuid.UUID

var executionID atomic.Pointer[ExecutionID]

// GetExecutionID returns the id of the current run, creating one on first use.
func GetExecutionID() ExecutionID {
	if id := executionID.Load(); id != nil {
		return *id
	}
	id := uuid.Must(uuid.NewV7())
	if executionID.CompareAndSwap(nil, &id) {
		return id
	}
	return *executionID.Load()
}

// ResetExecutionID starts a new run.
func ResetExecutionID() ExecutionID {
	id := uuid.Must(uuid.NewV7())
	executionID.Store(&id)
	return id
}
