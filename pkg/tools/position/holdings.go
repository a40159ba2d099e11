package position

import (
	"errors"
	"slices"

	"github.com/peter-kozarec/spotsim/pkg/common"
)

var (
	ErrPosNotFound = errors.New("position is not found")
)

// Holdings stores positions in the order they were opened. It is not safe for
// concurrent use; the manager serializes access.
type Holdings struct {
	positions []*common.Position
}

func NewHoldings() *Holdings {
	return &Holdings{}
}

func (h *Holdings) Add(p *common.Position) {
	h.positions = append(h.positions, p)
}

func (h *Holdings) Remove(id string) {
	h.positions = slices.DeleteFunc(h.positions, func(p *common.Position) bool {
		return p.Id == id
	})
}

func (h *Holdings) Count() int {
	return len(h.positions)
}

func (h *Holdings) Find(id string) (*common.Position, error) {
	for _, position := range h.positions {
		if position.Id == id {
			return position, nil
		}
	}
	return nil, ErrPosNotFound
}

// WithStatus returns the positions in any of the given states.
func (h *Holdings) WithStatus(statuses ...common.PositionStatus) []*common.Position {
	var out []*common.Position
	for _, position := range h.positions {
		if slices.Contains(statuses, position.Status) {
			out = append(out, position)
		}
	}
	return out
}

// Snapshot returns deep copies of every stored position.
func (h *Holdings) Snapshot() []common.Position {
	out := make([]common.Position, 0, len(h.positions))
	for _, position := range h.positions {
		out = append(out, position.Clone())
	}
	return out
}
