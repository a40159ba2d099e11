package position

import (
	"context"
	"errors"
	"fmt"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
	"go.uber.org/zap"
)

// shouldStageExits reports whether every entry filled and some exit has no
// order yet.
func shouldStageExits(position *common.Position) bool {
	if position.Status != common.PositionStatusOpen || len(position.Exits) == 0 {
		return false
	}

	entries := 0
	for _, order := range position.Orders {
		if order.Side != common.OrderSideBuy || order.ExitId != "" {
			continue
		}
		if order.Status != common.OrderStatusFilled {
			return false
		}
		entries++
	}
	return entries > 0 && len(missingExits(position)) > 0
}

// missingExits returns the indexes of the exits no order references.
func missingExits(position *common.Position) []int {
	staged := make(map[string]struct{})
	for _, order := range position.Orders {
		if order.ExitId != "" {
			staged[order.ExitId] = struct{}{}
		}
	}

	var missing []int
	for i, exit := range position.Exits {
		if _, ok := staged[exit.Id]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// stageExits creates one SELL order per exit without an order. If an exit is
// rejected, the exits of this pass still resting are cancelled and dropped
// while filled ones are kept, so the next evaluation stages only the rest.
func (m *Manager) stageExits(ctx context.Context, position *common.Position) error {
	precision := m.amountPrecision(position)
	env := expressionEnv(position)
	entryNet := filledQuantity(position, common.OrderSideBuy)
	firstExit := len(position.Orders)

	staged := fixed.Zero
	for _, order := range position.Orders {
		if order.ExitId != "" {
			staged = staged.Add(order.BaseQuantity)
		}
	}

	for _, i := range missingExits(position) {
		exit := position.Exits[i]
		options, err := m.exitOptions(position, exit, env)
		if err != nil {
			return m.unstage(ctx, position, firstExit, fmt.Errorf("exit %s: %w", exit.Id, err))
		}
		if !exit.BaseQuantity.IsSet() && i == len(position.Exits)-1 {
			options.BaseQuantity = entryNet.Sub(staged).RoundDown(precision)
		}

		exchangeOrder, err := m.exchange.CreateOrder(ctx, options)
		if err != nil {
			return m.unstage(ctx, position, firstExit, fmt.Errorf("unable to create exit %s: %w", exit.Id, err))
		}

		position.Orders = append(position.Orders, newOrder(options, exchangeOrder, exit.Id))
		staged = staged.Add(options.BaseQuantity)
		m.logger.Debug("exit staged", append(exchangeOrder.Fields(), zap.String("exit_id", exit.Id))...)
	}

	return nil
}

func (m *Manager) unstage(ctx context.Context, position *common.Position, firstExit int, cause error) error {
	kept := position.Orders[:firstExit]
	for _, order := range position.Orders[firstExit:] {
		if order.Status.IsTerminal() {
			kept = append(kept, order)
			continue
		}
		if err := m.exchange.CancelOrder(ctx, order.ForeignId); err != nil {
			cause = errors.Join(cause, fmt.Errorf("unable to cancel exit %s: %w", order.ExitId, err))
			kept = append(kept, order)
		}
	}
	position.Orders = kept
	return cause
}

func (m *Manager) exitOptions(position *common.Position, exit common.ExitSpec, env Env) (common.OrderOptions, error) {
	base, err := m.resolve(exit.BaseQuantity, env)
	if err != nil {
		return common.OrderOptions{}, fmt.Errorf("baseQuantity: %w", err)
	}
	price, err := m.resolve(exit.Price, env)
	if err != nil {
		return common.OrderOptions{}, fmt.Errorf("price: %w", err)
	}
	stopPrice, err := m.resolve(exit.StopPrice, env)
	if err != nil {
		return common.OrderOptions{}, fmt.Errorf("stopPrice: %w", err)
	}

	return common.OrderOptions{
		Exchange:     position.Exchange,
		Market:       position.Market,
		Side:         common.OrderSideSell,
		Type:         exit.Type,
		BaseQuantity: base,
		Price:        price,
		StopPrice:    stopPrice,
		TimeStamp:    m.timestamp(position.TimeStamp),
	}, nil
}

func (m *Manager) resolve(param common.ExitParam, env Env) (fixed.Point, error) {
	if !param.IsExpr() {
		return param.Value(), nil
	}
	return m.evaluator.Evaluate(param.Expression(), env)
}

// Env is what exit expressions are evaluated against, as {position, entries}.
type Env struct {
	Position PositionEnv `expr:"position"`
	Entries  []EntryEnv  `expr:"entries"`
}

type PositionEnv struct {
	Id            string      `expr:"id"`
	Market        string      `expr:"market"`
	AveragePrice  fixed.Point `expr:"averagePrice"`
	BaseQuantity  fixed.Point `expr:"baseQuantity"`
	QuoteQuantity fixed.Point `expr:"quoteQuantity"`
}

// EntryEnv is one BUY order of the position.
type EntryEnv struct {
	Id                 string      `expr:"id"`
	Type               string      `expr:"type"`
	Status             string      `expr:"status"`
	Price              fixed.Point `expr:"price"`
	AveragePrice       fixed.Point `expr:"averagePrice"`
	BaseQuantity       fixed.Point `expr:"baseQuantity"`
	BaseQuantityGross  fixed.Point `expr:"baseQuantityGross"`
	BaseQuantityNet    fixed.Point `expr:"baseQuantityNet"`
	QuoteQuantity      fixed.Point `expr:"quoteQuantity"`
	QuoteQuantityGross fixed.Point `expr:"quoteQuantityGross"`
	QuoteQuantityNet   fixed.Point `expr:"quoteQuantityNet"`
}

// ExpressionEnv returns the environment exit expressions of position are
// evaluated against.
func ExpressionEnv(position common.Position) Env {
	return expressionEnv(&position)
}

func expressionEnv(position *common.Position) Env {
	var env Env
	baseGross, baseNet, quoteGross := fixed.Zero, fixed.Zero, fixed.Zero

	for _, order := range position.Orders {
		if order.Side != common.OrderSideBuy {
			continue
		}
		env.Entries = append(env.Entries, EntryEnv{
			Id:                 order.Id,
			Type:               string(order.Type),
			Status:             string(order.Status),
			Price:              order.Price,
			AveragePrice:       order.AveragePrice,
			BaseQuantity:       order.BaseQuantityNet,
			BaseQuantityGross:  order.BaseQuantityGross,
			BaseQuantityNet:    order.BaseQuantityNet,
			QuoteQuantity:      order.QuoteQuantityGross,
			QuoteQuantityGross: order.QuoteQuantityGross,
			QuoteQuantityNet:   order.QuoteQuantityNet,
		})
		baseGross = baseGross.Add(order.BaseQuantityGross)
		baseNet = baseNet.Add(order.BaseQuantityNet)
		quoteGross = quoteGross.Add(order.QuoteQuantityGross)
	}

	averagePrice := fixed.Zero
	if baseGross.IsPos() {
		averagePrice = quoteGross.Div(baseGross)
	}

	env.Position = PositionEnv{
		Id:            position.Id,
		Market:        position.Market,
		AveragePrice:  averagePrice,
		BaseQuantity:  baseNet,
		QuoteQuantity: quoteGross,
	}
	return env
}
