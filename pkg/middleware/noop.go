package middleware

import (
	"context"

	"github.com/peter-kozarec/spotsim/pkg/common"
)

//goland:noinspection ALL
var (
	NoopCandleHdl      = func(context.Context, common.Candle) {}
	NoopSignalHdl      = func(context.Context, common.Signal) {}
	NoopPosOpenHdl     = func(context.Context, common.PositionOpenRequest) {}
	NoopPosOpenedHdl   = func(context.Context, common.Position) {}
	NoopPosCloseHdl    = func(context.Context, common.PositionCloseRequest) {}
	NoopPosCloseAllHdl = func(context.Context, common.PositionCloseAllRequest) {}
	NoopPosUpdatedHdl  = func(context.Context, common.Position) {}
)
