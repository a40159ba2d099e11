package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/datasource"
)

func drain(t *testing.T, source datasource.CandleDataSource) []common.Candle {
	t.Helper()

	var candles []common.Candle
	for {
		candle, err := source.GetNext()
		if err == datasource.ErrEof {
			return candles
		}
		require.NoError(t, err)
		candles = append(candles, candle)
	}
}
