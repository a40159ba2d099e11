package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/peter-kozarec/spotsim/pkg/common"
)

func setupTestLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	return zap.New(core), logs
}

func TestMiddlewareMonitor_Flags(t *testing.T) {
	tests := []struct {
		name   string
		flags  MonitorFlags
		logged bool
	}{
		{"selected", MonitorCandles, true},
		{"all", MonitorAll, true},
		{"none", MonitorNone, false},
		{"other", MonitorSignals, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := setupTestLogger(t)

			var called bool
			m := NewMonitor(logger, tt.flags)
			m.WithCandle(func(context.Context, common.Candle) { called = true })(context.Background(), common.Candle{Symbol: "BTC/USDT"})

			assert.True(t, called)
			if !tt.logged {
				assert.Zero(t, logs.Len())
				return
			}
			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, "event", entry.Message)
			assert.Contains(t, entry.ContextMap(), "candle")
		})
	}
}

func TestMiddlewareMonitor_PositionEvents(t *testing.T) {
	logger, logs := setupTestLogger(t)
	m := NewMonitor(logger, MonitorAll)
	ctx := context.Background()

	m.WithSignal(NoopSignalHdl)(ctx, common.Signal{})
	m.WithPositionOpen(NoopPosOpenHdl)(ctx, common.PositionOpenRequest{})
	m.WithPositionOpened(NoopPosOpenedHdl)(ctx, common.Position{})
	m.WithPositionClose(NoopPosCloseHdl)(ctx, common.PositionCloseRequest{})
	m.WithPositionCloseAll(NoopPosCloseAllHdl)(ctx, common.PositionCloseAllRequest{})
	m.WithPositionUpdated(NoopPosUpdatedHdl)(ctx, common.Position{})

	var keys []string
	for _, entry := range logs.All() {
		for key := range entry.ContextMap() {
			keys = append(keys, key)
		}
	}
	assert.Equal(t, []string{"signal", "position_open", "position_opened", "position_close", "position_close_all", "position_updated"}, keys)
}

func TestMiddlewareMonitor_ParseMonitorFlags(t *testing.T) {
	flags, unknown := ParseMonitorFlags([]string{"candle", "position.updated", "bogus"})
	assert.Equal(t, MonitorCandles|MonitorPositionUpdated, flags)
	assert.Equal(t, []string{"bogus"}, unknown)

	flags, unknown = ParseMonitorFlags(nil)
	assert.Equal(t, MonitorNone, flags)
	assert.Empty(t, unknown)
}
