package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Candle-driven spot exchange simulation",
	Long: `Backtest replays candles through a simulated spot exchange.

A strategy emits signals, the risk manager sizes them, and the position
manager opens long positions and exits them through the simulated exchange.
Closed positions can be journaled to SQLite.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
