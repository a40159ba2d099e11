package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/data/duckdb"
	"github.com/peter-kozarec/spotsim/pkg/datasource/historical"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a candle CSV file to the binary candle format",
	Long: `Convert reads a CSV file with the columns ts, open, high, low, close and
volume and writes it in the memory mapped format the binary data source reads.

Example:
  backtest convert --csv btcusdt_1m.csv --out btcusdt_1m.bin`,
	RunE: runConvert,
}

var (
	convertCSVPath string
	convertOutPath string
)

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertCSVPath, "csv", "", "path to the candle CSV file (required)")
	convertCmd.Flags().StringVar(&convertOutPath, "out", "", "path of the binary file to write (required)")
	_ = convertCmd.MarkFlagRequired("csv")
	_ = convertCmd.MarkFlagRequired("out")
}

func runConvert(cmd *cobra.Command, _ []string) error {
	n, err := convertCSV(cmd.Context(), convertCSVPath, convertOutPath)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d candles to %s\n", n, convertOutPath)
	return nil
}

func convertCSV(ctx context.Context, csvPath, outPath string) (int, error) {
	reader := duckdb.NewReader("")
	if err := reader.Connect(); err != nil {
		return 0, err
	}
	defer reader.Close()

	var candles []common.Candle
	err := reader.LoadCandlesCSV(ctx, csvPath, "", time.Time{}, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC),
		func(candle common.Candle) error {
			candles = append(candles, candle)
			return nil
		})
	if err != nil {
		return 0, fmt.Errorf("read %q: %w", csvPath, err)
	}

	if err := historical.WriteCandles(outPath, candles); err != nil {
		return 0, err
	}
	return len(candles), nil
}
