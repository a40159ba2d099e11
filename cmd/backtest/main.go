package main

import (
	"os"

	"github.com/peter-kozarec/spotsim/cmd/backtest/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
