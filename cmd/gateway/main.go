// Command gateway runs the TickerHub market-data aggregation gateway.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "TickerHub market-data aggregation gateway",
	Long: `TickerHub fronts cryptocurrency, stock, blockchain explorer, and
LLM-analysis upstreams behind one normalized REST surface.`,
}

func main() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthcheckCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
