package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "logicmap",
		Short: "Technology mapping through an external logic optimizer",
		Long: `logicmap extracts the combinational logic of a netlist, optionally per
clock domain, hands it to ABC and puts the mapped result back in place.

  $ logicmap map --lut 6 -o mapped.json design.json
  $ logicmap map --extract-only design.json
  $ logicmap reint design.json`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "YAML file with option defaults")
	rootCmd.PersistentFlags().String("log", "", "log file (default: stderr)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output design file (default: overwrite the input)")

	rootCmd.AddCommand(newMapCmd(), newReintCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
