package main

import (
	"github.com/spf13/cobra"

	"github.com/fyerfyer/logicmap/pkg/config"
	"github.com/fyerfyer/logicmap/pkg/flow"
)

func newMapCmd() *cobra.Command {
	mapCmd := &cobra.Command{
		Use:   "map <design.json|design.bench>",
		Short: "Map every module of a design",
		Long: `Extract each module, or each clock domain with --dff, run ABC on it and
replace the logic with the mapped result. With --extract-only the exchange
files are written and the design is left as is; finish with "reint".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := setup(cmd, args)
			if err != nil {
				return err
			}
			mp := flow.NewMapper(s.opts, s.logger, nil, nil)
			if err := mp.Run(s.design); err != nil {
				s.logger.Close()
				return err
			}
			return s.finish(cmd, mp)
		},
	}

	config.BindFlags(mapCmd.Flags(), config.Default())
	return mapCmd
}
