package main

import (
	"github.com/spf13/cobra"

	"github.com/fyerfyer/logicmap/pkg/config"
	"github.com/fyerfyer/logicmap/pkg/flow"
)

func newReintCmd() *cobra.Command {
	reintCmd := &cobra.Command{
		Use:   "reint <design.json>",
		Short: "Read back ABC results of an extract-only run",
		Long: `Redo the extraction of an earlier "map --extract-only" run and replace the
logic with the output.blif files found in its work area. The work area is
taken from --abc-dir, or from the abc.dir entry recorded in the design.
Use the same mapping options as the extract-only run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := setup(cmd, args)
			if err != nil {
				return err
			}
			mp := flow.NewMapper(s.opts, s.logger, nil, nil)
			if err := mp.Reintegrate(s.design); err != nil {
				s.logger.Close()
				return err
			}
			return s.finish(cmd, mp)
		},
	}

	config.BindFlags(reintCmd.Flags(), config.Default())
	return reintCmd
}
