package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fyerfyer/logicmap/pkg/config"
	"github.com/fyerfyer/logicmap/pkg/flow"
	"github.com/fyerfyer/logicmap/pkg/netlist"
	"github.com/fyerfyer/logicmap/pkg/utils"
)

// session bundles what a subcommand needs after setup
type session struct {
	design *netlist.Design
	opts   config.Options
	logger *utils.Logger
	input  string
}

// readDesign reads a JSON netlist, or a BENCH file when the name says so
func readDesign(path string) (*netlist.Design, error) {
	if strings.EqualFold(filepath.Ext(path), ".bench") {
		return utils.ParseBenchFile(path)
	}
	return netlist.ReadJSONFile(path)
}

// setup reads the design and collects options from the design scratchpad,
// the config file and the command line, in that order
func setup(cmd *cobra.Command, args []string) (*session, error) {
	d, err := readDesign(args[0])
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", args[0])
	}

	opts := config.Default()
	opts.ApplyScratchpad(d.Scratchpad)
	if file, _ := cmd.Flags().GetString("config"); file != "" {
		if err := opts.LoadFile(file); err != nil {
			return nil, err
		}
	}
	if err := opts.ApplyFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if err := opts.Resolve(cwd); err != nil {
		return nil, err
	}

	level := utils.InfoLevel
	if opts.Debug {
		level = utils.DebugLevel
	}
	logger := utils.NewLogger(level)
	if file, _ := cmd.Flags().GetString("log"); file != "" {
		if logger, err = utils.NewFileLogger(level, file); err != nil {
			return nil, err
		}
	}

	return &session{design: d, opts: opts, logger: logger, input: args[0]}, nil
}

// finish writes the design and metrics and reports the work area
func (s *session) finish(cmd *cobra.Command, mp *flow.Mapper) error {
	defer s.logger.Close()

	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		out = s.input
		if strings.EqualFold(filepath.Ext(out), ".bench") {
			out = strings.TrimSuffix(out, filepath.Ext(out)) + ".json"
		}
	}
	if err := netlist.WriteJSONFile(out, s.design); err != nil {
		return errors.Wrapf(err, "writing %s", out)
	}
	s.logger.Info("Wrote design to %s.", out)

	if s.opts.MetricsFile != "" {
		if err := mp.Metrics().WriteFile(s.opts.MetricsFile); err != nil {
			return err
		}
	}

	if dir, ok := s.design.Scratchpad[flow.ScratchpadDir]; ok {
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", flow.ScratchpadDir, dir)
	}
	return nil
}
