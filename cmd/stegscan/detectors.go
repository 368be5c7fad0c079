package main

import (
	"fmt"
	"strings"

	"github.com/nao1215/stegscan/internal/config"
	"github.com/nao1215/stegscan/internal/detector"
	"github.com/spf13/cobra"
)

// NewDetectorsCmd creates the detectors command.
func NewDetectorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detectors",
		Short: "List the configured steganalysis tools",
		Long: `Detectors lists the external tools a scan would run, after applying the
configuration file and --disable, and whether each binary is on PATH.

Tools that are missing are reported as "Not Installed" during a scan.`,
		Args: cobra.NoArgs,
		RunE: runDetectorsCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .stegscan in current or home directory)")
	cmd.Flags().StringArrayP("disable", "d", nil,
		"Detector to leave out (repeatable)")

	return cmd
}

// runDetectorsCmd executes the detectors command.
func runDetectorsCmd(cmd *cobra.Command, _ []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	disabled, err := cmd.Flags().GetStringArray("disable")
	if err != nil {
		return err
	}

	cfg := config.NewConfig()
	if path := config.FindConfigFile(configPath); path != "" {
		f, err := config.LoadConfigFile(path)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg.ApplyFile(f)
	} else if configPath != "" {
		return fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
	}
	cfg.Disabled = append(cfg.Disabled, disabled...)

	cmds, err := detector.Build(cfg.File.Specs(cfg.Disabled, cfg.MaxLines))
	if err != nil {
		return fmt.Errorf("invalid detector catalog: %w", err)
	}

	out := cmd.OutOrStdout()
	installed := 0
	fmt.Fprintf(out, "  %-16s  %-9s  %s\n", "NAME", "INSTALLED", "COMMAND")
	for _, d := range cmds {
		mark := "no"
		if d.Available() {
			mark = "yes"
			installed++
		}
		fmt.Fprintf(out, "  %-16s  %-9s  %s\n", d.Name(), mark, strings.Join(d.Spec().Command, " "))
	}
	fmt.Fprintf(out, "\n%d of %d detectors installed\n", installed, len(cmds))

	return nil
}
