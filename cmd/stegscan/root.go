package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for stegscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stegscan",
		Short: "Steganography triage for image files",
		Long: `stegscan inspects image files for signs of hidden data.

Each file is decoded once and examined by several independent sources of
evidence: an LSB statistic, an anomaly score, rendered bit planes and a
catalog of external steganalysis tools (binwalk, zsteg, steghide, ...).
The evidence is combined into a 0-100 suspicion score and a verdict of
Safe, Suspicious or Highly Suspicious.

Missing external tools are reported as "Not Installed" and never abort
an analysis.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewDetectorsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
