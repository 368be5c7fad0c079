package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/stegscan/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/stegscan.yaml
var configTemplate embed.FS

// templatePath is the embedded template location.
const templatePath = "templates/stegscan.yaml"

// configFileName is the default configuration file name.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new stegscan configuration file",
		Long: `Initialize creates a new .stegscan configuration file in the current directory.

The generated file includes:
- The default verdict thresholds and detector settings
- Commented examples for custom rules and custom detectors
- Documentation for all available options

Examples:
  # Create .stegscan in current directory
  stegscan init

  # Create config file at a specific path
  stegscan init -o myconfig.yaml

  # Force overwrite existing file
  stegscan init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to adjust:")
	fmt.Fprintln(out, "  - Verdict thresholds and rule weights")
	fmt.Fprintln(out, "  - Detector timeout, concurrency and custom tools")
	fmt.Fprintln(out, "  - Rendered bit planes")

	return nil
}
