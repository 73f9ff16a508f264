package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/agentscout/internal/config"
)

const defaultConfigPath = ".agentscout.yaml"

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration to a YAML file",
		Long: `Write every built-in setting (ignored directories, extensions, detector
vocabularies and thresholds) to a YAML file that --config can load.

path defaults to ./` + defaultConfigPath + `. An existing file is left alone
unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
	cmd.Flags().Bool("dry-run", false, "print the configuration instead of writing it")
	cmd.Flags().Bool("force", false, "overwrite an existing file")
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	force, _ := cmd.Flags().GetBool("force")

	data, err := defaultConfigYAML()
	if err != nil {
		return err
	}

	if dryRun {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	path := defaultConfigPath
	if len(args) > 0 {
		path = args[0]
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", path, err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote default config to %s\n", path)
	return nil
}

// defaultConfigYAML renders config.Default. Workers is written as 0, which
// means one worker per CPU on the machine that loads it.
func defaultConfigYAML() ([]byte, error) {
	cfg := config.Default()
	cfg.Workers = 0
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}
