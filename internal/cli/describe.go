package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phobologic/agentscout/internal/describe"
	"github.com/phobologic/agentscout/internal/slice"
)

func newDescribeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe [path]",
		Short: "Print a normalized system description of a repository",
		Long: `Analyze the repository and print a system description: entrypoints,
key flows, pain points, per-file components and code slices, as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDescribe,
	}
	addScanFlags(cmd)
	return cmd
}

func newSlicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slices [path]",
		Short: "Print source excerpts of the analyzed functions",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSlices,
	}
	addScanFlags(cmd)
	return cmd
}

func runDescribe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}
	report, err := analyze(cmd, cfg, root)
	if err != nil {
		return err
	}

	sys := describe.Adapt(report, slice.Collect(report, root, cfg), cfg)
	return writeJSON(cmd, sys)
}

func runSlices(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}
	report, err := analyze(cmd, cfg, root)
	if err != nil {
		return err
	}

	return writeJSON(cmd, slice.Collect(report, root, cfg))
}

func writeJSON(cmd *cobra.Command, v any) error {
	if err := encodeJSON(cmd.OutOrStdout(), v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
