// Package cli implements the agentscout command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/agentscout/internal/config"
)

// NewRootCommand builds the agentscout command tree writing to the given
// streams.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "agentscout",
		Short: "Find agentification opportunities in a source repository",
		Long: `agentscout statically analyzes a repository: it parses every supported
source file, scores its complexity, maps imports and flags declarations
that look like good candidates for an autonomous agent.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringP("config", "c", "", "path to a YAML config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newAnalyzeCommand(),
		newDescribeCommand(),
		newSlicesCommand(),
		newInitCommand(),
		newVersionCommand(),
	)
	return root
}

// loadConfig reads --config and applies the flags shared by every analysis
// command.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("max-file-size") {
		cfg.MaxFileSize, _ = flags.GetInt64("max-file-size")
	}
	if flags.Changed("include-rejected") {
		cfg.IncludeRejected, _ = flags.GetBool("include-rejected")
	}
	if flags.Changed("exclude") {
		cfg.Exclude, _ = flags.GetStringSlice("exclude")
	}
	if flags.Changed("gitignore") {
		cfg.RespectGitignore, _ = flags.GetBool("gitignore")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// resolveRoot returns the absolute directory named by args, defaulting to ".".
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: not a directory", root)
	}
	return root, nil
}

// addScanFlags registers the flags that tune scanning and analysis.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "repository name (default: base name of the path)")
	cmd.Flags().Int("workers", 0, "number of parse workers (default: GOMAXPROCS)")
	cmd.Flags().Int64("max-file-size", 0, "skip files larger than this many bytes (default from config)")
	cmd.Flags().Bool("include-rejected", false, "report rejected declarations too")
	cmd.Flags().StringSlice("exclude", nil, "glob patterns (doublestar) of paths to skip")
	cmd.Flags().Bool("gitignore", false, "honour the repository's .gitignore")
}
