package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/config"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/di"
)

var (
	configPath   string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "sotctl",
	Short: "Query the similarity and impact engine from the command line",
	Long: `sotctl runs the analysis engine against the configured node store.

Examples:
  sotctl similar HH@id@934 --threshold=0.8
  sotctl impact HH@id@934
  sotctl deps 934
  sotctl ask "how many HH nodes"
  sotctl import threads.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("SOT_CONFIG"), "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "human", "Output format (human, json)")
}

// withContainer loads configuration, wires the service and runs fn.
func withContainer(fn func(ctx context.Context, c *di.Container) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.Store.WatchSeed = false

	ctx := context.Background()
	c, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, c)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// emit writes v as JSON, or calls human for the human format.
func emit(w io.Writer, v any, human func(io.Writer)) error {
	switch outputFormat {
	case "json":
		return printJSON(w, v)
	case "human":
		human(w)
		return nil
	default:
		return fmt.Errorf("unknown format %q", outputFormat)
	}
}
