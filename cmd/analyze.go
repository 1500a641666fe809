package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luoxy/steamlark/internal/config"
	"github.com/luoxy/steamlark/internal/steam"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <store-url>",
	Short: "Scrape a Steam store page and print the review to stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	completer, err := newLLMClient(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	data, err := steam.NewExtractor().Fetch(ctx, args[0])
	if err != nil {
		return fmt.Errorf("extracting %s: %w", args[0], err)
	}

	fmt.Printf("# %s\n\n", data.Title)
	fmt.Println(completer.ReviewGame(ctx, data))
	return nil
}
