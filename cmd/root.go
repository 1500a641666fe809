package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "steamlark",
	Short: "steamlark — Feishu bot that reviews Steam store pages with an LLM",
	Long:  "steamlark listens for Feishu messages, scrapes Steam store pages, asks an LLM for a review, and replies with a card.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json (default: ~/.steamlark/config.json)")
}
