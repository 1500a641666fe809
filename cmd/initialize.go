package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luoxy/steamlark/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default steamlark configuration",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.GetConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists at %s\n", path)
	} else {
		if err := config.Save(config.DefaultConfig(), path); err != nil {
			return fmt.Errorf("creating config: %w", err)
		}
		fmt.Printf("✓ Created config at %s\n", path)
	}

	fmt.Println("\n🤖 steamlark is ready!")
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Fill in feishu.appId / feishu.appSecret and llm.apiKey")
	fmt.Println("     (or export FEISHU_APP_ID, FEISHU_APP_SECRET, DEEPSEEK_API_KEY)")
	fmt.Println("  2. Start the webhook: steamlark serve")
	fmt.Println("  3. Point the Feishu event subscription at POST /feishu/event")
	return nil
}
