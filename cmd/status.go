package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luoxy/steamlark/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show steamlark status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Println("🤖 steamlark Status")
	fmt.Println()
	fmt.Printf("Config: %s\n", path)
	fmt.Printf("Model: %s\n", cfg.LLM.Model)
	fmt.Printf("Webhook: %s:%d (POST /feishu/event)\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Task pool: %d workers, queue %d\n", cfg.Server.Workers, cfg.Server.QueueSize)

	fmt.Println("\nCredentials:")
	fmt.Printf("  Feishu app: %s\n", check(cfg.Feishu.AppID != "" && cfg.Feishu.AppSecret != ""))
	fmt.Printf("  LLM API key: %s\n", check(cfg.LLM.APIKey != ""))

	fmt.Println("\nOptions:")
	fmt.Printf("  Redis dedup: %s\n", check(cfg.Redis.URL != ""))
	fmt.Printf("  Personas file: %s\n", orNone(cfg.PersonasFile))
	return nil
}

func check(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗ (not configured)"
}

func orNone(s string) string {
	if s == "" {
		return "(builtin)"
	}
	return s
}
