package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/luoxy/steamlark/internal/config"
	"github.com/luoxy/steamlark/internal/dedup"
	"github.com/luoxy/steamlark/internal/dispatch"
	"github.com/luoxy/steamlark/internal/feishu"
	"github.com/luoxy/steamlark/internal/steam"
	"github.com/luoxy/steamlark/internal/task"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Feishu webhook server",
	RunE:  runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Webhook port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	completer, err := newLLMClient(cfg)
	if err != nil {
		return err
	}

	guard := dedup.NewGuard(dedup.Options{
		URL:      cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer guard.Close()

	runner := task.NewRunner(
		steam.NewExtractor(),
		completer,
		feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret, cfg.Feishu.APIBase),
	)
	pool := task.NewPool(cfg.Server.Workers, cfg.Server.QueueSize)

	dispatcher := dispatch.NewDispatcher(runner, pool, guard)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: dispatcher.Routes(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	fmt.Printf("🤖 steamlark listening on %s (POST /feishu/event)\n", addr)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}

	// Let in-flight reviews finish before exiting.
	log.Println("[Serve] draining task pool")
	pool.Stop()
	return nil
}
