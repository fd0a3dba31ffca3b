package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"scadarag/internal/llm"
	"scadarag/internal/loader"
	"scadarag/internal/logging"
	"scadarag/internal/server"
	"scadarag/internal/watcher"
	"scadarag/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket API for the dashboard",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
	serveCmd.Flags().String("watch", "", "directory to keep indexed (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if dir, _ := cmd.Flags().GetString("watch"); dir != "" {
		cfg.Server.WatchDir = dir
	}

	log := logging.Logger()
	sess, err := newSession(cfg, log)
	if err != nil {
		return err
	}
	defer sess.Dispose()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := worker.New(sess, cfg.Server.QueueSize, log)
	go w.Run(ctx)

	ld := loader.New(log)
	if dir := cfg.Server.WatchDir; dir != "" {
		wt := watcher.New(dir, time.Duration(cfg.Server.WatchDebounceMs)*time.Millisecond, ld, workerSink{w: w}, log)
		if err := wt.Sync(ctx); err != nil {
			return err
		}
		go func() {
			if err := wt.Watch(ctx); err != nil {
				logging.Error(err, "directory watch stopped")
			}
		}()
	}

	chats := llm.NewRegistry(cfg.LLM)
	logging.Info("chat providers", "available", chats.Names())

	srv := server.New(cfg.Server, w, ld, chats, log)
	errCh := make(chan error, 1)
	logging.Info("listening", "addr", cfg.Server.Addr)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
