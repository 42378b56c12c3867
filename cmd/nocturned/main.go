// Command nocturned runs the nocturne game server: it loads a Lua game
// script, drives the fixed-rate simulation tick, and serves clients over
// the dual-path transport.
package main

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

	"github.com/nocturne-engine/nocturne/internal/config"
	"github.com/nocturne-engine/nocturne/internal/httpserver"
	"github.com/nocturne-engine/nocturne/internal/logging"
	"github.com/nocturne-engine/nocturne/internal/script"
	"github.com/nocturne-engine/nocturne/internal/session"
	"github.com/nocturne-engine/nocturne/internal/store"
	"github.com/nocturne-engine/nocturne/internal/watch"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nocturned",
		Short: "Run the nocturne game server",
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newTestCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		addr     string
		cfgPath  string
		debug    bool
		tickRate int
	)

	cmd := &cobra.Command{
		Use:   "serve <script-path>",
		Short: "Serve a game script to clients",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = ""
			}
			if !cmd.Flags().Changed("tick-rate") {
				tickRate = 0
			}
			return runServe(cmd.Context(), args[0], addr, cfgPath, debug, tickRate)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":3425", "listen address")
	cmd.Flags().StringVar(&cfgPath, "config", "", "path to a YAML server config file")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable the /debug eval endpoint")
	cmd.Flags().IntVar(&tickRate, "tick-rate", 30, "simulation ticks per second")

	return cmd
}

func runServe(ctx context.Context, scriptPath, addr, cfgPath string, debug bool, tickRate int) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("nocturned: loading config: %w", err)
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if debug {
		cfg.Debug = true
	}
	if tickRate > 0 {
		cfg.TickRate = tickRate
	}

	logger := logging.New(cfg.Debug)

	w, err := watch.New(scriptPath)
	if err != nil {
		return fmt.Errorf("nocturned: watching script: %w", err)
	}
	defer w.Close()

	st, err := store.Open(cfg.EventLogPath)
	if err != nil {
		return fmt.Errorf("nocturned: opening event log: %w", err)
	}
	defer st.Close()

	dispatcher, err := session.New(scriptPath, cfg.TickRate, w, st, logger)
	if err != nil {
		return fmt.Errorf("nocturned: loading script: %w", err)
	}

	srv := httpserver.New(cfg, dispatcher, logger)
	httpSrv := &http.Server{Addr: cfg.Addr, Handler: srv.Handler()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("nocturned: listen: %w", err)
			return
		}
		errCh <- nil
	}()

	go func() {
		if err := dispatcher.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("dispatcher stopped unexpectedly", "error", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <script-path>",
		Short: "Load a script headlessly and run one update tick",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(args[0])
		},
	}
}

func runTest(scriptPath string) error {
	gs, err := script.Load(scriptPath)
	if err != nil {
		return fmt.Errorf("nocturned: load: %w", err)
	}
	defer gs.Close()

	gs.BeginFrame()
	if err := gs.Update(0.1); err != nil {
		return fmt.Errorf("nocturned: update: %w", err)
	}
	fmt.Println("ok")
	return nil
}
