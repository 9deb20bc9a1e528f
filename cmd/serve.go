package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vedsharma/apireplay/internal/api"
	"github.com/vedsharma/apireplay/internal/format"
)

var serveAddr string

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workbench over HTTP",
		Long: `Serve the workbench as a JSON API for browser front ends. The OpenAPI
document is at /openapi.json and interactive docs at /docs.`,
		Args: cobra.NoArgs,
		Run:  runServe,
	}
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address (default APIREPLAY_BIND_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	addr := a.cfg.BindAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(a.wb, a.cfg.Settings.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("apireplay listening", "addr", addr, "docs", "http://"+addr+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	format.PrintSuccess("Listening on http://" + addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-serverErr:
		a.fail("Server failed", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
