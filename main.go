package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"oura-mcp-server/internal/application"
	"oura-mcp-server/internal/domain"
	"oura-mcp-server/internal/logger"
)

const shutdownTimeout = 10 * time.Second

var (
	cfgFile   string
	cfg       *domain.Config
	logCloser io.Closer
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "oura-mcp-server",
		Short:         "MCP server exposing Oura Ring data as tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = domain.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			logCloser = logger.Setup(cfg.Log.Level, cfg.Log.File)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "path to a YAML configuration file")
	flags.String("transport.type", domain.DefaultTransportType, "transport to serve on (stdio or http)")
	flags.String("transport.http.host", domain.DefaultHTTPHost, "HTTP transport bind host")
	flags.Int("transport.http.port", domain.DefaultHTTPPort, "HTTP transport bind port")
	flags.String("oura.base_url", domain.DefaultOuraBaseURL, "Oura API v2 base URL")
	flags.String("oura.timeout", domain.DefaultOuraTimeout, "upstream request timeout")
	flags.String("log.level", domain.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("log.file", "", "also write logs to this rotating file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the Oura tools over the configured transport",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "tools",
			Short: "Print the tool catalog as JSON",
			RunE: func(cmd *cobra.Command, args []string) error {
				return printTools(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the resolved configuration with secrets masked",
			RunE: func(cmd *cobra.Command, args []string) error {
				return printConfig(cmd.OutOrStdout(), cfg)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the server version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", application.ServerName, application.Version)
			},
		},
	)

	return root
}

// runServe starts the gateway and blocks until a signal arrives or the
// transport closes.
func runServe(parent context.Context, cfg *domain.Config) error {
	if err := domain.RequireAccessToken(cfg); err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := NewContainer(cfg, nil)
	if err != nil {
		return err
	}
	server := container.Server()

	if err := server.Start(ctx); err != nil {
		return err
	}
	slog.Info("oura mcp server ready",
		"transport", cfg.Transport.Type,
		"base_url", cfg.Oura.BaseURL,
		"version", application.Version,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-gctx.Done():
			slog.Info("received shutdown signal")
		case <-server.Done():
		}
		return server.Close()
	})
	g.Go(func() error {
		select {
		case <-server.Done():
			return nil
		case <-gctx.Done():
		}
		select {
		case <-server.Done():
			return nil
		case <-time.After(shutdownTimeout):
			return fmt.Errorf("timed out waiting for in-flight requests")
		}
	})

	if err := g.Wait(); err != nil {
		slog.Error("error during server shutdown", "error", err)
		return err
	}

	slog.Info("server shutdown complete")
	return nil
}

func printTools(w io.Writer) error {
	router := application.NewRequestRouter(application.NewOuraHandler(nil))

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{"tools": router.ListAllTools()})
}

func printConfig(w io.Writer, cfg *domain.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is not loaded")
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg.Redacted()); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
