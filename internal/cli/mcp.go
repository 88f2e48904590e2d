package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/stormlightlabs/memoria/internal/embedding"
	"github.com/stormlightlabs/memoria/internal/mcp"
)

type warmer interface {
	Warm(ctx context.Context) embedding.State
}

// warmInBackground starts w.Warm in a goroutine. The returned stop cancels
// the warm-up and waits for it to return; call it before closing the store.
func warmInBackground(ctx context.Context, w warmer) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Warm(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func newMCPCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "mcp", Short: "Model Context Protocol server"}
	cmd.AddCommand(newMCPServeCommand())
	return cmd
}

func newMCPServeCommand() *cobra.Command {
	var stdio bool
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server over stdio (the default) or streamable HTTP.

The embedding model is warmed in the background so the first semantic
search does not pay for the provider probe and backfill.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stdio && httpAddr != "" {
				return errors.New("choose only one of --stdio or --http")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			stopWarm := warmInBackground(ctx, a.embedding)
			defer stopWarm()

			server := mcp.NewServer(a.memory, a.search, version)
			if httpAddr != "" {
				log.Info("Starting MCP server", "transport", "http", "addr", httpAddr)
				return mcp.RunHTTP(ctx, server, httpAddr)
			}
			return mcp.RunStdio(ctx, server)
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false, "Use stdio transport (default)")
	cmd.Flags().StringVar(&httpAddr, "http", "", "Use HTTP transport on the specified address (e.g., :8080)")
	return cmd
}
