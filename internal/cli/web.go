package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stormlightlabs/memoria/internal/web"
)

func newWebCommand() *cobra.Command {
	webCmd := &cobra.Command{
		Use:   "web",
		Short: "Web interface commands",
	}

	var addr string
	var project int64
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the read-only web interface",
		Long: `Serve a browser for searching a project's topics, decisions and tasks.

Pages take ?project=N to switch projects; --project sets the default.
The same data is available as JSON under /api/search and /api/records.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := web.NewServer(a.search, web.Options{ProjectID: project, Mode: a.mode}, addr)
			if err != nil {
				return err
			}
			return srv.Start(ctx)
		},
	}
	serveCmd.Flags().StringVar(&addr, "http", "localhost:8080", "HTTP service address")
	serveCmd.Flags().Int64VarP(&project, "project", "p", 1, "Default project ID")

	webCmd.AddCommand(serveCmd)
	return webCmd
}
