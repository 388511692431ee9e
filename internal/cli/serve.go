package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/runoshun/git-pilot/internal/app"
	"github.com/runoshun/git-pilot/internal/httpapi"
)

// newServeCommand creates the serve command.
func newServeCommand(c *app.Container) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task API over HTTP",
		Long: `Serve the task API over HTTP until interrupted.

Endpoints:
  GET  /health
  POST /tasks/from-message   {"message": "..."}
  POST /tasks                {"title": "...", "affected_files": [...]}
  GET  /tasks                ?status=OPEN&all=true
  GET  /tasks/{id}
  POST /tasks/{id}/apply     {"policy": "create", "language": "java"}
  POST /tasks/{id}/test
  POST /tasks/{id}/close     {"reason": "..."}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return httpapi.New(c).ListenAndServe(ctx, addr)
		},
	}

	defaultAddr := ""
	if c != nil && c.AppConfig != nil {
		defaultAddr = c.AppConfig.Server.Addr
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "Listen address")

	return cmd
}
