package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/dossier/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Dossier server",
	Long: `Start the Dossier HTTP server.

Each assembly session lives in memory for the life of the server. The
config file is watched; changes apply to sessions created afterwards.

The server provides:
  - /health        Basic server health check
  - /ready         Readiness check
  - /status        Sessions, thumbnails and storage status
  - /api/sessions  Assembly sessions

Examples:
  dossier serve                    # Start on the configured port (default 8080)
  dossier serve --port 3000        # Start on custom port
  dossier serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger := newLogger(os.Stdout)

		h, err := getHome()
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		mgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		if file := mgr.ConfigFile(); file != "" {
			logger.Info("loaded config", "file", file)
			mgr.WatchConfig()
		}

		cfg := mgr.Get()
		host, port := cfg.Server.Host, cfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			Home:          h,
			ConfigManager: mgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to (overrides server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on (overrides server.port)")

	rootCmd.AddCommand(serveCmd)
}
