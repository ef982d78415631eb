package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/coolbeans/ejar/pkg/server"
	"github.com/coolbeans/ejar/pkg/template"
)

func serveCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP extraction service",
		Long: `Run the HTTP service.

Endpoints:
  GET  /health    liveness check
  POST /extract   multipart upload (field "file", .pdf or .txt), returns the record

Add ?debug=true to /extract to include the debug object.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			if cfg.Templates.Watch {
				reg.SetOnChange(func(event string, t *template.Template) {
					logger.Info().Str("event", event).Str("template", t.FormatID).Msg("template changed")
				})
				if err := reg.Watch(); err != nil {
					return err
				}
				defer reg.StopWatch()
			}

			assembler, err := newAssembler(reg, cfg.Templates.Format)
			if err != nil {
				return err
			}

			if cfg.Log.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(assembler, server.Config{
				RequestTimeout:   cfg.Server.RequestTimeout,
				MaxUploadBytes:   cfg.Server.MaxUploadBytes,
				ReadTimeout:      cfg.Server.ReadTimeout,
				WriteTimeout:     cfg.Server.WriteTimeout,
				GracefulShutdown: cfg.Server.GracefulShutdown,
				RateLimit:        cfg.Server.RateLimit,
				RateBurst:        cfg.Server.RateBurst,
				Backend:          cfg.Extraction.Backend,
				DatePolicy:       cfg.Extraction.DatePolicy,
			}, logger)

			logger.Info().
				Int("templates", reg.Count()).
				Str("pinned_template", cfg.Templates.Format).
				Msg("templates loaded")
			return srv.Run(ctx, cfg.Server.Addr())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides config)")
	return cmd
}
