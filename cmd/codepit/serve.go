package main

import (
	"github.com/caffeineduck/codepit/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start an HTTP server exposing code execution and snippet management.

Endpoints:
  POST   /api/run                                  Run {code, language}
  GET    /api/languages                            Known languages
  GET    /api/snippets?q=&language=&sort=          Search snippets
  POST   /api/snippets                             Create snippet
  GET    /api/snippets/{id}                        Get snippet
  PUT    /api/snippets/{id}                        Update snippet
  DELETE /api/snippets/{id}                        Delete snippet
  GET    /api/snippets/{id}/revisions              Revision history
  POST   /api/snippets/{id}/revisions              Save revision
  POST   /api/snippets/{id}/revisions/{rev}/restore Restore revision
  GET    /api/stats                                Language statistics
  GET    /api/export                               Download bundle
  POST   /api/export/archive                       Upload bundle to S3
  POST   /api/import?replace=true                  Import bundle
  GET    /health                                   Health check`,
		RunE: c.runServe,
	}
	cmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().Float64("run-rate", -1, "Allowed /api/run requests per second per client (0 disables)")
	cmd.Flags().StringSlice("cors-origin", nil, "Allowed CORS origin (repeatable)")
	return cmd
}

func (c *cli) runServe(cmd *cobra.Command, args []string) error {
	cfg := c.cfg
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTP.Addr = addr
	}
	if rate, _ := cmd.Flags().GetFloat64("run-rate"); rate >= 0 {
		cfg.HTTP.RunRate = rate
	}
	if origins, _ := cmd.Flags().GetStringSlice("cors-origin"); len(origins) > 0 {
		cfg.HTTP.CORSOrigins = origins
	}

	a := newApp(cfg, c.logger).withExecutors()
	defer a.Close()
	if _, err := a.withStore(cmd.Context()); err != nil {
		return err
	}
	if _, err := a.withArchive(); err != nil {
		return err
	}

	srv := server.New(server.Config{
		Addr:            cfg.HTTP.Addr,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		CORSOrigins:     cfg.HTTP.CORSOrigins,
		RunRate:         cfg.HTTP.RunRate,
		RunBurst:        cfg.HTTP.RunBurst,
	}, a.dispatcher, a.snippets, a.serverArchive(), a.logger)

	return srv.ListenAndServe(cmd.Context())
}
