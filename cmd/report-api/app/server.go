// Package app provides the report API server application.
package app

import (
	"context"
	"fmt"

	"github.com/kart-io/sentinel-report/cmd/report-api/app/options"
	reportsvc "github.com/kart-io/sentinel-report/internal/report"
	"github.com/kart-io/sentinel-report/pkg/infra/app"
)

// commandDesc is the description of the command.
const commandDesc = `Sentinel Report API

The report service analyses uploaded PDF documents and writes reports.

This server provides:
  - Table of contents and structure extraction with an LLM
  - Chunk indexing into Milvus with OpenAI embeddings
  - Topic reports rendered as DOCX
  - Question answering and charts over carbon emission datasets`

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewServerOptions()
	return app.NewApp(
		app.WithName(reportsvc.Name),
		app.WithShortDescription("PDF analysis and report generation API"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithEnvFiles(".env"),
		app.WithRunFunc(run(opts)),
	)
}

// run contains the main logic for initializing and running the server.
func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// 信号处理由 server.Manager 负责
		ctx := context.Background()

		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}
		return server.Run(ctx)
	}
}
