package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/udirag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an OpenAI-compatible chat completions API",
	Long: `Starts an HTTP server exposing POST /v1/chat/completions and GET /v1/models.
The last message of each request is answered with the retrieval pipeline.
The index must have been built with 'udirag ingest'.

Prompt files are reloaded when they change on disk.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	settings, err := p.Settings().Get()
	if err != nil {
		return err
	}

	index, err := p.Index(ctx)
	if err != nil {
		return err
	}
	exists, err := index.Exists(ctx)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: run 'udirag ingest' first", domain.ErrIndexNotFound)
	}

	answers, err := p.Answerer(ctx)
	if err != nil {
		return err
	}

	go func() {
		if err := p.WatchPrompts(ctx); err != nil {
			logger.Warn("prompt watcher stopped: %v", err)
		}
	}()

	cfg := httpapi.Config{
		Addr:    settings.Server.Addr,
		ModelID: settings.Server.ModelID,
		OwnedBy: settings.Server.OwnedBy,
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	server := httpapi.New(answers, cfg)
	cmd.Printf("Serving chat completions on %s\n", server.Addr())
	return server.Run(ctx)
}
