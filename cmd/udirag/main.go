// Command udirag answers immigration questions from scraped udi.no pages
// and benchmarks the answers.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/udirag/internal/adapters/driving/cli"
	"github.com/custodia-labs/udirag/internal/app"
	"github.com/custodia-labs/udirag/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetProviderFactory(func(configDir string) (cli.Provider, error) {
		c, err := app.New(app.Options{ConfigDir: configDir})
		if err != nil {
			return nil, err
		}
		return c, nil
	})

	if err := cli.Execute(ctx); err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}
