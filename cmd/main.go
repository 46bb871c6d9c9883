package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/config"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/logx"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logx.Errorf("%v", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "sunbird-va",
		Short:         "Conversational assistant grounded on reference documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (yaml, toml or json)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logx.Configure(cfg.Log.Logx())
		return cfg, nil
	}

	root.AddCommand(
		newServeCommand(load),
		newAskCommand(load),
		newIngestCommand(load),
	)
	return root
}

type configLoader func() (*config.Config, error)
