package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akarshrajput/evidark-v2-sub001/internal/app"
	"github.com/akarshrajput/evidark-v2-sub001/internal/config"
	"github.com/akarshrajput/evidark-v2-sub001/internal/log"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "evidark-chat",
		Short: "Terminal client for EviDark realtime chat",
		Long: `evidark-chat connects to the EviDark realtime server with the token
stored by "login" and opens an interactive chat room.

Configuration is read from config.yaml and EVIDARK_* environment variables.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newChatCmd(opts),
	)
	return cmd
}

// open loads configuration and builds the application.
func (o *rootOptions) open() (*app.App, error) {
	bootLogger := log.New(o.logLevel)

	cfg, path, err := config.Load(bootLogger, o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.UpdateFrom(config.Config{LogLevel: o.logLevel})

	logger := log.New(cfg.LogLevel)
	logger.Debug().Str("path", path).Str("server_url", cfg.ServerURL).Msg("config loaded")

	return app.New(cfg, logger)
}
