package main

import (
	"fmt"

	"github.com/aretw0/finjector/internal/cli"
	"github.com/aretw0/finjector/internal/config"
	"github.com/aretw0/finjector/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the injector and its admin API",
	Long: `Starts one shard per CPU (or the configured count), registers the configured probes
on every shard and exposes the admin API over HTTP. When redis.addr is set, commands
published on the Redis channel are applied too.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("listen") {
			cfg.Admin.Listen, _ = cmd.Flags().GetString("listen")
		}
		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			tui.PrintBanner(cmd.ErrOrStderr())
		}

		logger := cli.NewLogger(cfg.Log)
		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		d, err := cli.NewDaemon(sc, cfg, logger)
		if err != nil {
			return fmt.Errorf("error initializing finjector: %w", err)
		}
		if err := d.Run(sc); err != nil {
			return err
		}
		if sig := sc.Signal(); sig != nil {
			cli.PrintSystemMessage(cmd.ErrOrStderr(), "Stopped gracefully (%v).", sig)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Admin API listen address (overrides admin.listen)")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
