package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/finjector/internal/config"
	"github.com/aretw0/finjector/internal/presentation/graph"
	"github.com/aretw0/finjector/internal/presentation/tui"
	adminhttp "github.com/aretw0/finjector/pkg/adapters/http"
	"github.com/aretw0/finjector/pkg/adapters/redis"
	"github.com/aretw0/finjector/pkg/domain"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var probesCmd = &cobra.Command{
	Use:   "probes",
	Short: "Inspect and arm failure probes on a running injector",
}

var probesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered probes and their injection points",
	RunE: func(cmd *cobra.Command, args []string) error {
		admin, _ := cmd.Flags().GetString("admin")
		format, _ := cmd.Flags().GetString("format")

		snap, err := adminhttp.NewClient(admin).List(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch format {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		case "mermaid":
			_, err := fmt.Fprint(out, graph.GenerateMermaid(snap, nil))
			return err
		case "table", "":
			styled := out == os.Stdout && term.IsTerminal(int(os.Stdout.Fd()))
			return tui.WriteProbes(out, snap, styled)
		default:
			return fmt.Errorf("unknown format %q: use table, json or mermaid", format)
		}
	},
}

var probesSetCmd = &cobra.Command{
	Use:   "set <module> <point> <exception|delay|terminate>",
	Short: "Arm an injection point on every shard",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		fault, err := domain.ParseFaultType(args[2])
		if err != nil {
			return err
		}
		return send(cmd, domain.Command{Module: args[0], Point: args[1], Fault: fault})
	},
}

var probesUnsetCmd = &cobra.Command{
	Use:   "unset <module> <point>",
	Short: "Disarm an injection point on every shard",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd, domain.Command{Module: args[0], Point: args[1], Fault: domain.FaultNone})
	},
}

// send delivers cmd over the admin API, or over Redis when --via-redis is set.
func send(cmd *cobra.Command, c domain.Command) error {
	ctx := cmd.Context()
	if viaRedis, _ := cmd.Flags().GetBool("via-redis"); viaRedis {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("--via-redis needs redis.addr in the configuration")
		}
		client := backend.NewClient(&backend.Options{Addr: cfg.Redis.Addr})
		defer client.Close()
		if err := redis.Publish(ctx, client, cfg.Redis.Channel, c); err != nil {
			return err
		}
	} else {
		admin, _ := cmd.Flags().GetString("admin")
		if err := adminhttp.NewClient(admin).Apply(ctx, c); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", c)
	return nil
}

func init() {
	rootCmd.AddCommand(probesCmd)
	probesCmd.AddCommand(probesListCmd, probesSetCmd, probesUnsetCmd)

	probesListCmd.Flags().StringP("format", "f", "table", "Output format: table, json or mermaid")
	for _, c := range []*cobra.Command{probesSetCmd, probesUnsetCmd} {
		c.Flags().Bool("via-redis", false, "Publish the command on the configured Redis channel")
	}
}
