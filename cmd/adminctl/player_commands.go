package main

import (
	"fmt"
	"os"
	"strconv"

	"admin-rpc/config"
	"admin-rpc/registry"

	"github.com/spf13/cobra"
)

func newPlayerCommand(ctx *commandContext) *cobra.Command {
	playerCmd := &cobra.Command{
		Use:   "player",
		Short: "Manage the player registry",
	}
	playerCmd.AddCommand(newPlayerRegisterCommand(ctx))
	playerCmd.AddCommand(newPlayerLookupCommand(ctx))
	playerCmd.AddCommand(newPlayerRemoveCommand(ctx))
	playerCmd.AddCommand(newPlayerListCommand(ctx))
	return playerCmd
}

func newPlayerRegisterCommand(ctx *commandContext) *cobra.Command {
	var host string
	var ttl int64

	cmd := &cobra.Command{
		Use:   "register ID PORT",
		Short: "Record the admin port of a player's conductor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := strconv.Atoi(args[1])
			if err != nil || port <= 0 || port > 65535 {
				return fmt.Errorf("invalid port %q", args[1])
			}
			return ctx.withRegistry(cmd.Context(), func(cfg *config.Config, reg registry.Registry) error {
				if cfg.Registry.Backend == config.RegistryMemory {
					fmt.Fprintln(os.Stderr, "warn: memory registry does not outlive this command; add the player to config players instead")
				}
				if !cmd.Flags().Changed("ttl") {
					ttl = cfg.Registry.TTLSeconds
				}
				instance := registry.PlayerInstance{PlayerID: args[0], Host: host, AdminPort: port}
				if err := reg.Register(cmd.Context(), instance, ttl); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registered %s on port %d\n", args[0], port)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Conductor host (default from config conductor.host)")
	cmd.Flags().Int64Var(&ttl, "ttl", 0, "Entry lifetime in seconds, 0 for no expiry")
	return cmd
}

func newPlayerLookupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup ID",
		Short: "Show where a player's admin interface listens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRegistry(cmd.Context(), func(cfg *config.Config, reg registry.Registry) error {
				instance, err := reg.Lookup(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, instance)
			})
		},
	}
}

func newPlayerRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Forget a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRegistry(cmd.Context(), func(cfg *config.Config, reg registry.Registry) error {
				if err := reg.Deregister(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newPlayerListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRegistry(cmd.Context(), func(cfg *config.Config, reg registry.Registry) error {
				players, err := reg.List(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd, players)
			})
		},
	}
}
