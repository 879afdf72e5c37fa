package main

import (
	"errors"
	"fmt"

	"admin-rpc/codec"
	"admin-rpc/config"
	"admin-rpc/registry"

	"github.com/spf13/cobra"
)

func newCallCommand(ctx *commandContext) *cobra.Command {
	var port int
	var playerID string

	cmd := &cobra.Command{
		Use:   "call PAYLOAD",
		Short: "Send one admin request and print the response",
		Long: "Send a JSON payload to a conductor admin socket and print its response as JSON.\n" +
			"With --port the socket is addressed directly; otherwise --player is looked up in the registry.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload any
			if err := codec.GetCodec(codec.CodecTypeJSON).Decode([]byte(args[0]), &payload); err != nil {
				return fmt.Errorf("payload is not valid JSON: %w", err)
			}
			if port <= 0 && playerID == "" {
				return errors.New("either --port or --player is required")
			}

			return ctx.withRegistry(cmd.Context(), func(cfg *config.Config, reg registry.Registry) error {
				c := newClient(cfg, reg)

				var (
					result any
					err    error
				)
				if port > 0 {
					result, err = c.RemoteCall(cmd.Context(), port, playerID, payload)
				} else {
					result, err = c.CallPlayer(cmd.Context(), playerID, payload)
				}
				if err != nil {
					return err
				}
				return writeJSON(cmd, result)
			})
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Admin port of the conductor")
	cmd.Flags().StringVar(&playerID, "player", "", "Player id (looked up in the registry when --port is not set)")
	return cmd
}
