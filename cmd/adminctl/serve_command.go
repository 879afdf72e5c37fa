package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"admin-rpc/config"
	"admin-rpc/logging"
	"admin-rpc/registry"
	"admin-rpc/server"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var listen string
	var registerAs string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a stub conductor admin socket",
		Long: "Run a conductor admin socket answering ping, echo and list_methods.\n" +
			"With --register the listening port is recorded in the registry under the given player id.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return ctx.withRegistry(signalCtx, func(cfg *config.Config, reg registry.Registry) error {
				if listen == "" {
					listen = cfg.Server.ListenAddr
				}
				return runServer(signalCtx, cmd, cfg, reg, listen, registerAs)
			})
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config server.listen_addr)")
	cmd.Flags().StringVar(&registerAs, "register", "", "Register this socket in the registry under a player id")
	return cmd
}

func runServer(ctx context.Context, cmd *cobra.Command, cfg *config.Config, reg registry.Registry, listen, playerID string) error {
	log := logging.For("server")

	svr := server.NewServer(log)
	if err := svr.Register(server.NewBuiltins(svr)); err != nil {
		return err
	}

	l, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listen, err)
	}
	port := l.Addr().(*net.TCPAddr).Port

	if playerID != "" {
		instance := registry.PlayerInstance{PlayerID: playerID, AdminPort: port}
		if err := reg.Register(ctx, instance, cfg.Registry.TTLSeconds); err != nil {
			l.Close()
			return fmt.Errorf("register player %s: %w", playerID, err)
		}
		defer func() {
			// ctx is already cancelled here
			if err := reg.Deregister(context.Background(), playerID); err != nil {
				log.WithError(err).Warn("failed to deregister player")
			}
		}()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "admin interface listening on port %d\n", port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- svr.Serve(l)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down admin interface")
		if err := svr.Shutdown(shutdownTimeout); err != nil {
			return err
		}
		return <-errCh
	}
}
