/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/trustbloc/shc-go/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the verification HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := opts.newApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			srv := &http.Server{
				Addr:              a.cfg.Server.Addr,
				Handler:           httpapi.NewRouter(httpapi.New(a.service, a.logger), a.registry),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)

			go func() {
				a.logger.Info("Starting server", "addr", srv.Addr, "issuers", a.service.Directory().Len())

				if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
					errCh <- serveErr
				}

				close(errCh)
			}()

			select {
			case err = <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}

				return nil
			case <-ctx.Done():
			}

			a.logger.Info("Shutting down server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err = srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides the configured server address")

	return cmd
}
