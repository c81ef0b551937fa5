package cmd

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/damon-houk/anvil-basic-tx/internal/infrastructure/handler"
)

const (
	addressFlag     = "address"
	shutdownTimeout = 5 * time.Second
)

func newSandboxCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Serve a local imitation of the build API for offline testing",
		Long: `sandbox answers POST /transactions/build with {"type":"Tx","cborHex":...}
and GET /health with {"status":"ok"}. Point basictx at it with
--api-url http://<address>. The cborHex is a request digest, not a real transaction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listener, err := net.Listen("tcp", a.cfg.Sandbox.Address)
			if err != nil {
				return errors.Wrap(err, "sandbox listen")
			}
			return a.serveSandbox(cmd.Context(), listener)
		},
	}

	cmd.Flags().String(addressFlag, "", "listen address (sandbox.address)")
	a.bind(cmd.Flags().Lookup(addressFlag), "sandbox.address")

	return cmd
}

// serveSandbox serves on listener until ctx is canceled
func (a *app) serveSandbox(ctx context.Context, listener net.Listener) error {
	router := handler.NewRouter(handler.NewSandboxHandler(a.log))

	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Sandbox listening", map[string]interface{}{
			"address": listener.Addr().String(),
		})
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "sandbox server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.log.Info("Sandbox shutting down", nil)
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "sandbox shutdown")
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "sandbox server")
	}
	return nil
}
