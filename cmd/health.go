package cmd

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newHealthCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Print the API's health endpoint response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.newService()
			if err != nil {
				return err
			}
			defer closeFn()

			body, err := svc.Health(cmd.Context())
			if err != nil {
				return err
			}

			if !strings.HasSuffix(body, "\n") {
				body += "\n"
			}
			_, err = io.WriteString(a.stdout, body)
			return err
		},
	}
}
