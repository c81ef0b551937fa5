package cmd

import (
	"github.com/spf13/cobra"
)

const limitFlag = "limit"

func newHistoryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded builds (requires history.path)",
	}

	cmd.AddCommand(newHistoryListCommand(a), newHistoryShowCommand(a))
	return cmd
}

func newHistoryListCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded builds, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt(limitFlag)
			if err != nil {
				return err
			}

			svc, closeFn, err := a.newService()
			if err != nil {
				return err
			}
			defer closeFn()

			records, err := svc.History(cmd.Context(), limit)
			if err != nil {
				return err
			}

			return a.writeJSON(records)
		},
	}

	cmd.Flags().Int(limitFlag, 20, "maximum number of records, 0 for all")
	return cmd
}

func newHistoryShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one recorded build",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.newService()
			if err != nil {
				return err
			}
			defer closeFn()

			record, err := svc.HistoryRecord(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return a.writeJSON(record)
		},
	}
}
