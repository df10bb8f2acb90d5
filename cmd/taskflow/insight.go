package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func insightCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "insight",
		Short: "Print a motivating sentence about your tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, closeFn, err := openBoard(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			_, err = fmt.Fprintln(cmd.OutOrStdout(), b.Insight(cmd.Context()))
			return err
		},
	}
}
