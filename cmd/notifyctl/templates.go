package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sungwon/notify-mailer/internal/catalog"
)

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the built-in template ids",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, id := range catalog.BuiltinIDs() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
		},
	}
}
