package main

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sungwon/notify-mailer/internal/archive"
	"github.com/sungwon/notify-mailer/internal/config"
)

func newArchiveCmd() *cobra.Command {
	var htmlOnly bool

	cmd := &cobra.Command{
		Use:   "archive KEY",
		Short: "Print an archived notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}
			if cfg.Archive.Type == "" {
				return fmt.Errorf("archive.type is not set")
			}
			a, err := archive.New(cmd.Context(), archive.Config{
				Type:       cfg.Archive.Type,
				Path:       cfg.Archive.Path,
				S3Bucket:   cfg.Archive.S3Bucket,
				S3Prefix:   cfg.Archive.S3Prefix,
				S3Endpoint: cfg.Archive.S3Endpoint,
				S3Region:   cfg.Archive.S3Region,
			}, zerolog.Nop())
			if err != nil {
				return err
			}

			rec, err := a.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if htmlOnly {
				fmt.Fprintln(cmd.OutOrStdout(), rec.HTML)
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
	cmd.Flags().BoolVar(&htmlOnly, "html", false, "print only the rendered HTML")
	return cmd
}
