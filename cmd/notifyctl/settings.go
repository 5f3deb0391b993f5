package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sungwon/notify-mailer/internal/settings"
)

var settingKeys = []string{
	settings.KeyTransport,
	settings.KeyBranding,
	settings.KeyTemplates,
	settings.KeyLegacy,
}

func knownKey(key string) error {
	for _, k := range settingKeys {
		if k == key {
			return nil
		}
	}
	return fmt.Errorf("unknown settings key %q (want one of %v)", key, settingKeys)
}

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and edit the email settings rows",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get KEY",
		Short: "Print every stored row for KEY, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := knownKey(args[0]); err != nil {
				return err
			}
			db, q, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := q.ListSettings(cmd.Context(), settings.CategoryEmail, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range rows {
				fmt.Fprintf(out, "%s\t%s\t%s\n", r.ID, r.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"), r.Value)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "put KEY FILE",
		Short:   "Append a row for KEY from a JSON file (- reads stdin)",
		Example: `  echo '{"host":"smtp.example.com","enabled":true}' | notifyctl settings put smtp_settings -`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := knownKey(args[0]); err != nil {
				return err
			}
			raw, err := readInput(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			if !json.Valid(raw) {
				return fmt.Errorf("%s does not contain valid JSON", args[1])
			}

			db, q, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			row, err := q.InsertSetting(cmd.Context(), settings.CategoryEmail, args[0], raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s/%s as %s\n", settings.CategoryEmail, args[0], row.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset KEY",
		Short: "Delete every row for KEY so built-in defaults apply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := knownKey(args[0]); err != nil {
				return err
			}
			db, q, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := q.DeleteSettings(cmd.Context(), settings.CategoryEmail, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d row(s)\n", n)
			return nil
		},
	})

	return cmd
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}
