package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sungwon/notify-mailer/internal/catalog"
	"github.com/sungwon/notify-mailer/internal/notify"
	"github.com/sungwon/notify-mailer/internal/settings"
)

func newRenderCmd() *cobra.Command {
	var (
		templateID string
		subject    string
		text       string
		vars       map[string]string
		offline    bool
		format     string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a notification without sending it",
		Example: `  notifyctl render --template booking_confirmation --var property_title="Harbour Loft" --offline
  notifyctl render --subject "Hello" --text "Plain body" --format text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var store settings.Store
			if !offline {
				db, q, err := openStore(ctx)
				if err != nil {
					return fmt.Errorf("open settings store (use --offline for defaults): %w", err)
				}
				defer db.Close()
				store = q
			}

			svc := notify.NewService(notify.Deps{
				Settings: settings.NewResolver(store),
				Catalog:  catalog.NewResolver(store),
			})
			email, source := svc.Preview(ctx, notify.Request{
				TemplateID: templateID,
				Subject:    subject,
				Text:       text,
				Variables:  vars,
			})

			out := cmd.OutOrStdout()
			switch format {
			case "html":
				fmt.Fprintln(out, email.HTML)
			case "text":
				fmt.Fprintf(out, "Subject: %s\n\n%s\n", email.Subject, email.Text)
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]string{
					"source":  string(source),
					"subject": email.Subject,
					"html":    email.HTML,
					"text":    email.Text,
				})
			default:
				return fmt.Errorf("unknown format %q (html, text, json)", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&templateID, "template", "", "template id")
	cmd.Flags().StringVar(&subject, "subject", "", "subject for ad-hoc messages")
	cmd.Flags().StringVar(&text, "text", "", "body for ad-hoc messages")
	cmd.Flags().StringToStringVar(&vars, "var", nil, "template variable as key=value (repeatable)")
	cmd.Flags().BoolVar(&offline, "offline", false, "use built-in settings instead of the database")
	cmd.Flags().StringVarP(&format, "format", "f", "html", "output format (html, text, json)")
	return cmd
}
