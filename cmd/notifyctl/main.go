package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sungwon/notify-mailer/internal/config"
	"github.com/sungwon/notify-mailer/internal/storage"
)

var configDir string

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "notifyctl",
		Short:         "Preview, send and configure transactional notifications",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configDir, "config", "config", "directory containing config.yaml")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newSendCmd())
	root.AddCommand(newSettingsCmd())
	root.AddCommand(newTemplatesCmd())
	root.AddCommand(newArchiveCmd())
	return root
}

// openStore connects to the settings database named in the config.
func openStore(ctx context.Context) (*storage.DB, *storage.Queries, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.URL == "" {
		return nil, nil, fmt.Errorf("database.url is not set")
	}
	db, err := storage.NewDB(ctx, cfg.Database.URL, 1, 2, cfg.Database.ConnectTimeout)
	if err != nil {
		return nil, nil, err
	}
	return db, storage.New(db.Pool), nil
}
