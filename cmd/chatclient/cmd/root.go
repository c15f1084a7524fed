package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"groupchat/internal/config"
	"groupchat/internal/database"
	"groupchat/internal/storage"
	"groupchat/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	cfg *config.Config

	serverURL string
	dataDir   string
	storeKind string
	userName  string
)

var rootCmd = &cobra.Command{
	Use:   "chatclient",
	Short: "Terminal client for the group chat server",
	Long: `chatclient joins the group chat from a terminal.

The transcript is kept locally (or in Postgres with --store postgres) so it
survives restarts, and clients sharing a data directory stay in sync.

Available commands:
  join        Connect and chat
  history     Print the stored transcript
  favorites   List or toggle favorited items
  keys        List the keys held by the store
  version     Print the version`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the chat itself
		logger.InitWriter(os.Stderr, cfg.Log.Format, cfg.Log.Level)
		return nil
	},
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&serverURL, "server", cfg.Client.ServerURL, "chat server WebSocket URL")
	flags.StringVar(&dataDir, "data-dir", cfg.Client.DataDir, "directory holding the local transcript")
	flags.StringVar(&storeKind, "store", cfg.Client.Store, "transcript store: file or postgres")
	flags.StringVarP(&userName, "user", "u", cfg.Client.User, "display name when no session token is set")
}

// openStore returns the configured transcript store. Callers Close it.
func openStore(ctx context.Context) (database.KVRepository, error) {
	switch storeKind {
	case "file":
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return storage.NewOSFileStore(dataDir), nil

	case "postgres":
		if cfg.Client.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
		store, err := database.NewPostgresStore(ctx, cfg.Client.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store %q (want file or postgres)", storeKind)
	}
}
