package cmd

import (
	"encoding/json"
	"fmt"

	"groupchat/internal/storage"

	"github.com/spf13/cobra"
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List favorited items",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		favorites := storage.Favorites(ctx, store)
		if len(favorites) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No favorites yet.")
			return nil
		}
		for _, fav := range favorites {
			fmt.Fprintln(cmd.OutOrStdout(), string(fav))
		}
		return nil
	},
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle <item>",
	Short: "Add or remove a favorite",
	Long: `Toggle a favorite. The item is any JSON value, usually an id.

Examples:
  chatclient favorites toggle 42
  chatclient favorites toggle '{"game":"neon-drift"}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		item := json.RawMessage(args[0])
		if !json.Valid(item) {
			// bare words are stored as strings
			quoted, _ := json.Marshal(args[0])
			item = quoted
		}

		on, err := storage.ToggleFavorite(ctx, store, item)
		if err != nil {
			return err
		}
		if on {
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", item)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", item)
		}
		return nil
	},
}

func init() {
	favoritesCmd.AddCommand(favoritesToggleCmd)
	rootCmd.AddCommand(favoritesCmd)
}
