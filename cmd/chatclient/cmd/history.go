package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"groupchat/internal/chatview"
	"groupchat/internal/models"
	"groupchat/internal/storage"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the stored transcript",
	Long: `Print the transcript from the local store without connecting.

Examples:
  chatclient history                 # whole transcript
  chatclient history --limit 20      # last 20 messages
  chatclient history --json          # raw records
  chatclient history --clear         # forget the stored transcript`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		if historyClear {
			if err := store.Delete(ctx, storage.TranscriptKey); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Transcript cleared.")
			return nil
		}

		messages := chatview.NewTranscript(ctx, store, nil, chatview.Seed()).Messages()
		if historyLimit > 0 && len(messages) > historyLimit {
			messages = messages[len(messages)-historyLimit:]
		}

		out := cmd.OutOrStdout()
		if historyJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(messages)
		}
		for _, m := range messages {
			printMessage(out, m, "")
		}
		return nil
	},
}

func printMessage(w io.Writer, m models.ChatMessage, self string) {
	marker := " "
	if m.Pending() {
		marker = "…"
	}
	who := m.User
	if self != "" && m.User == self {
		who = m.User + " (you)"
	}
	fmt.Fprintf(w, "%s [%s] %s: %s\n", marker, m.Timestamp, who, m.Text)
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "show only the last n messages")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print records as JSON")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete the stored transcript")
	rootCmd.AddCommand(historyCmd)
}
