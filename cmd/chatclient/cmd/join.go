package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"groupchat/internal/auth"
	"groupchat/internal/chatview"
	"groupchat/internal/models"
	"groupchat/internal/storage"
	"groupchat/pkg/logger"

	"github.com/spf13/cobra"
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Connect to the chat and start talking",
	Long: `Join the group chat. Every line you type is sent as a message.

Commands inside the chat:
  /typing <draft>   announce that you are typing
  /quit             leave

Your display name comes from SESSION_TOKEN (username claim) when JWT_SECRET is
set, then from --user / CHAT_USER, and is "Guest" otherwise.`,
	RunE: runJoin,
}

func init() {
	rootCmd.AddCommand(joinCmd)
}

func runJoin(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	identity := auth.NewIdentityService(cfg.Session.Secret)
	self, err := identity.DisplayName(cfg.Client.Token, userName)
	if err != nil {
		logger.Warn("Session token ignored", "error", err)
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	notifier := chatview.NewWatermillNotifier()
	defer notifier.Close()

	var view *chatview.View
	transcript := chatview.NewTranscript(ctx, store, notifier, chatview.Seed(),
		chatview.WithOnChange(func([]models.ChatMessage) {
			if view != nil {
				view.Refresh()
			}
		}),
	)
	view = chatview.NewView(self, transcript, chatview.NewTypingSet(chatview.DefaultTypingTimeout, nil))

	if err := transcript.Listen(ctx); err != nil {
		return err
	}
	if files, ok := store.(*storage.FileStore); ok {
		// Other processes writing the same directory show up as notifier events.
		onChange := func(string) { notifier.Notify(ctx, "fs") }
		if err := files.Watch(ctx, onChange, storage.TranscriptKey); err != nil {
			logger.Warn("Not watching data dir", "dir", files.Dir(), "error", err)
		}
	}

	session, err := chatview.Dial(ctx, serverURL, view)
	if err != nil {
		return err
	}
	defer session.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Joined as %s. Type /quit to leave.\n", self)

	go func() {
		if err := session.Run(ctx); err != nil {
			logger.Error("Connection lost", "error", err)
		}
		view.Refresh()
	}()
	go render(ctx, out, view)

	readInput(ctx, cmd.InOrStdin(), cmd.ErrOrStderr(), session)
	return nil
}

// render prints whatever changed since the last redraw.
func render(ctx context.Context, out io.Writer, view *chatview.View) {
	printed := 0
	status, indicator := "", ""

	for {
		select {
		case <-ctx.Done():
			return
		case <-view.Updates():
		}

		if s := view.Status(); s != status {
			status = s
			fmt.Fprintf(out, "-- %s --\n", status)
		}

		messages := view.Transcript().Messages()
		if len(messages) < printed {
			printed = 0
		}
		for _, m := range messages[printed:] {
			printMessage(out, m, view.Self())
		}
		printed = len(messages)

		if line := view.Indicator(); line != indicator {
			indicator = line
			if indicator != "" {
				fmt.Fprintf(out, "   %s\n", indicator)
			}
		}
	}
}

func readInput(ctx context.Context, in io.Reader, errOut io.Writer, session *chatview.Session) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()
		switch {
		case line == "/quit":
			return
		case strings.HasPrefix(line, "/typing"):
			err := session.InputChanged(strings.TrimSpace(strings.TrimPrefix(line, "/typing")))
			if err != nil {
				fmt.Fprintf(errOut, "Error: %v\n", err)
			}
		default:
			if err := session.Send(ctx, line); err != nil {
				fmt.Fprintf(errOut, "Error: %v\n", err)
			}
		}
	}
}
