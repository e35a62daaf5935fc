package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iksnae/skillswap/internal"
)

var messagesCmd = &cobra.Command{
	Use:     "messages",
	Aliases: []string{"msg"},
	Short:   "List your conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listThreads(cmd)
	},
}

var messagesThreadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "List your conversations, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listThreads(cmd)
	},
}

var messagesShowCmd = &cobra.Command{
	Use:   "show <participant-id>",
	Short: "Show the conversation with a member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		participant, err := openThread(cmd, args[0])
		if err != nil {
			return err
		}
		printConversation(cmd.OutOrStdout(), participant, app.Threads.Conversation())
		return nil
	},
}

var messagesSendCmd = &cobra.Command{
	Use:   "send <participant-id> <message...>",
	Short: "Send a message and show the updated conversation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		participant, err := openThread(cmd, args[0])
		if err != nil {
			return err
		}
		app.Threads.SetCompose(strings.Join(args[1:], " "))

		err = internal.ShowProgress(cmd.Context(), "Sending", func(ctx context.Context) error {
			_, err := app.Threads.SendCompose(ctx)
			return err
		})
		if err != nil {
			return userError(err, app.Threads.SendError())
		}
		printConversation(cmd.OutOrStdout(), participant, app.Threads.Conversation())
		return nil
	},
}

func listThreads(cmd *cobra.Command) error {
	var threads []internal.MessageThread
	err := internal.ShowProgress(cmd.Context(), "Loading conversations", func(ctx context.Context) error {
		var err error
		threads, err = app.Threads.LoadThreads(ctx)
		return err
	})
	if err != nil {
		return userError(err, app.Threads.ThreadList().Error)
	}

	out := cmd.OutOrStdout()
	if len(threads) == 0 {
		fmt.Fprintln(out, "No conversations yet")
		return nil
	}
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Conversations (%d)", len(threads))))
	for _, t := range threads {
		name := t.Participant.Name
		if name == "" {
			name = t.Participant.ID
		}
		fmt.Fprintf(out, "  %s %s\n", titleStyle.Render(name), idStyle.Render("("+t.Participant.ID+")"))
		if t.LastMessage != nil {
			fmt.Fprintf(out, "      %s  %s\n",
				dateStyle.Render(t.LastActivity().Local().Format(dateLayout)),
				truncate(internal.PlainText(t.LastMessage.Content), 60))
		}
	}
	return nil
}

// openThread resolves the participant name from the thread list, then loads the conversation
func openThread(cmd *cobra.Command, id string) (internal.UserRef, error) {
	participant := internal.UserRef{ID: id}
	err := internal.ShowProgress(cmd.Context(), "Loading conversation", func(ctx context.Context) error {
		if threads, err := app.Threads.LoadThreads(ctx); err == nil {
			for _, t := range threads {
				if t.Participant.ID == id {
					participant = t.Participant
				}
			}
		}
		if participant.Name == "" {
			if u, err := app.Profile.Lookup(ctx, id); err == nil {
				participant = u.Ref()
			}
		}
		_, err := app.Threads.OpenThread(ctx, participant)
		return err
	})
	if err != nil {
		return participant, userError(err, app.Threads.ConversationState().Error)
	}
	return participant, nil
}

func printConversation(out io.Writer, participant internal.UserRef, entries []internal.ConversationEntry) {
	name := participant.Name
	if name == "" {
		name = participant.ID
	}
	fmt.Fprintln(out, headerStyle.Render("Conversation with "+name))
	if len(entries) == 0 {
		fmt.Fprintln(out, "  No messages yet")
		return
	}
	for _, e := range entries {
		ts := dateStyle.Render(e.CreatedAt.Local().Format(dateLayout))
		content := internal.PlainText(e.Content)
		if e.Incoming() {
			fmt.Fprintf(out, "%s %s  %s\n", incomingStyle.Render("← "+name), ts, content)
		} else {
			fmt.Fprintf(out, "%s %s  %s\n", outgoingStyle.Render("→ you"), ts, content)
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	rootCmd.AddCommand(messagesCmd)
	messagesCmd.AddCommand(messagesThreadsCmd, messagesShowCmd, messagesSendCmd)
}
