package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"flint/internal/conversation"
)

func newChatCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start or resume the PRD conversation",
		Long: `Start or resume the PRD conversation.

Commands inside the chat:
  /export [path]   save the finished PRD (default PRD.txt)
  /clear           start over
  /quit            leave; the conversation is kept`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			s, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			return runChat(ctx, s.Conversation, newLineReader(cmd.InOrStdin()), newPrinter(cmd.OutOrStdout()))
		},
	}
}

func runChat(ctx context.Context, conv *conversation.Conversation, in lineReader, out *printer) error {
	for _, m := range conv.Messages() {
		out.message(m)
	}
	if conv.Complete() {
		out.hint("Your PRD is ready. Type /export to save it as %s.", conversation.ExportFileName)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out.w, out.style(userLabel, "you> "))
		line, ok := in.next()
		if !ok {
			fmt.Fprintln(out.w)
			return nil
		}
		command := strings.TrimSpace(line)

		switch {
		case command == "/quit" || command == "/exit":
			return nil

		case command == "/clear":
			cleared, err := conv.Clear(ctx, func() bool {
				return confirm(in, out.w, "Are you sure you want to clear the chat history?")
			})
			if err != nil {
				return err
			}
			if cleared {
				for _, m := range conv.Messages() {
					out.message(m)
				}
			}

		case command == "/export" || strings.HasPrefix(command, "/export "):
			path := strings.TrimSpace(strings.TrimPrefix(command, "/export"))
			written, err := conv.ExportFile(path)
			if errors.Is(err, conversation.ErrNotComplete) {
				out.hint("Nothing to export yet. Keep answering until flint writes the PRD.")
				continue
			}
			if err != nil {
				return err
			}
			out.hint("Saved PRD to %s", written)

		default:
			wasComplete := conv.Complete()
			err := conv.Send(ctx, line)
			if errors.Is(err, conversation.ErrEmptyInput) {
				continue
			}
			if err != nil {
				return err
			}
			msgs := conv.Messages()
			out.message(msgs[len(msgs)-1])
			if conv.Complete() && !wasComplete {
				out.hint("Your PRD is ready. Type /export to save it as %s.", conversation.ExportFileName)
			}
		}
	}
}
