package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"flint/internal/conversation"
)

func newExportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export [path]",
		Short: "Save the finished PRD (default PRD.txt)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			written, err := s.ExportFile(path)
			if errors.Is(err, conversation.ErrNotComplete) {
				return fmt.Errorf("no PRD to export yet: finish the conversation with 'flint chat' first")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved PRD to %s\n", written)
			return nil
		},
	}
}

func newClearCmd(opts *options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the conversation and start over",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			in := newLineReader(cmd.InOrStdin())
			cleared, err := s.Clear(cmd.Context(), func() bool {
				return yes || confirm(in, cmd.OutOrStdout(), "Are you sure you want to clear the chat history?")
			})
			if err != nil {
				return err
			}
			if cleared {
				fmt.Fprintln(cmd.OutOrStdout(), "Chat history cleared.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing changed.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newHistoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the stored conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			out := newPrinter(cmd.OutOrStdout())
			for _, m := range s.Messages() {
				out.message(m)
			}
			if s.Complete() {
				out.hint("PRD complete. Run 'flint export' to save it.")
			}
			return nil
		},
	}
}
