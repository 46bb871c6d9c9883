package main

import (
	"fmt"
	"strings"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/assistant"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/kernel"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newAskCommand(load configLoader) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question from the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			container, err := NewContainer(ctx, cfg)
			if err != nil {
				return err
			}
			defer container.Cleanup()

			ctx = kernel.WithRequestID(ctx, kernel.NewRequestID(uuid.NewString()))
			answer, err := container.Assistant.Ask(ctx, assistant.Query{
				Question:  strings.Join(args, " "),
				SessionID: kernel.NewSessionID(sessionID),
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), answer.Text)
			return err
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", string(kernel.DefaultSessionID), "conversation to continue")
	return cmd
}
