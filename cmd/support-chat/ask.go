package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/laptop-support/internal/model/chat"
	chatservice "github.com/zhouzirui/laptop-support/internal/service/chat"
)

var errRequestFailed = errors.New("support request failed")

// askCmd submits one question and prints the exchange.
var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Ask a single question and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := newSession()
		if err != nil {
			return err
		}
		return runAsk(cmd, session, strings.Join(args, " "))
	},
}

func runAsk(cmd *cobra.Command, session *chatservice.Session, query string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	session.SetPendingQuery(query)
	outcome := session.SubmitPending(ctx)

	printTranscript(cmd.OutOrStdout(), session.Snapshot().History)

	switch outcome {
	case chatservice.OutcomeIgnored:
		return errors.New("question is empty")
	case chatservice.OutcomeFailed:
		return errRequestFailed
	}
	return nil
}

func printTranscript(w io.Writer, history []chat.Message) {
	for _, msg := range history {
		who := "You"
		if msg.Kind == chat.KindBot {
			who = "Support"
		}
		fmt.Fprintf(w, "%s: %s\n  Context: %s\n", who, msg.Text, msg.Context)
	}
}

// contextsCmd lists the selectable contexts.
var contextsCmd = &cobra.Command{
	Use:   "contexts",
	Short: "List the support contexts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, opt := range chat.Options() {
			marker := " "
			if opt.Default {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-16s %s\n", marker, opt.Value, opt.Label)
		}
	},
}
