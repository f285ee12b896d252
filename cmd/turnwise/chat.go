package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turnwise/turnwise/internal/util"
	"github.com/turnwise/turnwise/runner"
)

var (
	chatTeam           string
	chatConversationID string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat session",
	Long: `Chat starts a terminal session against the configured model. Each line
is one turn; the session keeps a single conversation id so history carries
across turns. Type 'exit' or press Ctrl-D to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		conversationID := chatConversationID
		if conversationID == "" {
			conversationID = util.NewID()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "turnwise chat (conversation %s)\n", conversationID)

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(cmd.OutOrStdout(), "> ")
			if !scanner.Scan() {
				break
			}
			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}
			if input == "exit" || input == "quit" {
				break
			}

			a.metrics.RecordTurn("cli")

			opts := []func(o *runner.RunOptions){
				runner.WithConversationID(conversationID),
			}
			if chatTeam != "" {
				opts = append(opts, runner.WithTeamOverride(chatTeam))
			}

			st, err := a.engine.Run(cmd.Context(), input, opts...)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.Answer)
		}
		return scanner.Err()
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatTeam, "team", "", "pin the team and skip classification")
	chatCmd.Flags().StringVar(&chatConversationID, "conversation", "", "resume a stored conversation by id")
}
