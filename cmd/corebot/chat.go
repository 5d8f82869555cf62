package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/corebot"
	"github.com/aretw0/corebot/internal/cli"
	"github.com/aretw0/corebot/internal/presentation/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot from the terminal",
	Long: `Starts an interactive conversation on stdin/stdout. Type /help for the
local commands (/init, /locale, /stack, /graph, /reset, /quit).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		conversation, _ := cmd.Flags().GetString("conversation")
		loc, _ := cmd.Flags().GetString("locale")
		join, _ := cmd.Flags().GetBool("join")
		quiet, _ := cmd.Flags().GetBool("quiet")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		app, err := cli.NewApp(ctx, cfg, logger, nil, corebot.WithWelcome(join || cfg.Server.Welcome))
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		render := cli.TerminalRenderer(os.Stdout)
		if render != nil && !quiet {
			tui.PrintBanner(os.Stdout, corebot.Version)
		}

		err = cli.Chat(ctx, app.Bot, cli.ChatOptions{
			In:             os.Stdin,
			Out:            os.Stdout,
			ConversationID: conversation,
			Locale:         loc,
			Join:           join,
			Render:         render,
			Quiet:          quiet,
		})
		if sig := ctx.Signal(); sig != nil {
			fmt.Fprintf(os.Stderr, "\nstopped by %v\n", sig)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("conversation", "", "Conversation id to resume (default: a new one)")
	chatCmd.Flags().String("locale", "", "Locale sent with every message (e.g. fr-FR)")
	chatCmd.Flags().Bool("join", true, "Greet the user as if they just joined the conversation")
	chatCmd.Flags().BoolP("quiet", "q", false, "Plain output without banner or prompt")
}
