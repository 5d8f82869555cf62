package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/aretw0/corebot/internal/presentation/graph"
	"github.com/aretw0/corebot/internal/presentation/tui"
	"github.com/aretw0/corebot/pkg/domain"
	"github.com/aretw0/corebot/pkg/sanitize"
)

// Identities used by the local chat channel.
const (
	ChatUserID = "user"
	ChatBotID  = "corebot"
)

// ChatBot is what the REPL needs from the bot.
type ChatBot interface {
	Handle(ctx context.Context, act domain.Activity) (*domain.Outcome, error)
	Stack(ctx context.Context, conversationID string) (*domain.Stack, error)
	Reset(ctx context.Context, conversationID string) error
}

// ChatOptions configures Chat.
type ChatOptions struct {
	In  io.Reader
	Out io.Writer
	// ConversationID defaults to a random id.
	ConversationID string
	Locale         string
	// Join sends a conversationUpdate for the user before the first line.
	Join bool
	// Render formats bot text; nil prints it raw. See TerminalRenderer.
	Render func(string) (string, error)
	// Quiet suppresses the input prompt.
	Quiet bool
}

const chatHelp = `Commands:
  /init           send the client "init" action
  /locale <tag>   switch the locale of the next turns
  /stack          show the dialog stack
  /graph          print the dialog stack as a Mermaid flowchart
  /reset          forget the conversation
  /quit           leave`

// TerminalRenderer returns a markdown renderer when out is a terminal, nil otherwise.
func TerminalRenderer(out io.Writer) func(string) (string, error) {
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return tui.NewRenderer()
	}
	return nil
}

// Chat runs a line-oriented conversation with bot until /quit, EOF or ctx is done.
func Chat(ctx context.Context, bot ChatBot, opts ChatOptions) error {
	if opts.ConversationID == "" {
		opts.ConversationID = uuid.NewString()
	}
	s := &chatSession{bot: bot, opts: opts, locale: opts.Locale}

	if opts.Join {
		if err := s.send(ctx, domain.Activity{
			Type:         domain.ActivityConversationUpdate,
			MembersAdded: []domain.ChannelAccount{{ID: ChatUserID}},
		}); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(opts.In)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if !opts.Quiet {
			fmt.Fprint(opts.Out, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		quit, err := s.handleLine(ctx, line)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

type chatSession struct {
	bot    ChatBot
	opts   ChatOptions
	locale string
}

// handleLine runs one command or message. Turn errors are printed; only
// context cancellation stops the loop.
func (s *chatSession) handleLine(ctx context.Context, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(s.opts.Out, chatHelp)
		return false, nil
	case "/init":
		return false, s.send(ctx, domain.Activity{
			Type:  domain.ActivityMessage,
			Value: map[string]any{"Action": domain.ClientActionInit},
		})
	case "/locale":
		s.locale = strings.TrimSpace(arg)
		fmt.Fprintf(s.opts.Out, "locale: %s\n", s.displayLocale())
		return false, nil
	case "/stack":
		stack, err := s.bot.Stack(ctx, s.opts.ConversationID)
		if err != nil {
			return false, s.report(ctx, err)
		}
		if stack.Empty() {
			fmt.Fprintln(s.opts.Out, "stack: (empty)")
		} else {
			fmt.Fprintf(s.opts.Out, "stack: %s\n", strings.Join(stack.DialogIDs(), " > "))
		}
		return false, nil
	case "/graph":
		stack, err := s.bot.Stack(ctx, s.opts.ConversationID)
		if err != nil {
			return false, s.report(ctx, err)
		}
		fmt.Fprint(s.opts.Out, graph.StackMermaid(stack))
		return false, nil
	case "/reset":
		if err := s.bot.Reset(ctx, s.opts.ConversationID); err != nil {
			return false, s.report(ctx, err)
		}
		fmt.Fprintln(s.opts.Out, "conversation reset")
		return false, nil
	}

	text, err := sanitize.Input(line)
	if err != nil {
		return false, s.report(ctx, err)
	}
	return false, s.send(ctx, domain.Activity{Type: domain.ActivityMessage, Text: text})
}

func (s *chatSession) send(ctx context.Context, act domain.Activity) error {
	act.ID = uuid.NewString()
	act.ChannelID = "cli"
	act.Locale = s.locale
	act.Conversation = domain.ConversationAccount{ID: s.opts.ConversationID}
	act.From = domain.ChannelAccount{ID: ChatUserID}
	act.Recipient = domain.ChannelAccount{ID: ChatBotID}

	out, err := s.bot.Handle(ctx, act)
	if err != nil {
		return s.report(ctx, err)
	}
	for _, msg := range out.All() {
		s.print(msg)
	}
	return nil
}

func (s *chatSession) print(msg domain.Message) {
	if msg.Directive != nil {
		fmt.Fprintf(s.opts.Out, "[%s %s]\n", msg.Directive.Action, msg.Directive.Value)
	}
	if msg.Text == "" {
		return
	}
	text := msg.Text
	if s.opts.Render != nil {
		if rendered, err := s.opts.Render(text); err == nil {
			text = rendered
		}
	}
	fmt.Fprintln(s.opts.Out, text)
}

func (s *chatSession) report(ctx context.Context, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return ctx.Err()
	}
	fmt.Fprintf(s.opts.Out, "error: %v\n", err)
	return nil
}

func (s *chatSession) displayLocale() string {
	if s.locale == "" {
		return "(default)"
	}
	return s.locale
}
