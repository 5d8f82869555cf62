// Package mcp exposes the bot as a Model Context Protocol server, so an
// agent can hold conversations with it through tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/corebot"
	"github.com/aretw0/corebot/internal/logging"
	"github.com/aretw0/corebot/pkg/domain"
	"github.com/aretw0/corebot/pkg/sanitize"
)

// DialogsURI is the resource listing the registered dialogs.
const DialogsURI = "corebot://dialogs"

// TurnResponse is the structured result of send_message.
type TurnResponse struct {
	ConversationID string           `json:"conversation_id" jsonschema_description:"The conversation the turn belongs to"`
	Status         domain.TurnStatus `json:"status" jsonschema_description:"awaiting_input when the bot asked a question"`
	Messages       []domain.Message  `json:"messages" jsonschema_description:"Every message of the turn, prompt last"`
}

// StackResponse is the structured result of get_stack.
type StackResponse struct {
	ConversationID string        `json:"conversation_id"`
	Stack          *domain.Stack `json:"stack" jsonschema_description:"Dialog frames, bottom first"`
}

// ResetResponse is the structured result of reset_conversation.
type ResetResponse struct {
	ConversationID string `json:"conversation_id"`
	Reset          bool   `json:"reset"`
}

// Bot is the part of corebot.Bot the server needs.
type Bot interface {
	Handle(ctx context.Context, act domain.Activity) (*domain.Outcome, error)
	Stack(ctx context.Context, conversationID string) (*domain.Stack, error)
	Reset(ctx context.Context, conversationID string) error
	Dialogs() []string
}

// Server wraps the bot and exposes it as an MCP Server.
type Server struct {
	bot       Bot
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(bot Bot, opts ...Option) *Server {
	s := &Server{
		bot:       bot,
		mcpServer: server.NewMCPServer("corebot-mcp", corebot.Version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send one user message to a conversation and get the bot's replies."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation to continue or start")),
		mcp.WithString("text", mcp.Description("What the user says")),
		mcp.WithString("locale", mcp.Description("BCP 47 locale of the turn, e.g. fr-FR (optional)")),
		mcp.WithString("value", mcp.Description(`Structured client payload as JSON, e.g. {"Action":"init"} (optional)`)),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSendMessage))

	stackTool := mcp.NewTool("get_stack",
		mcp.WithDescription("Inspect the persisted dialog stack of a conversation."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation to inspect")),
		mcp.WithOutputSchema[StackResponse](),
	)
	s.mcpServer.AddTool(stackTool, mcp.NewStructuredToolHandler(s.handleGetStack))

	resetTool := mcp.NewTool("reset_conversation",
		mcp.WithDescription("Forget a conversation; its next message starts from the greeting."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation to reset")),
		mcp.WithOutputSchema[ResetResponse](),
	)
	s.mcpServer.AddTool(resetTool, mcp.NewStructuredToolHandler(s.handleReset))

	s.mcpServer.AddTool(mcp.NewTool("list_dialogs",
		mcp.WithDescription("List the dialogs the bot can run."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.bot.Dialogs())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleSendMessage(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (TurnResponse, error) {
	id, _ := args["conversation_id"].(string)
	text, _ := args["text"].(string)
	locale, _ := args["locale"].(string)

	clean, err := sanitize.Input(text)
	if err != nil {
		s.logger.Warn("MCP send_message: input rejected", "err", err, "size", len(text))
		return TurnResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	act := domain.Activity{
		Type:         domain.ActivityMessage,
		ChannelID:    "mcp",
		Text:         clean,
		Locale:       locale,
		Conversation: domain.ConversationAccount{ID: id},
		From:         domain.ChannelAccount{ID: "mcp-client"},
		Recipient:    domain.ChannelAccount{ID: "corebot"},
	}
	if raw, ok := args["value"].(string); ok && raw != "" {
		act.Value = json.RawMessage(raw)
	}

	out, err := s.bot.Handle(ctx, act)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("turn failed: %w", err)
	}
	return TurnResponse{ConversationID: id, Status: out.Status, Messages: out.All()}, nil
}

func (s *Server) handleGetStack(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (StackResponse, error) {
	id, _ := args["conversation_id"].(string)
	stack, err := s.bot.Stack(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		stack, err = domain.NewStack(), nil
	}
	if err != nil {
		return StackResponse{}, fmt.Errorf("load failed: %w", err)
	}
	return StackResponse{ConversationID: id, Stack: stack}, nil
}

func (s *Server) handleReset(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (ResetResponse, error) {
	id, _ := args["conversation_id"].(string)
	if id == "" {
		return ResetResponse{}, errors.New("conversation_id is required")
	}
	if err := s.bot.Reset(ctx, id); err != nil {
		return ResetResponse{}, fmt.Errorf("reset failed: %w", err)
	}
	return ResetResponse{ConversationID: id, Reset: true}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(DialogsURI, "Registered dialogs",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.bot.Dialogs())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      DialogsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
