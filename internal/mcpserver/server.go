// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Wordhoard tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/wordhoard/internal/apperr"
	"github.com/starford/wordhoard/internal/wordservice"
)

// WordsResourceURI lists every stored word.
const WordsResourceURI = "wordhoard://words"

const (
	defaultSample = 10
	maxSample     = 100
)

// failureText is the only detail a client sees when storage fails.
const failureText = "dictionary lookup failed"

// Server wraps the MCP server with Wordhoard tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *wordservice.Service
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger tool failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a new MCP server with all Wordhoard tools registered.
func New(svc *wordservice.Service, version string, opts ...Option) *Server {
	s := &Server{svc: svc, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(
		"Wordhoard",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("define_word",
		mcp.WithDescription("Return the definitions of an English word. "+
			"Unknown words are fetched from the dictionary and stored for later lookups."),
		mcp.WithString("word", mcp.Required(), mcp.Description("Word to define")),
	), s.defineWord)

	s.mcp.AddTool(mcp.NewTool("lookup_word",
		mcp.WithDescription("Return stored definitions of a word without contacting the dictionary."),
		mcp.WithString("word", mcp.Required(), mcp.Description("Word to look up")),
	), s.lookupWord)

	s.mcp.AddTool(mcp.NewTool("list_words",
		mcp.WithDescription("List every stored word, one per line."),
	), s.listWords)

	s.mcp.AddTool(mcp.NewTool("random_words",
		mcp.WithDescription("Pick stored words at random, one per line."),
		mcp.WithNumber("n", mcp.Description("How many words to return (1-100, default 10)")),
	), s.randomWords)

	s.mcp.AddResource(
		mcp.NewResource(WordsResourceURI, "Stored words",
			mcp.WithResourceDescription("Every word with stored definitions, one per line."),
			mcp.WithMIMEType("text/plain"),
		),
		s.readWordsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) defineWord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	word, err := req.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries, err := s.svc.FetchAndPersist(ctx, word)
	if err != nil {
		var nde *apperr.NoDefinitionsError
		switch {
		case errors.As(err, &nde):
			msg := nde.Error()
			if nde.Resolution != "" {
				msg += "\n" + nde.Resolution
			}
			return mcp.NewToolResultError(msg), nil
		case errors.Is(err, apperr.ErrInvalidWord):
			return mcp.NewToolResultError(err.Error()), nil
		default:
			return s.failed("define_word", err), nil
		}
	}
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) lookupWord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	word, err := req.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries, found, err := s.svc.GetDefinitions(ctx, word)
	if errors.Is(err, apperr.ErrInvalidWord) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		return s.failed("lookup_word", err), nil
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("There are no records found with the word: '%s'", word)), nil
	}
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listWords(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	words, err := s.svc.ListKnownWords(ctx)
	if err != nil {
		return s.failed("list_words", err), nil
	}
	if len(words) == 0 {
		return mcp.NewToolResultText("no words stored yet"), nil
	}
	return mcp.NewToolResultText(strings.Join(words, "\n")), nil
}

func (s *Server) randomWords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := req.GetInt("n", defaultSample)
	if n < 1 {
		return mcp.NewToolResultError("n must be a positive integer"), nil
	}
	words, err := s.svc.SampleKnownWords(ctx, min(n, maxSample))
	if err != nil {
		return s.failed("random_words", err), nil
	}
	if len(words) == 0 {
		return mcp.NewToolResultText("no words stored yet"), nil
	}
	return mcp.NewToolResultText(strings.Join(words, "\n")), nil
}

func (s *Server) readWordsResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	words, err := s.svc.ListKnownWords(ctx)
	if err != nil {
		s.logger.Error("mcp resource failed", slog.String("uri", WordsResourceURI), slog.String("error", err.Error()))
		return nil, errors.New(failureText)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      WordsResourceURI,
			MIMEType: "text/plain",
			Text:     strings.Join(words, "\n"),
		},
	}, nil
}

func (s *Server) failed(tool string, err error) *mcp.CallToolResult {
	s.logger.Error("mcp tool failed", slog.String("tool", tool), slog.String("error", err.Error()))
	return mcp.NewToolResultError(failureText)
}
