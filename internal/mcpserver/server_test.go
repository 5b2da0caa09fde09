package mcpserver

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/wordhoard/internal/gateway"
	"github.com/starford/wordhoard/internal/testutil"
	"github.com/starford/wordhoard/internal/wordcache"
	"github.com/starford/wordhoard/internal/wordservice"
)

func testServer(t *testing.T) (*Server, *testutil.Provider) {
	t.Helper()
	provider := testutil.ProviderServer(t)
	svc := wordservice.New(testutil.TestStore(t), gateway.New(provider.BaseURL()), wordcache.New(10))
	return New(svc, "test", WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))), provider
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process "call tool" helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "define_word":
		result, err = srv.defineWord(ctx, req)
	case "lookup_word":
		result, err = srv.lookupWord(ctx, req)
	case "list_words":
		result, err = srv.listWords(ctx, req)
	case "random_words":
		result, err = srv.randomWords(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestDefineThenLookupWord(t *testing.T) {
	srv, provider := testServer(t)
	provider.Set("hello", testutil.EntryJSON("hello", "a greeting"))

	r := callTool(t, srv, "define_word", map[string]any{"word": "hello"})
	if r.IsError {
		t.Fatalf("define_word failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"definition": "a greeting"`) {
		t.Errorf("define result = %q", resultText(r))
	}

	r = callTool(t, srv, "lookup_word", map[string]any{"word": "Hello"})
	if r.IsError {
		t.Fatalf("lookup_word failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"part_of_speech": "noun"`) {
		t.Errorf("lookup result = %q", resultText(r))
	}
}

func TestDefineWordNoDefinitions(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "define_word", map[string]any{"word": "zznotaword"})
	if !r.IsError {
		t.Fatal("expected error result")
	}
	if !strings.HasPrefix(resultText(r), `No Definitions Found: "zznotaword"`) {
		t.Errorf("text = %q", resultText(r))
	}
}

func TestDefineWordMissingArgument(t *testing.T) {
	srv, _ := testServer(t)
	if r := callTool(t, srv, "define_word", map[string]any{}); !r.IsError {
		t.Error("expected error for missing word")
	}
}

func TestLookupWordMissing(t *testing.T) {
	srv, provider := testServer(t)
	r := callTool(t, srv, "lookup_word", map[string]any{"word": "nope"})
	if !r.IsError {
		t.Error("expected error for unknown word")
	}
	if provider.Hits("nope") != 0 {
		t.Error("lookup_word must not contact the dictionary")
	}
}

func TestListAndRandomWords(t *testing.T) {
	srv, provider := testServer(t)

	if text := resultText(callTool(t, srv, "list_words", map[string]any{})); text != "no words stored yet" {
		t.Errorf("empty list = %q", text)
	}

	for _, w := range []string{"apple", "banana"} {
		provider.Set(w, testutil.EntryJSON(w, "a fruit"))
		if r := callTool(t, srv, "define_word", map[string]any{"word": w}); r.IsError {
			t.Fatalf("define %s: %s", w, resultText(r))
		}
	}

	if text := resultText(callTool(t, srv, "list_words", map[string]any{})); text != "apple\nbanana" {
		t.Errorf("list = %q", text)
	}

	r := callTool(t, srv, "random_words", map[string]any{"n": float64(1)})
	if r.IsError || strings.Count(resultText(r), "\n") != 0 {
		t.Errorf("random n=1 = %q", resultText(r))
	}

	if r := callTool(t, srv, "random_words", map[string]any{"n": float64(0)}); !r.IsError {
		t.Error("expected error for n=0")
	}
}

func TestWordsResource(t *testing.T) {
	srv, provider := testServer(t)
	provider.Set("apple", testutil.EntryJSON("apple", "a fruit"))
	callTool(t, srv, "define_word", map[string]any{"word": "apple"})

	contents, err := srv.readWordsResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.Text != "apple" || tc.URI != WordsResourceURI {
		t.Errorf("resource = %+v", contents[0])
	}
}

func TestStorageFailuresAreNotLeaked(t *testing.T) {
	st := testutil.TestStore(t)
	provider := testutil.ProviderServer(t)
	provider.Set("apple", testutil.EntryJSON("apple", "a fruit"))
	var logs bytes.Buffer
	svc := wordservice.New(st, gateway.New(provider.BaseURL()), wordcache.New(10))
	srv := New(svc, "test", WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		tool string
		args map[string]any
	}{
		{"define_word", map[string]any{"word": "apple"}},
		{"lookup_word", map[string]any{"word": "apple"}},
		{"list_words", map[string]any{}},
		{"random_words", map[string]any{"n": float64(2)}},
	} {
		r := callTool(t, srv, tc.tool, tc.args)
		if !r.IsError || resultText(r) != failureText {
			t.Errorf("%s = %q, want %q", tc.tool, resultText(r), failureText)
		}
	}

	_, err := srv.readWordsResource(context.Background(), mcp.ReadResourceRequest{})
	if err == nil || err.Error() != failureText {
		t.Errorf("resource error = %v", err)
	}
	if !strings.Contains(logs.String(), "sql: database is closed") {
		t.Errorf("storage error was not logged: %s", logs.String())
	}
}
