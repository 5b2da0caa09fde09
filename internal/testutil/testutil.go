// Package testutil provides shared test helpers for databases and a fake
// dictionary provider.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/starford/wordhoard/internal/store"
)

// TestStore creates a temporary SQLite-backed store that is automatically cleaned up.
func TestStore(t *testing.T) *store.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "wordhoard-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() {
		os.Remove(dbFile.Name())
		os.Remove(dbFile.Name() + "-wal")
		os.Remove(dbFile.Name() + "-shm")
	})

	s, err := store.Open(context.Background(), store.DriverSQLite, dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ProviderPath is the path prefix served by the fake provider.
const ProviderPath = "/api/v2/entries/en/"

// NotFoundJSON is the provider's answer for unknown words.
const NotFoundJSON = `{"title":"No Definitions Found","message":"Sorry pal, we couldn't find definitions for the word you were looking for.","resolution":"You can try the search again at later time or head to the web instead."}`

// EntryJSON returns a minimal provider entry list for word.
func EntryJSON(word, definition string) string {
	return fmt.Sprintf(`[{"word":%q,"phonetic":"/%s/","phonetics":[{"text":"/%s/","audio":""}],`+
		`"meanings":[{"partOfSpeech":"noun","definitions":[{"definition":%q,"example":"an example","synonyms":[],"antonyms":[]}],"synonyms":["alias"],"antonyms":[]}],`+
		`"sourceUrls":["https://en.wiktionary.org/wiki/%s"]}]`, word, word, word, definition, word)
}

// Provider is a fake dictionary provider backed by httptest.
type Provider struct {
	*httptest.Server

	mu         sync.Mutex
	bodies     map[string]string
	hits       map[string]int
	userAgents []string
}

// ProviderServer starts a fake provider that answers NotFoundJSON with 404
// for any word not registered with Set.
func ProviderServer(t *testing.T) *Provider {
	t.Helper()
	p := &Provider{bodies: map[string]string{}, hits: map[string]int{}}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Close)
	return p
}

// BaseURL is the provider base URL to hand to the gateway.
func (p *Provider) BaseURL() string {
	return p.URL + ProviderPath
}

// Set registers the raw body returned for word.
func (p *Provider) Set(word, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bodies[word] = body
}

// Hits returns how many requests were made for word.
func (p *Provider) Hits(word string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits[word]
}

// UserAgents returns the User-Agent headers seen so far.
func (p *Provider) UserAgents() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.userAgents...)
}

func (p *Provider) serve(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.EscapedPath(), ProviderPath)
	word, err := url.PathUnescape(raw)
	if err != nil {
		http.Error(w, "bad path", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.hits[word]++
	p.userAgents = append(p.userAgents, r.UserAgent())
	body, ok := p.bodies[word]
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, NotFoundJSON)
		return
	}
	fmt.Fprint(w, body)
}
