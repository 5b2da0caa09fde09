package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wordhoard/internal/apperr"
	"github.com/starford/wordhoard/internal/models"
)

func testDBPath(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp("", "wordhoard-test-*.db")
	require.NoError(t, err)
	f.Close()
	t.Cleanup(func() {
		os.Remove(f.Name())
		os.Remove(f.Name() + "-wal")
		os.Remove(f.Name() + "-shm")
	})
	return f.Name()
}

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, testDBPath(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEntries() []models.WordEntry {
	return []models.WordEntry{
		{
			Word:     "hello",
			Phonetic: "həˈləʊ",
			Phonetics: []models.Phonetic{
				{Text: "həˈləʊ", Audio: "https://example.test/hello-uk.mp3", SourceURL: "https://example.test/audio"},
				{Text: "hɛˈloʊ"},
			},
			Meanings: []models.Meaning{
				{
					PartOfSpeech: "noun",
					Definitions: []models.Definition{
						{Definition: "\"Hello!\" or an equivalent greeting.", Example: "She gave a cheery hello."},
						{Definition: "A second sense."},
					},
					Synonyms: []string{"greeting", "salute", "welcome"},
					Antonyms: []string{},
				},
				{
					PartOfSpeech: "interjection",
					Definitions: []models.Definition{
						{Definition: "A greeting used when answering the telephone.", Example: "Hello? How may I help you?"},
					},
					Synonyms: []string{},
					Antonyms: []string{"bye", "goodbye"},
				},
			},
			SourceURLs: []string{"https://en.wiktionary.org/wiki/hello", "https://example.test/hello"},
		},
		{
			Word:      "hello",
			Phonetics: []models.Phonetic{},
			Meanings: []models.Meaning{
				{
					PartOfSpeech: "verb",
					Definitions:  []models.Definition{{Definition: "To greet with \"hello\"."}},
					Synonyms:     []string{},
					Antonyms:     []string{},
				},
			},
			SourceURLs: []string{},
		},
	}
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.Get(&n, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)))
	return n
}

func TestOpenCreatesSchema(t *testing.T) {
	s := testStore(t)
	for _, table := range []string{"words", "word_entries", "source_urls", "phonetics", "meanings", "definitions", "synonyms", "antonyms"} {
		assert.Equal(t, 0, countRows(t, s, table), table)
	}
	assert.Equal(t, []string{"0001_words.sql", "0002_phonetics.sql"}, s.Applied())
}

func TestOpenTwiceSkipsAppliedMigrations(t *testing.T) {
	path := testDBPath(t)
	ctx := context.Background()

	first, err := Open(ctx, DriverSQLite, path)
	require.NoError(t, err)
	require.NoError(t, first.Persist(ctx, "hello", sampleEntries()))
	require.NoError(t, first.Close())

	second, err := Open(ctx, DriverSQLite, path)
	require.NoError(t, err)
	defer second.Close()
	assert.Empty(t, second.Applied())

	_, found, err := second.Lookup(ctx, "hello")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "whatever")
	assert.Error(t, err)
}

func TestPersistLookupRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	want := sampleEntries()

	require.NoError(t, s.Persist(ctx, "hello", want))

	got, found, err := s.Lookup(ctx, "hello")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want, got)
}

func TestLookupAbsentWordIsNotAnError(t *testing.T) {
	s := testStore(t)
	got, found, err := s.Lookup(context.Background(), "zznotaword")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestPersistRejectsKnownWord(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Persist(ctx, "hello", sampleEntries()))

	err := s.Persist(ctx, "hello", sampleEntries())
	require.ErrorIs(t, err, apperr.ErrAlreadyExists)

	got, _, err := s.Lookup(ctx, "hello")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, countRows(t, s, "word_entries"))
}

func TestPersistValidatesInput(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	assert.ErrorIs(t, s.Persist(ctx, "", sampleEntries()), apperr.ErrInvalidWord)
	assert.Error(t, s.Persist(ctx, "hello", nil))
}

func TestPersistRollsBackOnFault(t *testing.T) {
	stages := []string{StageEntry, StageSourceURLs, StagePhonetics, StageMeanings, StageDefinitions, StageSynonyms, StageAntonyms, StageWords}
	for _, stage := range stages {
		t.Run(stage, func(t *testing.T) {
			s := testStore(t)
			ctx := context.Background()
			boom := errors.New("injected fault")

			// Let the first entry's meaning through so the fault lands mid-graph.
			var meanings int
			s.checkpoint = func(got string) error {
				if got == StageMeanings {
					meanings++
					if stage == StageMeanings && meanings < 2 {
						return nil
					}
				}
				if got == stage {
					return boom
				}
				return nil
			}

			err := s.Persist(ctx, "hello", sampleEntries())
			require.ErrorIs(t, err, boom)

			for _, table := range []string{"words", "word_entries", "source_urls", "phonetics", "meanings", "definitions", "synonyms", "antonyms"} {
				assert.Equal(t, 0, countRows(t, s, table), table)
			}
			_, found, err := s.Lookup(ctx, "hello")
			require.NoError(t, err)
			assert.False(t, found)

			words, err := s.Words(ctx)
			require.NoError(t, err)
			assert.NotContains(t, words, "hello")
		})
	}
}

func TestWordsListsOnlyCommittedWords(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Persist(ctx, "hello", sampleEntries()))
	require.NoError(t, s.Persist(ctx, "apple", sampleEntries()))

	s.checkpoint = func(stage string) error {
		if stage == StageDefinitions {
			return errors.New("disk full")
		}
		return nil
	}
	require.Error(t, s.Persist(ctx, "broken", sampleEntries()))
	s.checkpoint = nil

	words, err := s.Words(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "hello"}, words)
}

func TestWordsEmpty(t *testing.T) {
	s := testStore(t)
	words, err := s.Words(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, words)
	assert.Empty(t, words)
}

func TestRandomWords(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	all := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	for _, w := range all {
		require.NoError(t, s.Persist(ctx, w, sampleEntries()))
	}

	got, err := s.RandomWords(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	seen := map[string]bool{}
	for _, w := range got {
		assert.Contains(t, all, w)
		assert.False(t, seen[w], "duplicate %q", w)
		seen[w] = true
	}

	got, err = s.RandomWords(ctx, 50)
	require.NoError(t, err)
	assert.ElementsMatch(t, all, got)

	got, err = s.RandomWords(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestConcurrentPersistDistinctWords(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Persist(ctx, fmt.Sprintf("word%d", i), sampleEntries())
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	words, err := s.Words(ctx)
	require.NoError(t, err)
	assert.Len(t, words, 8)
	assert.Equal(t, 16, countRows(t, s, "word_entries"))
}

func TestLookupDoesNotWaitOnPendingWrite(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Persist(ctx, "apple", sampleEntries()))

	held := make(chan struct{})
	release := make(chan struct{})
	s.checkpoint = func(stage string) error {
		if stage == StageDefinitions {
			select {
			case held <- struct{}{}:
			default:
			}
			<-release
		}
		return nil
	}

	persisted := make(chan error, 1)
	go func() { persisted <- s.Persist(ctx, "hello", sampleEntries()) }()
	<-held

	type lookup struct {
		found bool
		err   error
	}
	done := make(chan lookup, 1)
	go func() {
		_, found, err := s.Lookup(ctx, "apple")
		if err == nil {
			_, err = s.Words(ctx)
		}
		done <- lookup{found: found, err: err}
	}()

	select {
	case got := <-done:
		require.NoError(t, got.err)
		assert.True(t, got.found)
	case <-time.After(2 * time.Second):
		t.Fatal("read blocked behind an open write transaction")
	}

	close(release)
	require.NoError(t, <-persisted)
	_, found, err := s.Lookup(ctx, "hello")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestIsUniqueConstraintErr(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `INSERT INTO words (word) VALUES ('dup')`)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, `INSERT INTO words (word) VALUES ('dup')`)
	require.Error(t, err)
	assert.True(t, isUniqueConstraintErr(fmt.Errorf("wrapped: %w", err)))

	_, err = s.db.ExecContext(ctx, `SELECT * FROM no_such_table`)
	require.Error(t, err)
	assert.False(t, isUniqueConstraintErr(err))
	assert.False(t, isUniqueConstraintErr(errors.New("UNIQUE constraint failed: words.word")))
	assert.False(t, isUniqueConstraintErr(nil))
}

func TestDeferredDSN(t *testing.T) {
	assert.Equal(t, "/tmp/a.db?_busy_timeout=5000&_txlock=deferred", deferredDSN("/tmp/a.db?_busy_timeout=5000&_txlock=immediate"))
	assert.Equal(t, "/tmp/a.db?_foreign_keys=on&_txlock=deferred", deferredDSN("/tmp/a.db?_foreign_keys=on"))
	assert.Equal(t, "/tmp/a.db?_txlock=deferred", deferredDSN("/tmp/a.db"))
	assert.True(t, isMemoryDSN(":memory:"))
	assert.True(t, isMemoryDSN("file:x?mode=memory&cache=shared"))
	assert.False(t, isMemoryDSN("/tmp/a.db"))
}
