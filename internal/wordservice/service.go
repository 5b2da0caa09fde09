// Package wordservice is the single entry point for reading, fetching and
// persisting word definitions. It coordinates the cache, the relational
// store and the dictionary gateway, none of which know about each other.
package wordservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/starford/wordhoard/internal/apperr"
	"github.com/starford/wordhoard/internal/gateway"
	"github.com/starford/wordhoard/internal/models"
)

// Repository is the authoritative store of word entry graphs.
type Repository interface {
	Lookup(ctx context.Context, word string) ([]models.WordEntry, bool, error)
	Persist(ctx context.Context, word string, entries []models.WordEntry) error
	Words(ctx context.Context) ([]string, error)
	RandomWords(ctx context.Context, n int) ([]string, error)
	Ping(ctx context.Context) error
}

// Fetcher retrieves definitions from the remote provider.
type Fetcher interface {
	Fetch(ctx context.Context, word string) (gateway.Result, error)
}

// Cache is a bounded, non-authoritative copy of recently used graphs.
type Cache interface {
	Get(word string) ([]models.WordEntry, bool)
	Put(word string, entries []models.WordEntry)
}

// Notifier is told about words that were persisted for the first time.
type Notifier interface {
	WordAdded(word string)
}

// Service orchestrates the cache, the store and the gateway.
type Service struct {
	repo     Repository
	fetcher  Fetcher
	cache    Cache
	notifier Notifier
	logger   *slog.Logger

	inflight singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for internal failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithNotifier registers a listener for newly persisted words.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// New creates a Service.
func New(repo Repository, fetcher Fetcher, cache Cache, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		fetcher: fetcher,
		cache:   cache,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GetDefinitions returns the known entries for word from the cache, falling
// back to the store. Absence is reported as found=false with a nil error.
func (s *Service) GetDefinitions(ctx context.Context, raw string) ([]models.WordEntry, bool, error) {
	word, err := NormalizeWord(raw)
	if err != nil {
		return nil, false, err
	}
	return s.getDefinitions(ctx, word)
}

func (s *Service) getDefinitions(ctx context.Context, word string) ([]models.WordEntry, bool, error) {
	if entries, ok := s.cache.Get(word); ok {
		return entries, true, nil
	}
	entries, found, err := s.repo.Lookup(ctx, word)
	if err != nil {
		s.logger.Error("lookup failed", slog.String("word", word), slog.String("error", err.Error()))
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	s.cache.Put(word, entries)
	return entries, true, nil
}

// FetchAndPersist returns the entries for word, asking the provider and
// persisting the answer when the word is not known yet. A provider "no such
// word" answer is returned as *apperr.NoDefinitionsError.
//
// Concurrent calls for the same word share one provider request. The
// fetch-and-persist runs detached from ctx cancellation so a disconnecting
// caller cannot interrupt a write halfway.
func (s *Service) FetchAndPersist(ctx context.Context, raw string) ([]models.WordEntry, error) {
	word, err := NormalizeWord(raw)
	if err != nil {
		return nil, err
	}
	detached := context.WithoutCancel(ctx)
	if entries, found, err := s.getDefinitions(detached, word); err != nil {
		return nil, err
	} else if found {
		return entries, nil
	}

	v, err, _ := s.inflight.Do(word, func() (any, error) {
		return s.fetchAndPersist(detached, word)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.WordEntry), nil
}

func (s *Service) fetchAndPersist(ctx context.Context, word string) ([]models.WordEntry, error) {
	// A previous flight may have committed the word since the caller checked.
	if entries, found, err := s.getDefinitions(ctx, word); err != nil {
		return nil, err
	} else if found {
		return entries, nil
	}

	res, err := s.fetcher.Fetch(ctx, word)
	if err != nil {
		s.logger.Error("dictionary fetch failed", slog.String("word", word), slog.String("error", err.Error()))
		return nil, err
	}

	switch r := res.(type) {
	case gateway.NotFound:
		s.logger.Debug("no definitions", slog.String("word", word), slog.String("title", r.Title))
		return nil, &apperr.NoDefinitionsError{
			Word:       word,
			Title:      r.Title,
			Message:    r.Message,
			Resolution: r.Resolution,
		}
	case gateway.Found:
		return s.persist(ctx, word, r.Entries)
	default:
		return nil, fmt.Errorf("wordservice: unexpected gateway result %T", res)
	}
}

func (s *Service) persist(ctx context.Context, word string, entries []models.WordEntry) ([]models.WordEntry, error) {
	err := s.repo.Persist(ctx, word, entries)
	if errors.Is(err, apperr.ErrAlreadyExists) {
		// Another process committed the word first; serve its graph.
		stored, found, lerr := s.repo.Lookup(ctx, word)
		if lerr != nil {
			return nil, lerr
		}
		if found {
			s.cache.Put(word, stored)
			return stored, nil
		}
	}
	if err != nil {
		s.logger.Error("persist failed", slog.String("word", word), slog.String("error", err.Error()))
		return nil, err
	}

	s.cache.Put(word, entries)
	s.logger.Info("word persisted", slog.String("word", word), slog.Int("entries", len(entries)))
	if s.notifier != nil {
		s.notifier.WordAdded(word)
	}
	return entries, nil
}

// ListKnownWords returns every word that has been persisted.
func (s *Service) ListKnownWords(ctx context.Context) ([]string, error) {
	return s.repo.Words(ctx)
}

// SampleKnownWords returns up to n randomly chosen persisted words.
func (s *Service) SampleKnownWords(ctx context.Context, n int) ([]string, error) {
	return s.repo.RandomWords(ctx, n)
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
