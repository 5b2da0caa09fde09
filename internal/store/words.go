package store

import (
	"context"
	"fmt"
)

// Words returns every word in the bare-word index.
func (s *Store) Words(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.rdb.SelectContext(ctx, &out, `SELECT word FROM words ORDER BY word`); err != nil {
		return nil, fmt.Errorf("store: list words: %w", err)
	}
	return nonNilSlice(out), nil
}

// RandomWords returns a uniform random sample of at most n known words.
func (s *Store) RandomWords(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	var out []string
	if err := s.rdb.SelectContext(ctx, &out, s.rdb.Rebind(`SELECT word FROM words ORDER BY RANDOM() LIMIT ?`), n); err != nil {
		return nil, fmt.Errorf("store: random words: %w", err)
	}
	return nonNilSlice(out), nil
}
