package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/starford/wordhoard/internal/apperr"
	"github.com/starford/wordhoard/internal/models"
)

// Write stages reported to the checkpoint hook, in execution order per entry.
const (
	StageEntry       = "word_entries"
	StageSourceURLs  = "source_urls"
	StagePhonetics   = "phonetics"
	StageMeanings    = "meanings"
	StageDefinitions = "definitions"
	StageSynonyms    = "synonyms"
	StageAntonyms    = "antonyms"
	StageWords       = "words"
)

// Persist writes the full entry graph for word and records word in the
// bare-word index, all inside one transaction. Either every row is committed
// or none is. A word that is already known is rejected with
// apperr.ErrAlreadyExists.
func (s *Store) Persist(ctx context.Context, word string, entries []models.WordEntry) error {
	if word == "" {
		return fmt.Errorf("store: persist: %w", apperr.ErrInvalidWord)
	}
	if len(entries) == 0 {
		return fmt.Errorf("store: persist %q: no entries", word)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var known int
	if err := tx.GetContext(ctx, &known, tx.Rebind(`SELECT COUNT(*) FROM words WHERE word = ?`), word); err != nil {
		return fmt.Errorf("store: check word: %w", err)
	}
	if known > 0 {
		return fmt.Errorf("store: persist %q: %w", word, apperr.ErrAlreadyExists)
	}

	for i, e := range entries {
		if err := s.insertEntry(ctx, tx, word, i, e); err != nil {
			return err
		}
	}

	if err := s.reach(StageWords); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO words (word) VALUES (?)`), word); err != nil {
		if isUniqueConstraintErr(err) {
			return fmt.Errorf("store: persist %q: %w", word, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("store: insert word: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func (s *Store) insertEntry(ctx context.Context, tx *sqlx.Tx, word string, pos int, e models.WordEntry) error {
	if err := s.reach(StageEntry); err != nil {
		return err
	}
	entryID, err := insertReturningID(ctx, tx,
		`INSERT INTO word_entries (word, position, headword, phonetic) VALUES (?, ?, ?, ?) RETURNING id`,
		word, pos, e.Word, nullString(e.Phonetic))
	if err != nil {
		return fmt.Errorf("store: insert word entry: %w", err)
	}

	if err := s.reach(StageSourceURLs); err != nil {
		return err
	}
	for i, u := range e.SourceURLs {
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO source_urls (word_entry_id, position, url) VALUES (?, ?, ?)`),
			entryID, i, u); err != nil {
			return fmt.Errorf("store: insert source url: %w", err)
		}
	}

	if err := s.reach(StagePhonetics); err != nil {
		return err
	}
	for i, p := range e.Phonetics {
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO phonetics (word_entry_id, position, text, audio, source_url) VALUES (?, ?, ?, ?, ?)`),
			entryID, i, nullString(p.Text), nullString(p.Audio), nullString(p.SourceURL)); err != nil {
			return fmt.Errorf("store: insert phonetic: %w", err)
		}
	}

	for i, m := range e.Meanings {
		if err := s.insertMeaning(ctx, tx, entryID, i, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertMeaning(ctx context.Context, tx *sqlx.Tx, entryID int64, pos int, m models.Meaning) error {
	if err := s.reach(StageMeanings); err != nil {
		return err
	}
	meaningID, err := insertReturningID(ctx, tx,
		`INSERT INTO meanings (word_entry_id, position, part_of_speech) VALUES (?, ?, ?) RETURNING id`,
		entryID, pos, m.PartOfSpeech)
	if err != nil {
		return fmt.Errorf("store: insert meaning: %w", err)
	}

	if err := s.reach(StageDefinitions); err != nil {
		return err
	}
	for i, d := range m.Definitions {
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO definitions (meaning_id, position, definition, example) VALUES (?, ?, ?, ?)`),
			meaningID, i, d.Definition, nullString(d.Example)); err != nil {
			return fmt.Errorf("store: insert definition: %w", err)
		}
	}

	if err := s.reach(StageSynonyms); err != nil {
		return err
	}
	for i, syn := range m.Synonyms {
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO synonyms (meaning_id, position, synonym) VALUES (?, ?, ?)`),
			meaningID, i, syn); err != nil {
			return fmt.Errorf("store: insert synonym: %w", err)
		}
	}

	if err := s.reach(StageAntonyms); err != nil {
		return err
	}
	for i, ant := range m.Antonyms {
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO antonyms (meaning_id, position, antonym) VALUES (?, ?, ?)`),
			meaningID, i, ant); err != nil {
			return fmt.Errorf("store: insert antonym: %w", err)
		}
	}
	return nil
}

func insertReturningID(ctx context.Context, tx *sqlx.Tx, query string, args ...any) (int64, error) {
	var id int64
	if err := tx.QueryRowxContext(ctx, tx.Rebind(query), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
