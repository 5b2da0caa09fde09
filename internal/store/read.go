package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/starford/wordhoard/internal/models"
)

type entryRow struct {
	ID       int64          `db:"id"`
	Headword string         `db:"headword"`
	Phonetic sql.NullString `db:"phonetic"`
}

type phoneticRow struct {
	Text      sql.NullString `db:"text"`
	Audio     sql.NullString `db:"audio"`
	SourceURL sql.NullString `db:"source_url"`
}

type meaningRow struct {
	ID           int64  `db:"id"`
	PartOfSpeech string `db:"part_of_speech"`
}

type definitionRow struct {
	Definition string         `db:"definition"`
	Example    sql.NullString `db:"example"`
}

// Lookup reassembles the stored entry graph for word. It reports found=false
// with a nil error when the word has no entries. All reads share one
// read-only transaction so the graph comes from a single snapshot.
func (s *Store) Lookup(ctx context.Context, word string) ([]models.WordEntry, bool, error) {
	tx, err := s.rdb.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, false, fmt.Errorf("store: begin read tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // read-only

	var rows []entryRow
	if err := tx.SelectContext(ctx, &rows, tx.Rebind(`
		SELECT id, headword, phonetic
		FROM word_entries
		WHERE word = ?
		ORDER BY position, id
	`), word); err != nil {
		return nil, false, fmt.Errorf("store: select word entries: %w", err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}

	out := make([]models.WordEntry, 0, len(rows))
	for _, r := range rows {
		e, err := loadEntry(ctx, tx, r)
		if err != nil {
			return nil, false, err
		}
		out = append(out, e)
	}
	return out, true, nil
}

func loadEntry(ctx context.Context, tx *sqlx.Tx, r entryRow) (models.WordEntry, error) {
	e := models.WordEntry{Word: r.Headword, Phonetic: r.Phonetic.String}

	var urls []string
	if err := tx.SelectContext(ctx, &urls, tx.Rebind(
		`SELECT url FROM source_urls WHERE word_entry_id = ? ORDER BY position, id`), r.ID); err != nil {
		return e, fmt.Errorf("store: select source urls: %w", err)
	}
	e.SourceURLs = nonNilSlice(urls)

	var phonetics []phoneticRow
	if err := tx.SelectContext(ctx, &phonetics, tx.Rebind(
		`SELECT text, audio, source_url FROM phonetics WHERE word_entry_id = ? ORDER BY position, id`), r.ID); err != nil {
		return e, fmt.Errorf("store: select phonetics: %w", err)
	}
	e.Phonetics = make([]models.Phonetic, 0, len(phonetics))
	for _, p := range phonetics {
		e.Phonetics = append(e.Phonetics, models.Phonetic{
			Text:      p.Text.String,
			Audio:     p.Audio.String,
			SourceURL: p.SourceURL.String,
		})
	}

	var meanings []meaningRow
	if err := tx.SelectContext(ctx, &meanings, tx.Rebind(
		`SELECT id, part_of_speech FROM meanings WHERE word_entry_id = ? ORDER BY position, id`), r.ID); err != nil {
		return e, fmt.Errorf("store: select meanings: %w", err)
	}
	e.Meanings = make([]models.Meaning, 0, len(meanings))
	for _, m := range meanings {
		meaning, err := loadMeaning(ctx, tx, m)
		if err != nil {
			return e, err
		}
		e.Meanings = append(e.Meanings, meaning)
	}
	return e, nil
}

func loadMeaning(ctx context.Context, tx *sqlx.Tx, r meaningRow) (models.Meaning, error) {
	m := models.Meaning{PartOfSpeech: r.PartOfSpeech}

	var defs []definitionRow
	if err := tx.SelectContext(ctx, &defs, tx.Rebind(
		`SELECT definition, example FROM definitions WHERE meaning_id = ? ORDER BY position, id`), r.ID); err != nil {
		return m, fmt.Errorf("store: select definitions: %w", err)
	}
	m.Definitions = make([]models.Definition, 0, len(defs))
	for _, d := range defs {
		m.Definitions = append(m.Definitions, models.Definition{Definition: d.Definition, Example: d.Example.String})
	}

	var synonyms []string
	if err := tx.SelectContext(ctx, &synonyms, tx.Rebind(
		`SELECT synonym FROM synonyms WHERE meaning_id = ? ORDER BY position, id`), r.ID); err != nil {
		return m, fmt.Errorf("store: select synonyms: %w", err)
	}
	m.Synonyms = nonNilSlice(synonyms)

	var antonyms []string
	if err := tx.SelectContext(ctx, &antonyms, tx.Rebind(
		`SELECT antonym FROM antonyms WHERE meaning_id = ? ORDER BY position, id`), r.ID); err != nil {
		return m, fmt.Errorf("store: select antonyms: %w", err)
	}
	m.Antonyms = nonNilSlice(antonyms)
	return m, nil
}
