package gateway

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/starford/wordhoard/internal/models"
)

// ErrUnrecognizedResponse is returned when a provider body matches neither
// the entry-list shape nor the not-found shape.
var ErrUnrecognizedResponse = errors.New("gateway: unrecognized response shape")

// DefaultNotFoundTitle is used when the provider answers with an empty list.
const DefaultNotFoundTitle = "No Definitions Found"

// Result is the outcome of a provider lookup: either Found or NotFound.
type Result interface {
	isResult()
}

// Found carries the entries the provider returned, in provider order.
type Found struct {
	Entries []models.WordEntry
}

// NotFound is the provider's well-formed "no such word" answer.
type NotFound struct {
	Title      string
	Message    string
	Resolution string
}

func (Found) isResult()    {}
func (NotFound) isResult() {}

type apiPhonetic struct {
	Text      string `json:"text"`
	Audio     string `json:"audio"`
	SourceURL string `json:"sourceUrl"`
}

type apiDefinition struct {
	Definition string `json:"definition"`
	Example    string `json:"example"`
}

type apiMeaning struct {
	PartOfSpeech string          `json:"partOfSpeech"`
	Definitions  []apiDefinition `json:"definitions"`
	Synonyms     []string        `json:"synonyms"`
	Antonyms     []string        `json:"antonyms"`
}

type apiEntry struct {
	Word       string        `json:"word"`
	Phonetic   string        `json:"phonetic"`
	Phonetics  []apiPhonetic `json:"phonetics"`
	Meanings   []apiMeaning  `json:"meanings"`
	SourceURLs []string      `json:"sourceUrls"`
}

type apiNotFound struct {
	Title      string `json:"title"`
	Message    string `json:"message"`
	Resolution string `json:"resolution"`
}

// Parse decodes a provider body. The list shape is tried first and the
// not-found object second; the provider sends no discriminant.
func Parse(body []byte) (Result, error) {
	trimmed := bytes.TrimSpace(body)

	if bytes.HasPrefix(trimmed, []byte("[")) {
		var entries []apiEntry
		if err := json.Unmarshal(trimmed, &entries); err == nil {
			if len(entries) == 0 {
				return NotFound{Title: DefaultNotFoundTitle}, nil
			}
			return Found{Entries: toModels(entries)}, nil
		}
	}

	var nf apiNotFound
	if err := json.Unmarshal(trimmed, &nf); err == nil && nf.Title != "" {
		return NotFound{Title: nf.Title, Message: nf.Message, Resolution: nf.Resolution}, nil
	}
	return nil, ErrUnrecognizedResponse
}

func toModels(in []apiEntry) []models.WordEntry {
	out := make([]models.WordEntry, 0, len(in))
	for _, e := range in {
		entry := models.WordEntry{
			Word:       e.Word,
			Phonetic:   e.Phonetic,
			Phonetics:  make([]models.Phonetic, 0, len(e.Phonetics)),
			Meanings:   make([]models.Meaning, 0, len(e.Meanings)),
			SourceURLs: nonNil(e.SourceURLs),
		}
		for _, p := range e.Phonetics {
			entry.Phonetics = append(entry.Phonetics, models.Phonetic(p))
		}
		for _, m := range e.Meanings {
			meaning := models.Meaning{
				PartOfSpeech: m.PartOfSpeech,
				Definitions:  make([]models.Definition, 0, len(m.Definitions)),
				Synonyms:     nonNil(m.Synonyms),
				Antonyms:     nonNil(m.Antonyms),
			}
			for _, d := range m.Definitions {
				meaning.Definitions = append(meaning.Definitions, models.Definition(d))
			}
			entry.Meanings = append(entry.Meanings, meaning)
		}
		out = append(out, entry)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
