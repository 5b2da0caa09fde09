// Package models defines the domain types for Wordhoard.
package models

// WordEntry is one sense cluster for a word as returned by the dictionary provider.
type WordEntry struct {
	Word       string     `json:"word"`
	Phonetic   string     `json:"phonetic,omitempty"`
	Phonetics  []Phonetic `json:"phonetics"`
	Meanings   []Meaning  `json:"meanings"`
	SourceURLs []string   `json:"source_urls"`
}

// Phonetic is one pronunciation of a WordEntry.
type Phonetic struct {
	Text      string `json:"text,omitempty"`
	Audio     string `json:"audio,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
}

// Meaning groups definitions under a single part of speech.
// PartOfSpeech is free text ("noun", "verb", ...).
type Meaning struct {
	PartOfSpeech string       `json:"part_of_speech"`
	Definitions  []Definition `json:"definitions"`
	Synonyms     []string     `json:"synonyms"`
	Antonyms     []string     `json:"antonyms"`
}

// Definition is a definition string plus an optional usage example.
type Definition struct {
	Definition string `json:"definition"`
	Example    string `json:"example,omitempty"`
}
