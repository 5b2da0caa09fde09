package api

import (
	"github.com/starford/wordhoard/internal/models"
)

// AddWordRequest is the request body for fetching and storing a word.
type AddWordRequest struct {
	Word string `json:"word" example:"hello" validate:"required"`
}

// WordResponse carries every stored entry for one word.
type WordResponse struct {
	Word    string             `json:"word" example:"hello" validate:"required"`
	Entries []models.WordEntry `json:"entries" validate:"required"`
}

// WordListResponse lists known words.
type WordListResponse struct {
	Words []string `json:"words" validate:"required"`
	Total int      `json:"total" example:"42" validate:"required"`
}

// RandomWordsResponse is a random sample of known words.
type RandomWordsResponse struct {
	Words []string `json:"words" validate:"required"`
}

// NoDefinitionsResponse is returned when the dictionary has no entry for a word.
type NoDefinitionsResponse struct {
	Error      string `json:"error" example:"No Definitions Found: \"zzz\"" validate:"required"`
	Message    string `json:"message,omitempty"`
	Resolution string `json:"resolution,omitempty"`
}
