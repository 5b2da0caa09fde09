package wordservice

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/wordhoard/internal/apperr"
)

// MaxWordLength bounds the length of a lookup key in runes.
const MaxWordLength = 64

var wordPattern = regexp.MustCompile(`^[\p{L}\p{M}\p{N}][\p{L}\p{M}\p{N} '’.\-]*$`)

// NormalizeWord trims and lower-cases raw and checks that it can be used as a
// lookup key. Invalid input wraps apperr.ErrInvalidWord.
func NormalizeWord(raw string) (string, error) {
	word := strings.ToLower(strings.TrimSpace(raw))
	err := validation.Validate(word,
		validation.Required,
		validation.RuneLength(1, MaxWordLength),
		validation.Match(wordPattern).Error("must contain only letters, digits and word punctuation"),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrInvalidWord, err)
	}
	return word, nil
}
