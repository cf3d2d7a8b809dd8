package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrParamEmpty is returned when a required parameter is empty or whitespace-only after trim.
var ErrParamEmpty = errors.New("required parameter is missing")

// ErrParamTooLong is returned when a parameter length exceeds the maximum.
var ErrParamTooLong = errors.New("parameter too long")

// ErrParamInvalidChars is returned when a parameter contains disallowed characters.
var ErrParamInvalidChars = errors.New("parameter contains invalid characters")

// ValidateParam trims the input, enforces the length bound (maxLen in runes),
// and restricts to allowed characters: letters (Unicode), digits, space,
// comma, hyphen. Used for both crop and region query parameters; returns the
// trimmed string or an error suitable for 400 INVALID_REQUEST responses.
func ValidateParam(input string, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrParamEmpty
	}
	if maxLen > 0 && n > maxLen {
		return "", ErrParamTooLong
	}
	for _, c := range r {
		if !isAllowedParamRune(c) {
			return "", ErrParamInvalidChars
		}
	}
	return s, nil
}

// NormalizeLanguage maps the lang query parameter to a supported language
// code. Only "hi" is recognized; everything else, including absence, falls
// back to "en".
func NormalizeLanguage(lang string) string {
	if strings.TrimSpace(lang) == "hi" {
		return "hi"
	}
	return "en"
}

// isAllowedParamRune returns true for letters (Unicode), digits, space, comma, hyphen.
func isAllowedParamRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-':
		return true
	}
	return false
}
