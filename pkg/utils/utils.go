package utils

import (
	"encoding/base64"
	"strings"
	"unicode"
)

// IndexAll returns the start index of every occurrence of sub in s.
// Occurrences may overlap: the search resumes one byte after each match.
func IndexAll(s, sub string) []int {
	if sub == "" {
		return nil
	}

	var indices []int
	offset := 0
	for offset <= len(s)-len(sub) {
		i := strings.Index(s[offset:], sub)
		if i < 0 {
			break
		}
		indices = append(indices, offset+i)
		offset += i + 1
	}
	return indices
}

// Product returns the cartesian self-product of elements, repeated repeat times.
// Product([]string{"a", "b"}, 2) yields aa, ab, ba, bb.
func Product(elements []string, repeat int) [][]string {
	if repeat <= 0 {
		return nil
	}
	if repeat == 1 {
		result := make([][]string, len(elements))
		for i, e := range elements {
			result[i] = []string{e}
		}
		return result
	}

	var result [][]string
	for _, e := range elements {
		for _, p := range Product(elements, repeat-1) {
			result = append(result, append([]string{e}, p...))
		}
	}
	return result
}

func EncodeBase64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// DecodeBase64 decodes standard, padded base64. ok is false on malformed input.
func DecodeBase64(s string) (string, bool) {
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

// Digits keeps only the decimal digits of s.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// CollapseSpace trims s and squashes inner whitespace runs to a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
