// Package decrypt reverses the obfuscation the portal applies to stream links.
//
// An obfuscated payload starts with a two character marker ("#h"). The rest is
// base64 with noise injected behind "//_//" separators. The noise consists of
// base64 encoded combinations of a small symbol alphabet.
package decrypt

import (
	"log/slog"
	"strings"

	"github.com/bugmaschine/rzk/pkg/utils"
)

const (
	markerPrefix = "#"
	markerLength = 2
	separator    = "//_//"
)

var trashAlphabet = []string{"@", "#", "!", "^", "$"}

// Decrypt returns the plain value behind an obfuscated payload.
// Input without the marker is returned unchanged. If the cleaned payload is
// not valid base64 the result is an empty string.
func Decrypt(encrypted string) string {
	return NewDecoder().Decode(encrypted)
}

// Decoder owns the cache of a single decryption. Use a fresh Decoder per
// payload; it is not safe for concurrent use.
type Decoder struct {
	trash       []string
	cache       map[string]string
	resolutions int
}

func NewDecoder() *Decoder {
	return &Decoder{
		trash: TrashTokens(),
		cache: make(map[string]string),
	}
}

func (d *Decoder) Decode(encrypted string) string {
	if !strings.HasPrefix(encrypted, markerPrefix) || len(encrypted) < markerLength {
		return encrypted
	}

	resolved := d.resolve(encrypted[markerLength:])
	decoded, ok := utils.DecodeBase64(resolved)
	if !ok {
		slog.Debug("Payload is not valid base64 after cleaning", "length", len(resolved))
		return ""
	}
	return decoded
}

// Resolutions reports how many strings were resolved without a cache hit.
func (d *Decoder) Resolutions() int {
	return d.resolutions
}

func (d *Decoder) resolve(s string) string {
	if cached, ok := d.cache[s]; ok {
		return cached
	}
	d.resolutions++

	best := s
	found := false
	for _, i := range utils.IndexAll(s, separator) {
		prefix := s[:i]
		before, remainder := splitAfterBoundary(s[i+len(separator):])
		candidate := d.resolve(prefix + d.clean(before) + remainder)
		if !found || len(candidate) < len(best) {
			best = candidate
			found = true
		}
	}

	d.cache[s] = best
	return best
}

// splitAfterBoundary cuts s after the first '/' or '='. Without a boundary
// the whole string is the "before" part.
func splitAfterBoundary(s string) (before, remainder string) {
	i := strings.IndexAny(s, "/=")
	if i < 0 {
		return s, ""
	}
	return s[:i+1], s[i+1:]
}

func (d *Decoder) clean(s string) string {
	for _, token := range d.trash {
		s = strings.ReplaceAll(s, token, "")
	}
	return s
}

// TrashTokens returns the base64 encoded two and three symbol combinations
// of the noise alphabet, in generation order.
func TrashTokens() []string {
	var tokens []string
	for _, n := range []int{2, 3} {
		for _, combo := range utils.Product(trashAlphabet, n) {
			tokens = append(tokens, utils.EncodeBase64(strings.Join(combo, "")))
		}
	}
	return tokens
}
