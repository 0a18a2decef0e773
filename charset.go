package bgate

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultCharset is assumed when a body declares none.
const DefaultCharset = "utf-8"

// decodeCharset decodes body bytes in the named charset into a string.
func decodeCharset(data []byte, charset string) (string, error) {
	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" {
		charset = DefaultCharset
	}

	if charset == "utf-8" || charset == "utf8" {
		if !utf8.Valid(data) {
			return "", malformed("Failed to decode using charset '%s'.", charset)
		}
		return string(data), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", malformed("Failed to decode using charset '%s'.", charset)
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", malformed("Failed to decode using charset '%s'.", charset)
	}

	return string(out), nil
}

// EncodePathInfo transports a path the way gateway servers do: each byte of
// the raw path becomes one latin-1 code point.
func EncodePathInfo(path string) string {
	out, err := charmap.ISO8859_1.NewDecoder().String(path)
	if err != nil {
		return path
	}

	return out
}

// DecodePathInfo reverses [EncodePathInfo]. Paths that were not transported
// as latin-1 are returned unchanged.
func DecodePathInfo(path string) string {
	raw, err := charmap.ISO8859_1.NewEncoder().String(path)
	if err != nil || !utf8.ValidString(raw) {
		return path
	}

	return raw
}
