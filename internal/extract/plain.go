package extract

import (
	"strings"
	"unicode/utf8"
)

// fromPlain decodes content as UTF-8 text, replacing invalid sequences
// with the replacement character.
func fromPlain(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�"), nil
	}
	return string(content), nil
}
