// Package protocol implements the plain-text TCP command protocol.
//
// A command is a single line: a name followed by whitespace-separated
// arguments. Arguments are N-Triples terms, so the tokenizer has to respect
// term quoting: an IRI runs from '<' to '>', a literal runs from '"' to the
// first unescaped closing quote plus any attached @lang or ^^<datatype>
// suffix, and everything else splits on whitespace. A wildcard argument is
// the single character '?'.
package protocol

import (
	"fmt"
	"strings"
	"unicode"
)

// Tokenize splits one command line into fields, honoring N-Triples
// quoting. It returns an error for unterminated IRIs or literals.
func Tokenize(line string) ([]string, error) {
	var tokens []string
	runes := []rune(line)
	i := 0

	for i < len(runes) {
		if unicode.IsSpace(runes[i]) {
			i++
			continue
		}

		start := i
		switch runes[i] {
		case '<':
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == '>' {
					end = j
					break
				}
			}
			if end < 0 {
				return nil, fmt.Errorf("unterminated IRI at column %d", start+1)
			}
			i = end + 1

		case '"':
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == '\\' {
					j++
					continue
				}
				if runes[j] == '"' {
					end = j
					break
				}
			}
			if end < 0 {
				return nil, fmt.Errorf("unterminated literal at column %d", start+1)
			}
			i = end + 1
			// Attached @lang or ^^<datatype> suffix belongs to the token.
			for i < len(runes) && !unicode.IsSpace(runes[i]) {
				if runes[i] == '<' {
					closing := -1
					for j := i + 1; j < len(runes); j++ {
						if runes[j] == '>' {
							closing = j
							break
						}
					}
					if closing < 0 {
						return nil, fmt.Errorf("unterminated datatype IRI at column %d", i+1)
					}
					i = closing + 1
					continue
				}
				i++
			}

		default:
			for i < len(runes) && !unicode.IsSpace(runes[i]) {
				i++
			}
		}

		tokens = append(tokens, string(runes[start:i]))
	}

	return tokens, nil
}

// ParseLine splits a command line into an upper-cased command name and its
// argument tokens. An empty or whitespace-only line yields an empty name.
func ParseLine(line string) (name string, args []string, err error) {
	tokens, err := Tokenize(line)
	if err != nil {
		return "", nil, err
	}
	if len(tokens) == 0 {
		return "", nil, nil
	}
	return strings.ToUpper(tokens[0]), tokens[1:], nil
}
