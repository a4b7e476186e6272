// SPDX-License-Identifier: Apache-2.0
// Package argv splits, joins and redacts JVM/game argument vectors.
//
// Splitting follows POSIX shell word rules closely enough for the legacy
// space-separated argument strings found in old version descriptors and for
// user-supplied extra JVM options.
package argv

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrUnclosedQuote is returned when a quoted word never terminates.
	ErrUnclosedQuote = errors.New("unclosed quote in argument string")

	// ErrTrailingEscape is returned when the input ends in a lone backslash.
	ErrTrailingEscape = errors.New("trailing escape character in argument string")
)

type quoteState int

const (
	unquoted quoteState = iota
	singleQuoted
	doubleQuoted
)

// splitter accumulates words while walking the input once.
type splitter struct {
	words   []string
	word    strings.Builder
	pending bool // a word has started even if it is still empty ("")
	state   quoteState
}

func (s *splitter) flush() {
	if s.word.Len() > 0 || s.pending {
		s.words = append(s.words, s.word.String())
	}
	s.word.Reset()
	s.pending = false
}

// Split breaks an argument string into words.
//
//	Split(`--username ${auth_player_name} --gameDir "C:\My Games"`)
//	=> ["--username", "${auth_player_name}", "--gameDir", `C:\My Games`]
//
// Inside double quotes a backslash only escapes ", \, $ and `; elsewhere the
// backslash is kept so Windows paths survive. Outside quotes a backslash
// escapes the next character.
func Split(input string) ([]string, error) {
	s := &splitter{words: []string{}}
	runes := []rune(input)

	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		switch s.state {
		case singleQuoted:
			if ch == '\'' {
				s.state = unquoted
				continue
			}
			s.word.WriteRune(ch)

		case doubleQuoted:
			switch ch {
			case '"':
				s.state = unquoted
			case '\\':
				if i+1 >= len(runes) {
					return nil, ErrTrailingEscape
				}
				i++
				if next := runes[i]; strings.ContainsRune("\"\\$`", next) {
					s.word.WriteRune(next)
				} else {
					s.word.WriteRune('\\')
					s.word.WriteRune(next)
				}
			default:
				s.word.WriteRune(ch)
			}

		default:
			switch {
			case ch == '\\':
				if i+1 >= len(runes) {
					return nil, ErrTrailingEscape
				}
				i++
				s.word.WriteRune(runes[i])
				s.pending = true
			case ch == '\'':
				s.state = singleQuoted
				s.pending = true
			case ch == '"':
				s.state = doubleQuoted
				s.pending = true
			case unicode.IsSpace(ch):
				s.flush()
			default:
				s.word.WriteRune(ch)
			}
		}
	}

	switch s.state {
	case singleQuoted:
		return nil, fmt.Errorf("%w: single", ErrUnclosedQuote)
	case doubleQuoted:
		return nil, fmt.Errorf("%w: double", ErrUnclosedQuote)
	}

	s.flush()
	return s.words, nil
}

// Fields is Split that falls back to whitespace splitting when the input is
// not well formed. Descriptor strings are data, not shell scripts, so a stray
// quote must not abort a launch.
func Fields(input string) []string {
	words, err := Split(input)
	if err != nil {
		return strings.Fields(input)
	}
	return words
}

// Join renders args as a single copy-pasteable command line.
func Join(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = quote(arg)
	}
	return strings.Join(quoted, " ")
}

func quote(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsFunc(arg, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune("'\"\\$`;&|<>*?", r)
	}) {
		return arg
	}
	if !strings.Contains(arg, "'") {
		return "'" + arg + "'"
	}

	var b strings.Builder
	b.WriteByte('"')
	for _, r := range arg {
		if strings.ContainsRune("\"\\$`", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
