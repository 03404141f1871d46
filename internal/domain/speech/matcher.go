package speech

import (
	"regexp"
	"strings"

	"sleepvoice-server-go/internal/util/optional"
)

// Pattern maps a literal phrase or a regular expression to a command.
type Pattern struct {
	literal string
	re      *regexp.Regexp
	command Command
}

// Literal registers a phrase matched by equality or containment.
func Literal(phrase string, cmd Command) Pattern {
	return Pattern{literal: strings.ToLower(strings.TrimSpace(phrase)), command: cmd}
}

// Regex registers an expression searched anywhere in the transcript. It
// panics on an invalid expression since patterns are static.
func Regex(expr string, cmd Command) Pattern {
	return Pattern{re: regexp.MustCompile(expr), command: cmd}
}

// Matcher resolves a transcript against an ordered pattern list. It is
// immutable after construction and safe for concurrent use.
type Matcher struct {
	patterns []Pattern
}

func NewMatcher(patterns ...Pattern) *Matcher {
	return &Matcher{patterns: append([]Pattern(nil), patterns...)}
}

// Match runs three passes over the patterns in registration order: exact
// equality with a literal, containment of a literal, then regex search.
// The first hit in the earliest pass wins.
func (m *Matcher) Match(t Transcript) optional.Value[Command] {
	text := t.Lower()
	if text == "" {
		return optional.None[Command]()
	}

	for _, p := range m.patterns {
		if p.re == nil && p.literal == text {
			return optional.Some(p.command)
		}
	}
	for _, p := range m.patterns {
		if p.re == nil && p.literal != "" && strings.Contains(text, p.literal) {
			return optional.Some(p.command)
		}
	}
	for _, p := range m.patterns {
		if p.re != nil && p.re.MatchString(text) {
			return optional.Some(p.command)
		}
	}
	return optional.None[Command]()
}
