package config

import (
	"fmt"
	"strings"
)

// Error is a configuration problem: a bad lint.toml, or rule options
// rejected by a rule's option parser. Rule is empty for file-level errors.
type Error struct {
	Path string
	Rule string
	Key  string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	if e.Rule != "" {
		fmt.Fprintf(&b, "rule %q: ", e.Rule)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, "%s: ", e.Key)
	}
	b.WriteString(e.Msg)
	if e.Err != nil {
		if e.Msg != "" {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an option error for rule; option parsers use it to fail fast.
func Errorf(rule, key, format string, args ...any) *Error {
	return &Error{Rule: rule, Key: key, Msg: fmt.Sprintf(format, args...)}
}
