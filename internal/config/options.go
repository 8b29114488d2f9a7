package config

import (
	"strings"

	"github.com/BurntSushi/toml"
)

// Options is the raw option table of one rule. It stays undecoded until the
// rule's parser asks for it, because only the rule knows its shape.
type Options struct {
	rule string
	path string

	md   *toml.MetaData
	prim toml.Primitive
	// text is used for options given as a standalone TOML document (tests, CLI).
	text    string
	present bool
}

// NoOptions is the value passed to rules that have no [rules.<name>.options] table.
func NoOptions(rule string) Options {
	return Options{rule: rule}
}

// OptionsFromTOML wraps a standalone TOML document whose top-level keys are
// the rule options.
func OptionsFromTOML(rule, text string) Options {
	return Options{rule: rule, text: text, present: strings.TrimSpace(text) != ""}
}

// Rule returns the rule the options belong to.
func (o Options) Rule() string { return o.rule }

// Present reports whether any options were configured.
func (o Options) Present() bool { return o.present }

// Decode fills v (a pointer to struct or map) from the options. Keys that v
// does not consume are reported as *Error. Absent options leave v untouched,
// so parsers set defaults before calling Decode.
func (o Options) Decode(v any) error {
	if !o.present {
		return nil
	}
	if o.md == nil {
		md, err := toml.Decode(o.text, v)
		if err != nil {
			return &Error{Path: o.path, Rule: o.rule, Msg: "invalid options", Err: err}
		}
		return o.checkUndecoded(md.Undecoded(), nil)
	}
	if err := o.md.PrimitiveDecode(o.prim, v); err != nil {
		return &Error{Path: o.path, Rule: o.rule, Msg: "invalid options", Err: err}
	}
	return o.checkUndecoded(o.md.Undecoded(), optionsKey(o.rule))
}

func (o Options) checkUndecoded(keys []toml.Key, prefix toml.Key) error {
	for _, key := range keys {
		if !hasPrefix(key, prefix) || len(key) == len(prefix) {
			continue
		}
		return &Error{Path: o.path, Rule: o.rule, Key: strings.Join(key[len(prefix):], "."), Msg: "unknown option"}
	}
	return nil
}

func optionsKey(rule string) toml.Key {
	return toml.Key{"rules", rule, "options"}
}

func hasPrefix(key, prefix toml.Key) bool {
	if len(key) < len(prefix) {
		return false
	}
	for i := range prefix {
		if key[i] != prefix[i] {
			return false
		}
	}
	return true
}
