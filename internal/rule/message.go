package rule

import (
	"fmt"
	"strings"
)

// Args fills {{name}} placeholders of a message template.
type Args map[string]string

func formatMessage(template string, args Args) (string, error) {
	var b strings.Builder
	rest := template
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.Index(rest[open:], "}}")
		if end < 0 {
			return "", fmt.Errorf("unterminated placeholder in %q", template)
		}
		name := strings.TrimSpace(rest[open+2 : open+end])
		value, ok := args[name]
		if !ok {
			return "", fmt.Errorf("missing argument %q for %q", name, template)
		}
		b.WriteString(rest[:open])
		b.WriteString(value)
		rest = rest[open+end+2:]
	}
}
