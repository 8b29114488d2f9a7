package diagfmt

import (
	"fmt"
	"io"

	"tslint/internal/diag"
	"tslint/internal/source"
)

// Short печатает по одной строке на диагностику:
// <path>:<line>:<col>: <SEV> <CODE> [rule]: <Message>
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, mode PathMode) {
	for _, d := range bag.Items() {
		rule := ""
		if d.Rule != "" {
			rule = " [" + d.Rule + "]"
		}
		if located(d.Primary, d.Code, fs) {
			fmt.Fprintf(w, "%s: %s %s%s: %s\n", position(d.Primary, fs, mode), d.Severity, d.Code.ID(), rule, d.Message)
			continue
		}
		fmt.Fprintf(w, "%s %s%s: %s\n", d.Severity, d.Code.ID(), rule, d.Message)
	}
}
