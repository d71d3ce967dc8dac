package cmdutils

import (
	"fmt"
	"io"
)

const logo = "⏰"

// PrintResponse writes text under the crondeck banner. Empty text is skipped.
func PrintResponse(w io.Writer, title, text string) {
	if text == "" {
		return
	}

	fmt.Fprintf(w, "\n%s %s\n%s\n\n", logo, title, text)
}
