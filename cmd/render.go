package cmd

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// printMarkdown renders markdown content for the terminal. On any rendering
// trouble the raw markdown is printed instead.
func printMarkdown(content string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Print(content)
		return
	}
	out, err := r.Render(content)
	if err != nil {
		fmt.Print(content)
		return
	}
	fmt.Print(out)
}
