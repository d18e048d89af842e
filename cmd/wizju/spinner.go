package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/mmcdole/wizju/internal/tui/styles"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// withSpinner runs fn while animating a spinner on w. Nothing is drawn
// when w is not a terminal.
func withSpinner[T any](w io.Writer, label string, fn func() (T, error)) (T, error) {
	if !isTerminal(w) {
		return fn()
	}

	type result struct {
		value T
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		v, err := fn()
		resultCh <- result{v, err}
	}()

	clearLine := "\r" + strings.Repeat(" ", len(label)+4) + "\r"
	frame := 0
	fmt.Fprintf(w, "\r%s %s", styles.SpinnerFrames[frame], label)

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case res := <-resultCh:
			fmt.Fprint(w, clearLine)
			return res.value, res.err
		case <-ticker.C:
			frame++
			fmt.Fprintf(w, "\r%s %s", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)], label)
		}
	}
}
