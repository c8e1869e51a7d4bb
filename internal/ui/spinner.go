// spinner.go implements the spinner displayed while olympus waits on the network (probes, clones).
package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
)

var spinnerFrames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

// StartSpinner animates message until the returned stop function is called.
// stop prints a check mark or a cross in the given colors and is safe to call
// more than once.
func StartSpinner(w io.Writer, message string, ok, fail *color.Color) func(success bool) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		idx := 0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%c %s", spinnerFrames[idx], message)
				idx = (idx + 1) % len(spinnerFrames)
			}
		}
	}()
	var once sync.Once
	return func(success bool) {
		once.Do(func() {
			close(done)
			<-finished
			if success {
				fmt.Fprintf(w, "\r%s %s\n", ok.Sprint("✓"), message)
				return
			}
			fmt.Fprintf(w, "\r%s %s\n", fail.Sprint("✗"), message)
		})
	}
}
