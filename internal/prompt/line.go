package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// LinePrompter reads one line per answer. It works on pipes and files as well
// as terminals; choices are printed as a numbered list.
type LinePrompter struct {
	reader *bufio.Reader
	out    io.Writer
	fd     int
	tty    bool
}

// NewLinePrompter prompts on out and reads answers from in.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	p := &LinePrompter{reader: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.tty = true
	}
	return p
}

// Prompt implements Prompter.
func (p *LinePrompter) Prompt(q Question) (string, error) {
	switch q.Kind {
	case KindSelect:
		fmt.Fprintf(p.out, "%s\n", q.Message)
		for i, c := range q.Choices {
			fmt.Fprintf(p.out, "  %d) %s\n", i+1, c.Label)
		}
		p.label("Choose", q.DefaultLabel())
		return p.readLine()
	case KindPassword:
		fmt.Fprintf(p.out, "%s: ", q.Message)
		if p.tty {
			b, err := term.ReadPassword(p.fd)
			fmt.Fprintln(p.out)
			if err != nil {
				return "", err
			}
			return string(b), nil
		}
		return p.readLine()
	case KindConfirm:
		def := ""
		if q.Default != "" {
			def = "no"
			if b, _ := parseConfirm(q.Default); b {
				def = "yes"
			}
		}
		p.label(q.Message+" (yes/no)", def)
		return p.readLine()
	default:
		p.label(q.Message, q.Default)
		return p.readLine()
	}
}

func (p *LinePrompter) label(msg, def string) {
	if strings.TrimSpace(def) != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", msg, def)
		return
	}
	fmt.Fprintf(p.out, "%s: ", msg)
}

// readLine returns io.EOF only when the input closed before any data.
func (p *LinePrompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				fmt.Fprintln(p.out)
				return "", io.EOF
			}
			return line, nil
		}
		return "", err
	}
	return line, nil
}
