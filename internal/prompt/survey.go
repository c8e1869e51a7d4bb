package prompt

import (
	"errors"
	"io"
	"os"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"golang.org/x/term"
)

// SurveyPrompter renders questions with survey widgets. It needs a real
// terminal on both ends.
type SurveyPrompter struct {
	opts []survey.AskOpt
}

// NewSurveyPrompter binds survey to the given terminal files.
func NewSurveyPrompter(in terminal.FileReader, out terminal.FileWriter, errOut io.Writer) *SurveyPrompter {
	return &SurveyPrompter{opts: []survey.AskOpt{survey.WithStdio(in, out, errOut)}}
}

// Prompt implements Prompter.
func (p *SurveyPrompter) Prompt(q Question) (string, error) {
	var (
		answer string
		err    error
	)
	switch q.Kind {
	case KindSelect:
		sel := &survey.Select{Message: q.Message, Options: q.Labels()}
		if def := q.DefaultLabel(); def != "" {
			sel.Default = def
		}
		err = survey.AskOne(sel, &answer, p.opts...)
	case KindPassword:
		err = survey.AskOne(&survey.Password{Message: q.Message}, &answer, p.opts...)
	case KindConfirm:
		def, _ := strconv.ParseBool(q.Default)
		var ok bool
		err = survey.AskOne(&survey.Confirm{Message: q.Message, Default: def}, &ok, p.opts...)
		answer = strconv.FormatBool(ok)
	default:
		err = survey.AskOne(&survey.Input{Message: q.Message, Default: q.Default}, &answer, p.opts...)
	}
	switch {
	case err == nil:
		return answer, nil
	case errors.Is(err, terminal.InterruptErr):
		return "", ErrAborted
	case errors.Is(err, io.EOF):
		return "", io.EOF
	default:
		return "", err
	}
}

// ForTerminal returns a survey prompter when in and out are both terminals,
// otherwise a line prompter.
func ForTerminal(in io.Reader, out io.Writer) Prompter {
	inFile, inOK := in.(*os.File)
	outFile, outOK := out.(*os.File)
	if inOK && outOK && term.IsTerminal(int(inFile.Fd())) && term.IsTerminal(int(outFile.Fd())) {
		return NewSurveyPrompter(inFile, outFile, outFile)
	}
	return NewLinePrompter(in, out)
}
