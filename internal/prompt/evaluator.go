package prompt

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompter obtains raw input for one question. An empty answer means "use the
// default". io.EOF reports that input is closed.
type Prompter interface {
	Prompt(q Question) (string, error)
}

// Evaluator walks questions in order and collects the accepted answers.
type Evaluator struct {
	Prompter Prompter
	// Out receives rejection messages.
	Out io.Writer
	// UseDefaults answers every visible question with its default without prompting.
	UseDefaults bool
}

// Evaluate asks each visible question until its answer is accepted.
func (e *Evaluator) Evaluate(questions []Question) (Answers, error) {
	answers := Answers{}
	for _, q := range questions {
		if !q.visible(answers.clone()) {
			continue
		}
		value, err := e.ask(q)
		if err != nil {
			return nil, err
		}
		answers[q.Name] = value
	}
	return answers, nil
}

func (e *Evaluator) ask(q Question) (string, error) {
	if e.UseDefaults {
		if q.Default == "" {
			return "", fmt.Errorf("%w: %s has no default", ErrInputUnavailable, q.Name)
		}
		value, err := accept(q, "")
		if err != nil {
			return "", fmt.Errorf("%w: default for %s rejected: %v", ErrInputUnavailable, q.Name, err)
		}
		return value, nil
	}
	if e.Prompter == nil {
		return "", fmt.Errorf("%w: no prompter configured", ErrInputUnavailable)
	}
	for {
		raw, err := e.Prompter.Prompt(q)
		closed := errors.Is(err, io.EOF)
		if err != nil && !closed {
			return "", err
		}
		if closed && raw == "" && q.Default == "" {
			return "", fmt.Errorf("%w: %s", ErrInputUnavailable, q.Name)
		}
		value, err := accept(q, raw)
		if err == nil {
			return value, nil
		}
		if closed {
			return "", fmt.Errorf("%w: %s: %v", ErrInputUnavailable, q.Name, err)
		}
		e.reject(err)
	}
}

func (e *Evaluator) reject(reason error) {
	if e.Out == nil {
		return
	}
	fmt.Fprintf(e.Out, "✗ %s\n", reason)
}

// accept turns raw input into a stored value, falling back to the default on
// empty input, then normalizes and validates it.
func accept(q Question, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" && q.Default != "" {
		raw = q.Default
	}
	var value string
	switch q.Kind {
	case KindSelect:
		v, ok := q.resolveChoice(raw)
		if !ok {
			return "", fmt.Errorf("Please choose one of: %s", strings.Join(q.Labels(), ", "))
		}
		value = v
	case KindConfirm:
		b, ok := parseConfirm(raw)
		if !ok {
			return "", errors.New("Please answer yes or no.")
		}
		value = strconv.FormatBool(b)
	default:
		value = raw
	}
	if q.Normalize != nil {
		value = q.Normalize(value)
	}
	if q.Validate != nil {
		if err := q.Validate(value); err != nil {
			return "", err
		}
	}
	return value, nil
}
