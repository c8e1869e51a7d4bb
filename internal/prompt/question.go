// File: internal/prompt/question.go
// Brief: Question model for the interactive prompt evaluator.

// Package prompt evaluates ordered lists of questions against a terminal,
// skipping questions whose visibility predicate rejects the answers collected
// so far.
package prompt

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrInputUnavailable means input was closed (or defaults-only mode was
	// requested) and a visible question had no usable default.
	ErrInputUnavailable = errors.New("input unavailable")
	// ErrAborted means the user interrupted the prompt.
	ErrAborted = errors.New("aborted")
)

// Kind selects the widget used to ask a question.
type Kind int

const (
	KindInput Kind = iota
	KindSelect
	KindPassword
	KindConfirm
)

func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindPassword:
		return "password"
	case KindConfirm:
		return "confirm"
	default:
		return "input"
	}
}

// Choice is one option of a KindSelect question.
type Choice struct {
	Label string
	Value string
}

// Answers holds accepted values keyed by question name.
type Answers map[string]string

// Bool reads a confirm answer.
func (a Answers) Bool(name string) bool {
	v, _ := strconv.ParseBool(a[name])
	return v
}

func (a Answers) clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Question describes one prompt.
type Question struct {
	Name    string
	Message string
	Kind    Kind
	// Default is used for empty input. For KindSelect it is a choice value,
	// for KindConfirm "true" or "false".
	Default string
	Choices []Choice
	// When hides the question (and records nothing) when it returns false.
	When      func(Answers) bool
	Normalize func(string) string
	Validate  func(string) error
}

// Equals returns a When predicate matching answers[name] == value.
func Equals(name, value string) func(Answers) bool {
	return func(a Answers) bool { return a[name] == value }
}

// Labels returns the display labels of q's choices.
func (q Question) Labels() []string {
	labels := make([]string, 0, len(q.Choices))
	for _, c := range q.Choices {
		labels = append(labels, c.Label)
	}
	return labels
}

// DefaultLabel returns the label of the choice whose value is q.Default.
func (q Question) DefaultLabel() string {
	for _, c := range q.Choices {
		if strings.EqualFold(c.Value, q.Default) {
			return c.Label
		}
	}
	return ""
}

func (q Question) visible(a Answers) bool {
	return q.When == nil || q.When(a)
}

// resolveChoice maps raw select input to a choice value. An exact label or
// value wins, then a 1-based index, then a case-insensitive label or value.
func (q Question) resolveChoice(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, c := range q.Choices {
		if raw == c.Label || raw == c.Value {
			return c.Value, true
		}
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n >= 1 && n <= len(q.Choices) {
			return q.Choices[n-1].Value, true
		}
		return "", false
	}
	for _, c := range q.Choices {
		if strings.EqualFold(raw, c.Label) || strings.EqualFold(raw, c.Value) {
			return c.Value, true
		}
	}
	return "", false
}

func parseConfirm(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes", "true", "1":
		return true, true
	case "n", "no", "false", "0":
		return false, true
	}
	return false, false
}
