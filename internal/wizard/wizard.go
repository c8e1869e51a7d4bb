// File: internal/wizard/wizard.go
// Brief: Interactive Kubernetes profile wizard.

// Package wizard asks the questions that describe a Kubernetes cluster
// profile and assembles the answers into a profile.Profile.
package wizard

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/olympus-cli/olympus/internal/fsutil"
	"github.com/olympus-cli/olympus/internal/profile"
	"github.com/olympus-cli/olympus/internal/prompt"
)

// ErrNoProfilesExist is returned by update mode when the store is empty.
var ErrNoProfilesExist = errors.New("no profiles exist")

// Mode selects between adding a profile and re-entering an existing one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

func (m Mode) String() string {
	if m == ModeUpdate {
		return "update"
	}
	return "create"
}

// KeyProfile is the answer key of the profile name.
const KeyProfile = "profile"

// Wizard runs the profile questions through an evaluator.
type Wizard struct {
	eval *prompt.Evaluator
	fs   afero.Fs
}

// New returns a wizard that validates path answers against fs.
func New(eval *prompt.Evaluator, fs afero.Fs) *Wizard {
	return &Wizard{eval: eval, fs: fs}
}

// Run collects one profile. The store is only read, for name uniqueness in
// create mode and for the list of names in update mode.
func (w *Wizard) Run(mode Mode, store profile.Store) (profile.Profile, error) {
	var name string
	if mode == ModeUpdate {
		if len(store) == 0 {
			return profile.Profile{}, ErrNoProfilesExist
		}
		picked, err := w.eval.Evaluate([]prompt.Question{selectProfile(store)})
		if err != nil {
			return profile.Profile{}, err
		}
		name = picked[KeyProfile]
	}

	answers, err := w.eval.Evaluate(Questions(w.fs, store, mode == ModeCreate))
	if err != nil {
		return profile.Profile{}, err
	}
	if mode == ModeCreate {
		name = answers[KeyProfile]
	}
	p, err := profile.FromFields(name, answers)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("assemble profile: %w", err)
	}
	return p, nil
}

func selectProfile(store profile.Store) prompt.Question {
	names := store.Names()
	choices := make([]prompt.Choice, 0, len(names))
	for _, n := range names {
		choices = append(choices, prompt.Choice{Label: n, Value: n})
	}
	return prompt.Question{
		Name:    KeyProfile,
		Message: "Which profile would you like to update?",
		Kind:    prompt.KindSelect,
		Default: names[0],
		Choices: choices,
	}
}

// Questions returns the profile question set in asking order. withName adds
// the profile name question, which rejects names already in store.
func Questions(fs afero.Fs, store profile.Store, withName bool) []prompt.Question {
	qs := []prompt.Question{{
		Name:    profile.KeyProvider,
		Message: "Which cloud provider is your kubernetes cluster hosted?",
		Kind:    prompt.KindSelect,
		Default: string(profile.ProviderGKE),
		Choices: []prompt.Choice{
			{Label: "AWS", Value: string(profile.ProviderAWS)},
			{Label: "GKE", Value: string(profile.ProviderGKE)},
			{Label: "Other", Value: string(profile.ProviderOther)},
		},
		Normalize: strings.ToLower,
	}}
	if withName {
		qs = append(qs, prompt.Question{
			Name:      KeyProfile,
			Message:   "Give this cluster a profile name:",
			Normalize: strings.TrimSpace,
			Validate:  uniqueName(store),
		})
	}
	qs = append(qs,
		prompt.Question{
			Name:      profile.KeyURL,
			Message:   "Enter your kubernetes url (eg: https://my-k8s-api-server.com):",
			Normalize: strings.TrimSpace,
			Validate:  validateURL,
		},
		prompt.Question{
			Name:    profile.KeyTLSMode,
			Message: "How should the cluster certificate be verified?",
			Kind:    prompt.KindSelect,
			Default: string(profile.TLSModeDefault),
			Choices: []prompt.Choice{
				{Label: "default (system trust store)", Value: string(profile.TLSModeDefault)},
				{Label: "skip-verification", Value: string(profile.TLSModeSkipVerify)},
				{Label: "custom-ca (provide a CA bundle)", Value: string(profile.TLSModeCustomCA)},
			},
		},
		pathQuestion(fs, profile.KeyCAPath, "Path to the cluster CA certificate:",
			prompt.Equals(profile.KeyTLSMode, string(profile.TLSModeCustomCA))),
		prompt.Question{
			Name:    profile.KeyAuthMethod,
			Message: "Which authentication protocol does your kubernetes cluster use?",
			Kind:    prompt.KindSelect,
			Default: string(profile.AuthUserPass),
			Choices: []prompt.Choice{
				{Label: "user-pass", Value: string(profile.AuthUserPass)},
				{Label: "token", Value: string(profile.AuthToken)},
				{Label: "private-key", Value: string(profile.AuthPrivateKey)},
			},
		},
		prompt.Question{
			Name:      profile.KeyUsername,
			Message:   "Username:",
			When:      prompt.Equals(profile.KeyAuthMethod, string(profile.AuthUserPass)),
			Normalize: strings.TrimSpace,
			Validate:  nonEmpty("Please enter a username"),
		},
		prompt.Question{
			Name:    profile.KeyPassword,
			Message:  "Password:",
			Kind:     prompt.KindPassword,
			When:     prompt.Equals(profile.KeyAuthMethod, string(profile.AuthUserPass)),
			Validate: nonEmpty("Please enter a password"),
		},
		prompt.Question{
			Name:      profile.KeyToken,
			Message:   "Bearer token:",
			Kind:      prompt.KindPassword,
			When:      prompt.Equals(profile.KeyAuthMethod, string(profile.AuthToken)),
			Normalize: strings.TrimSpace,
			Validate:  nonEmpty("Please enter a valid token"),
		},
		pathQuestion(fs, profile.KeyPrivateKeyPath, "Path to the client private key:",
			prompt.Equals(profile.KeyAuthMethod, string(profile.AuthPrivateKey))),
		pathQuestion(fs, profile.KeyCertPath, "Path to the client certificate:",
			prompt.Equals(profile.KeyAuthMethod, string(profile.AuthPrivateKey))),
	)
	return qs
}

func pathQuestion(fs afero.Fs, name, message string, when func(prompt.Answers) bool) prompt.Question {
	return prompt.Question{
		Name:      name,
		Message:   message,
		When:      when,
		Normalize: expandPath,
		Validate: func(v string) error {
			if v == "" {
				return errors.New("Please enter a file path")
			}
			return fsutil.IsReadableFile(fs, v)
		},
	}
}

func expandPath(raw string) string {
	raw = strings.TrimSpace(raw)
	expanded, err := homedir.Expand(raw)
	if err != nil {
		return raw
	}
	return expanded
}

func uniqueName(store profile.Store) func(string) error {
	return func(name string) error {
		if err := profile.ValidateName(name); err != nil {
			return err
		}
		if store.Has(name) {
			return fmt.Errorf("a profile named %q already exists", name)
		}
		return nil
	}
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if raw == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("Please enter a valid kubernetes url (eg: https://my-k8s-api-server.com)")
	}
	return nil
}

func nonEmpty(msg string) func(string) error {
	return func(v string) error {
		if v == "" {
			return errors.New(msg)
		}
		return nil
	}
}
