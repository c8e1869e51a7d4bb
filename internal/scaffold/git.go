package scaffold

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	git "gopkg.in/src-d/go-git.v4"
)

// Cloner fetches a repository into dir. dir does not exist when Clone is called.
type Cloner interface {
	Clone(ctx context.Context, url, dir string) error
}

// GitCloner clones with go-git on the local filesystem. ssh URLs authenticate
// through the running ssh-agent.
type GitCloner struct {
	// Progress receives the remote's sideband output when set.
	Progress io.Writer
}

// Clone performs a shallow clone of the default branch.
func (g GitCloner) Clone(ctx context.Context, url, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:      url,
		Depth:    1,
		Progress: g.Progress,
	})
	if err != nil {
		return errors.Wrap(err, "git clone")
	}
	return nil
}

// UnifiedDiff renders the change from the project file to the template file.
func UnifiedDiff(path string, current, incoming []byte) (string, error) {
	before := strings.TrimRight(string(current), "\n")
	after := strings.TrimRight(string(incoming), "\n")
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before + "\n"),
		B:        difflib.SplitLines(after + "\n"),
		FromFile: path + " (project)",
		ToFile:   path + " (template)",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", errors.Wrapf(err, "diff %s", path)
	}
	return text, nil
}
