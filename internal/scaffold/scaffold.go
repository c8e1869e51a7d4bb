// File: internal/scaffold/scaffold.go
// Brief: Project initialization for 'olympus init'.

// Package scaffold initializes olympus projects: it writes the olympusfile
// and merges a cloned project template into the target directory.
package scaffold

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/go-logr/logr"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/olympus-cli/olympus/internal/appconfig"
	"github.com/olympus-cli/olympus/internal/fsutil"
)

// OlympusfileName is the project descriptor written at the project root.
const OlympusfileName = "olympusfile.yaml"

// ErrUnknownTemplate is returned for template names not listed in Templates.
var ErrUnknownTemplate = errors.New("unknown template")

// Templates maps template names to their GitHub repositories.
var Templates = map[string]string{
	"api": "olympus-cli/olympus-template-api",
}

//go:embed templates/olympusfile.yaml.tmpl
var olympusfileTemplate string

// TemplateNames returns the known template names, sorted.
func TemplateNames() []string {
	names := make([]string, 0, len(Templates))
	for name := range Templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RepoURL returns the clone URL of a GitHub repository for the given git protocol.
func RepoURL(repo, protocol string) string {
	if protocol == appconfig.GitProtocolHTTPS {
		return "https://github.com/" + repo + ".git"
	}
	return "git@github.com:" + repo + ".git"
}

// Options configures one Init call.
type Options struct {
	Path     string
	Template string
	Force    bool
	ShowDiff bool
}

// Result summarizes the files touched by Init. Paths are relative to Root.
type Result struct {
	Root               string
	OlympusfileSkipped bool
	Created            []string
	Overwritten        []string
	Skipped            []string
}

// Initializer writes olympus projects.
type Initializer struct {
	fs     afero.Fs
	cloner Cloner
	cfg    appconfig.Config
	tmpDir string
	out    io.Writer
	log    logr.Logger
	now    func() time.Time
}

// NewInitializer returns an initializer that clones templates below tmpDir
// using cfg's git protocol. Notices and diffs are written to out.
func NewInitializer(fs afero.Fs, cloner Cloner, cfg appconfig.Config, tmpDir string, out io.Writer, log logr.Logger) *Initializer {
	return &Initializer{
		fs:     fs,
		cloner: cloner,
		cfg:    cfg.Values(),
		tmpDir: tmpDir,
		out:    out,
		log:    log,
		now:    time.Now,
	}
}

// Init creates the project at opts.Path.
func (i *Initializer) Init(ctx context.Context, opts Options) (Result, error) {
	root, err := projectRoot(opts.Path)
	if err != nil {
		return Result{}, err
	}
	res := Result{Root: root}
	if err := i.fs.MkdirAll(root, 0o755); err != nil {
		return res, errors.Wrapf(err, "create project directory %s", root)
	}

	if err := i.writeOlympusfile(root, opts.Template, &res); err != nil {
		return res, err
	}
	if strings.TrimSpace(opts.Template) == "" {
		return res, nil
	}
	if err := i.applyTemplate(ctx, root, opts, &res); err != nil {
		return res, err
	}
	return res, nil
}

func projectRoot(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = "."
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", errors.Wrap(err, "expand project path")
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", errors.Wrap(err, "resolve project path")
	}
	return abs, nil
}

func (i *Initializer) writeOlympusfile(root, tmpl string, res *Result) error {
	target := filepath.Join(root, OlympusfileName)
	if fsutil.Exists(i.fs, target) {
		res.OlympusfileSkipped = true
		fmt.Fprintln(i.out, "Skipping: Already initialized olympusfile...")
		return nil
	}
	data, err := RenderOlympusfile(OlympusfileData{
		Name:           filepath.Base(root),
		Template:       tmpl,
		PackageManager: i.cfg.PackageManager,
		GitProtocol:    i.cfg.GitProtocol,
		Created:        i.now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(i.fs, target, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", OlympusfileName)
	}
	res.Created = append(res.Created, OlympusfileName)
	i.log.V(1).Info("wrote olympusfile", "path", target)
	return nil
}

// OlympusfileData feeds the olympusfile template.
type OlympusfileData struct {
	Name           string
	Template       string
	PackageManager string
	GitProtocol    string
	Created        time.Time
}

// RenderOlympusfile renders the embedded olympusfile template with sprig functions.
func RenderOlympusfile(data OlympusfileData) ([]byte, error) {
	tmpl, err := template.New(OlympusfileName).Funcs(sprig.TxtFuncMap()).Parse(olympusfileTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "parse olympusfile template")
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, "render olympusfile template")
	}
	return buf.Bytes(), nil
}

func (i *Initializer) applyTemplate(ctx context.Context, root string, opts Options, res *Result) error {
	repo, ok := Templates[opts.Template]
	if !ok {
		return errors.Wrapf(ErrUnknownTemplate, "%q (available: %s)", opts.Template, strings.Join(TemplateNames(), ", "))
	}
	cache := filepath.Join(i.tmpDir, opts.Template)
	if err := i.fs.RemoveAll(cache); err != nil {
		return errors.Wrapf(err, "clear template cache %s", cache)
	}
	url := RepoURL(repo, i.cfg.GitProtocol)
	i.log.V(1).Info("cloning template", "template", opts.Template, "url", url, "dir", cache)
	if err := i.cloner.Clone(ctx, url, cache); err != nil {
		return errors.Wrapf(err, "clone template %s from %s", opts.Template, url)
	}

	diff, err := fsutil.Diff(i.fs, cache, root, fsutil.DiffOptions{Exclude: []string{".git"}})
	if err != nil {
		return errors.Wrap(err, "compare template with project")
	}
	for _, rel := range diff.Added {
		if err := fsutil.CopyFile(i.fs, filepath.Join(cache, rel), filepath.Join(root, rel), false); err != nil {
			return errors.Wrapf(err, "copy %s", rel)
		}
		res.Created = append(res.Created, rel)
	}
	for _, rel := range diff.Changed {
		if opts.ShowDiff {
			if err := i.printDiff(root, cache, rel); err != nil {
				return err
			}
		}
		if !opts.Force {
			res.Skipped = append(res.Skipped, rel)
			continue
		}
		if err := fsutil.CopyFile(i.fs, filepath.Join(cache, rel), filepath.Join(root, rel), true); err != nil {
			return errors.Wrapf(err, "overwrite %s", rel)
		}
		res.Overwritten = append(res.Overwritten, rel)
	}
	sort.Strings(res.Created)
	return nil
}

func (i *Initializer) printDiff(root, cache, rel string) error {
	current, err := afero.ReadFile(i.fs, filepath.Join(root, rel))
	if err != nil {
		return errors.Wrapf(err, "read %s", rel)
	}
	incoming, err := afero.ReadFile(i.fs, filepath.Join(cache, rel))
	if err != nil {
		return errors.Wrapf(err, "read template %s", rel)
	}
	text, err := UnifiedDiff(rel, current, incoming)
	if err != nil {
		return err
	}
	_, err = io.WriteString(i.out, text)
	return err
}
