package appconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/olympus-cli/olympus/internal/fsutil"
	"github.com/olympus-cli/olympus/internal/prompt"
)

const (
	ConfigFilename = ".olympus_config"
	CacheDirname   = ".olympus"
	TmpDirname     = ".tmp"
)

const (
	PackageManagerYarn = "yarn"
	PackageManagerNPM  = "npm"

	GitProtocolSSH   = "ssh"
	GitProtocolHTTPS = "https"
)

// Config is the CLI-global configuration. Unset fields fall back to the
// defaults returned by Values.
type Config struct {
	Autoupdate     *bool  `yaml:"autoupdate,omitempty"`
	PackageManager string `yaml:"packageManager,omitempty"`
	GitProtocol    string `yaml:"gitProtocol,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	on := true
	return Config{Autoupdate: &on, PackageManager: PackageManagerYarn, GitProtocol: GitProtocolSSH}
}

// Values returns c with every unset option filled from Defaults.
func (c Config) Values() Config {
	return Merge(Defaults(), c)
}

// Missing lists the option keys that are not set in c.
func (c Config) Missing() []string {
	var out []string
	if c.Autoupdate == nil {
		out = append(out, "autoupdate")
	}
	if c.PackageManager == "" {
		out = append(out, "packageManager")
	}
	if c.GitProtocol == "" {
		out = append(out, "gitProtocol")
	}
	return out
}

// Validate rejects option values outside their allowed sets.
func (c Config) Validate() error {
	var errs []error
	switch c.PackageManager {
	case "", PackageManagerYarn, PackageManagerNPM:
	default:
		errs = append(errs, fmt.Errorf("packageManager %q is not one of yarn, npm", c.PackageManager))
	}
	switch c.GitProtocol {
	case "", GitProtocolSSH, GitProtocolHTTPS:
	default:
		errs = append(errs, fmt.Errorf("gitProtocol %q is not one of ssh, https", c.GitProtocol))
	}
	return errors.Join(errs...)
}

func homeJoin(parts ...string) string {
	home, err := homedir.Dir()
	if err != nil || strings.TrimSpace(home) == "" {
		return ""
	}
	return filepath.Join(append([]string{home}, parts...)...)
}

// DefaultGlobalPath is ~/.olympus_config.
func DefaultGlobalPath() string {
	return homeJoin(ConfigFilename)
}

// CacheDir is ~/.olympus.
func CacheDir() string {
	return homeJoin(CacheDirname)
}

// Load reads the config at path. A missing or empty file yields a zero Config.
func Load(fs afero.Fs, path string) (Config, error) {
	c, err := loadOne(fs, path)
	if err != nil {
		return Config{}, fmt.Errorf("load global config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("load global config %s: %w", path, err)
	}
	return c, nil
}

func loadOne(fs afero.Fs, path string) (Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Config{}, nil
	}
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	raw = []byte(strings.TrimSpace(string(raw)))
	if len(raw) == 0 {
		return Config{}, nil
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes only the known options of c to path.
func Save(fs afero.Fs, path string, c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode global config: %w", err)
	}
	return fsutil.WriteFileAtomic(fs, path, raw, 0o644)
}

// Merge overlays the options set in b onto a.
func Merge(a, b Config) Config {
	out := a
	if b.Autoupdate != nil {
		v := *b.Autoupdate
		out.Autoupdate = &v
	}
	if b.PackageManager != "" {
		out.PackageManager = b.PackageManager
	}
	if b.GitProtocol != "" {
		out.GitProtocol = b.GitProtocol
	}
	return out
}

// Questions returns the prompts for the config wizard. Defaults come from the
// saved value when present. With onlyMissing, options already set are skipped.
func Questions(current Config, onlyMissing bool) []prompt.Question {
	values := current.Values()
	ask := func(string) bool { return true }
	if onlyMissing {
		missing := current.Missing()
		ask = func(key string) bool { return slices.Contains(missing, key) }
	}
	var qs []prompt.Question
	if ask("autoupdate") {
		qs = append(qs, prompt.Question{
			Name:    "autoupdate",
			Message: "Should olympus check for updates automatically?",
			Kind:    prompt.KindConfirm,
			Default: strconv.FormatBool(*values.Autoupdate),
		})
	}
	if ask("packageManager") {
		qs = append(qs, prompt.Question{
			Name:    "packageManager",
			Message: "Which package manager do you use?",
			Kind:    prompt.KindSelect,
			Default: values.PackageManager,
			Choices: []prompt.Choice{{Label: "yarn", Value: PackageManagerYarn}, {Label: "npm", Value: PackageManagerNPM}},
		})
	}
	if ask("gitProtocol") {
		qs = append(qs, prompt.Question{
			Name:    "gitProtocol",
			Message: "Which git protocol do you prefer?",
			Kind:    prompt.KindSelect,
			Default: values.GitProtocol,
			Choices: []prompt.Choice{{Label: "ssh", Value: GitProtocolSSH}, {Label: "https", Value: GitProtocolHTTPS}},
		})
	}
	return qs
}

// FromAnswers overlays wizard answers onto current.
func FromAnswers(current Config, answers prompt.Answers) Config {
	var next Config
	if v, ok := answers["autoupdate"]; ok {
		b, _ := strconv.ParseBool(v)
		next.Autoupdate = &b
	}
	next.PackageManager = answers["packageManager"]
	next.GitProtocol = answers["gitProtocol"]
	return Merge(current, next)
}
