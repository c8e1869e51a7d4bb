// File: internal/profile/store.go
// Brief: INI-backed profile store.

package profile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	"gopkg.in/ini.v1"

	"github.com/olympus-cli/olympus/internal/fsutil"
)

// Filename is the name of the profile store inside the olympus cache directory.
const Filename = ".olympus_k8s"

// ErrCorruptStore is returned when the backing file exists but cannot be parsed.
var ErrCorruptStore = errors.New("profile store is corrupt")

// Store maps profile names to profiles.
type Store map[string]Profile

// Names returns the stored profile names in alphabetical order.
func (s Store) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a profile named name exists.
func (s Store) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Upsert returns a copy of store with p bound under p.Name. store itself is not modified.
func Upsert(store Store, p Profile) Store {
	out := make(Store, len(store)+1)
	for name, existing := range store {
		out[name] = existing
	}
	out[p.Name] = p
	return out
}

// ValidateName rejects names that cannot be represented as an INI section.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("Please enter a valid profile name")
	case name != strings.TrimSpace(name):
		return errors.New("profile names cannot start or end with whitespace")
	case strings.ContainsAny(name, "[]\r\n"):
		return errors.New("profile names cannot contain brackets or line breaks")
	case name == ini.DefaultSection:
		return fmt.Errorf("%q is reserved", ini.DefaultSection)
	}
	return nil
}

// Secrets routinely contain '#' and ';', so inline comments are not
// recognized. A trailing backslash is part of the value, not a continuation.
var iniOptions = ini.LoadOptions{IgnoreInlineComment: true, IgnoreContinuation: true}

// quoteValue wraps v in triple quotes when the parser would otherwise strip
// its surrounding quotes or whitespace. Values with a newline or backtick are
// already triple-quoted by the writer.
func quoteValue(v string) string {
	if v == "" || strings.ContainsAny(v, "\n`") {
		return v
	}
	if v != strings.TrimSpace(v) || strings.Contains(v, `"""`) || strings.ContainsAny(v[:1], `"'`) {
		return `"""` + v + `"""`
	}
	return v
}

// Encode serializes store as INI with one section per profile.
func Encode(store Store) ([]byte, error) {
	file := ini.Empty(iniOptions)
	for _, name := range store.Names() {
		sec, err := file.NewSection(name)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", name, err)
		}
		fields := store[name].Fields()
		for _, key := range fieldOrder {
			value, ok := fields[key]
			if !ok {
				continue
			}
			if _, err := sec.NewKey(key, quoteValue(value)); err != nil {
				return nil, fmt.Errorf("section %q key %s: %w", name, key, err)
			}
		}
	}
	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses INI data produced by Encode (or edited by hand).
func Decode(data []byte) (Store, error) {
	file, err := ini.LoadSources(iniOptions, data)
	if err != nil {
		return nil, err
	}
	store := Store{}
	for _, sec := range file.Sections() {
		if sec.Name() == ini.DefaultSection {
			if len(sec.Keys()) > 0 {
				return nil, fmt.Errorf("keys outside of a profile section: %s", strings.Join(sec.KeyStrings(), ", "))
			}
			continue
		}
		p, err := FromFields(sec.Name(), sec.KeysHash())
		if err != nil {
			return nil, err
		}
		store[p.Name] = p
	}
	return store, nil
}

var fieldOrder = []string{
	KeyProvider,
	KeyURL,
	KeyTLSMode,
	KeyCAPath,
	KeyAuthMethod,
	KeyUsername,
	KeyPassword,
	KeyToken,
	KeyPrivateKeyPath,
	KeyCertPath,
}

// FileStore reads and writes a Store at a fixed path.
type FileStore struct {
	fs   afero.Fs
	path string
	log  logr.Logger
}

// NewFileStore returns a store persisted at path on fs.
func NewFileStore(fs afero.Fs, path string, log logr.Logger) *FileStore {
	return &FileStore{fs: fs, path: path, log: log}
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the persisted profiles, or an empty store when the file does not exist yet.
func (s *FileStore) Load() (Store, error) {
	raw, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.V(1).Info("profile store not found, starting empty", "path", s.path)
			return Store{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	store, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, s.path, err)
	}
	s.log.V(1).Info("loaded profile store", "path", s.path, "profiles", len(store))
	return store, nil
}

// Save overwrites the backing file with the full contents of store.
func (s *FileStore) Save(store Store) error {
	data, err := Encode(store)
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.fs, s.path, data, 0o600); err != nil {
		return err
	}
	s.log.V(1).Info("saved profile store", "path", s.path, "profiles", len(store))
	return nil
}
