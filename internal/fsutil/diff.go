package fsutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// DirDiff groups relative file paths by how they differ between a source and
// a destination directory.
type DirDiff struct {
	Added     []string // only in the source
	Removed   []string // only in the destination
	Changed   []string // in both, different content
	Unchanged []string
}

// DiffOptions tweaks Diff.
type DiffOptions struct {
	// Exclude lists path segments (e.g. ".git") whose subtrees are ignored on both sides.
	Exclude []string
}

// Diff compares src against dst file by file. dst is created when missing so
// every source file reports as added. Directories are not reported; they are
// implied by the files beneath them.
func Diff(fs afero.Fs, src, dst string, opts DiffOptions) (DirDiff, error) {
	if err := fs.MkdirAll(dst, 0o755); err != nil {
		return DirDiff{}, err
	}
	srcFiles, err := listFiles(fs, src, opts.Exclude)
	if err != nil {
		return DirDiff{}, err
	}
	dstFiles, err := listFiles(fs, dst, opts.Exclude)
	if err != nil {
		return DirDiff{}, err
	}

	var out DirDiff
	for rel, srcInfo := range srcFiles {
		dstInfo, ok := dstFiles[rel]
		if !ok {
			out.Added = append(out.Added, rel)
			continue
		}
		same, err := sameContent(fs, filepath.Join(src, rel), filepath.Join(dst, rel), srcInfo, dstInfo)
		if err != nil {
			return DirDiff{}, err
		}
		if same {
			out.Unchanged = append(out.Unchanged, rel)
		} else {
			out.Changed = append(out.Changed, rel)
		}
	}
	for rel := range dstFiles {
		if _, ok := srcFiles[rel]; !ok {
			out.Removed = append(out.Removed, rel)
		}
	}
	sort.Strings(out.Added)
	sort.Strings(out.Removed)
	sort.Strings(out.Changed)
	sort.Strings(out.Unchanged)
	return out, nil
}

// Empty reports whether the two directories held identical file sets.
func (d DirDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

func listFiles(fs afero.Fs, root string, exclude []string) (map[string]os.FileInfo, error) {
	files := make(map[string]os.FileInfo)
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if excluded(rel, exclude) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			files[rel] = info
		}
		return nil
	})
	return files, err
}

func excluded(rel string, exclude []string) bool {
	for _, segment := range strings.Split(rel, "/") {
		for _, ex := range exclude {
			if segment == ex {
				return true
			}
		}
	}
	return false
}

func sameContent(fs afero.Fs, a, b string, ai, bi os.FileInfo) (bool, error) {
	if ai.Size() != bi.Size() {
		return false, nil
	}
	left, err := afero.ReadFile(fs, a)
	if err != nil {
		return false, err
	}
	right, err := afero.ReadFile(fs, b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(left, right), nil
}
