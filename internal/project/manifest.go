// Package project loads quill.toml manifests.
package project

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"quill/internal/capability"
	"quill/internal/corelib"
	"quill/internal/version"
)

var (
	ErrPackageSectionMissing = errors.New("missing [package]")
	ErrPackageNameMissing    = errors.New("missing [package].name")
)

// Manifest is a parsed quill.toml. Paths in Sources are relative to Root.
type Manifest struct {
	Path string
	Root string

	Package PackageConfig `toml:"package"`
	Build   BuildConfig   `toml:"build"`
	Sources SourcesConfig `toml:"sources"`
}

type PackageConfig struct {
	Name string `toml:"name"`
	// Core is a semver constraint on the core library, e.g. "^0.3".
	Core string `toml:"core"`
}

type BuildConfig struct {
	Entry     string `toml:"entry"`
	Profile   string `toml:"profile"`
	LoopLimit int    `toml:"loop_limit"`
	Emit      string `toml:"emit"`
}

type SourcesConfig struct {
	// Files are files or directories; directories contribute every .qs
	// file below them. Empty means the project root.
	Files []string `toml:"files"`
}

// Load finds and parses the manifest governing startDir. ok is false when
// there is none.
func Load(startDir string) (m *Manifest, ok bool, err error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err = LoadFile(path)
	return m, true, err
}

// LoadFile parses and validates the manifest at path.
func LoadFile(path string) (*Manifest, error) {
	m := &Manifest{Path: path, Root: filepath.Dir(path)}
	meta, err := toml.DecodeFile(path, m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	if strings.TrimSpace(m.Package.Name) == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	if m.Package.Core != "" {
		if err := version.CheckCore(m.Package.Core, corelib.Version); err != nil {
			return nil, errors.Wrapf(err, "%s: [package].core", path)
		}
	}
	if m.Build.Profile != "" {
		if _, err := capability.Lookup(m.Build.Profile); err != nil {
			return nil, errors.Wrapf(err, "%s: [build].profile", path)
		}
	}
	if m.Build.LoopLimit < 0 {
		return nil, errors.Errorf("%s: [build].loop_limit must not be negative", path)
	}
	switch m.Build.Emit {
	case "", "rir", "msgpack", "hir":
	default:
		return nil, errors.Errorf("%s: [build].emit: unknown format %q", path, m.Build.Emit)
	}
	return m, nil
}

// SourceFiles expands Sources.Files into a sorted, duplicate-free list of
// .qs paths.
func (m *Manifest) SourceFiles() ([]string, error) {
	entries := m.Sources.Files
	if len(entries) == 0 {
		entries = []string{"."}
	}
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}
	for _, entry := range entries {
		path := filepath.Join(m.Root, filepath.FromSlash(entry))
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%s: [sources].files: %w", m.Path, err)
		}
		if !info.IsDir() {
			if filepath.Ext(path) != ".qs" {
				return nil, errors.Errorf("%s: [sources].files: %s is not a .qs file", m.Path, entry)
			}
			add(path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == ".qs" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}
