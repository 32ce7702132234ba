package diagfmt

import (
	"path/filepath"
	"strings"

	"quill/internal/source"
)

const autoPathLimit = 40

func formatPath(f *source.File, mode PathMode, base string) string {
	path := f.Path
	if f.Flags&(source.FileCore|source.FileFragment) != 0 {
		return path
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathModeRelative:
		if base != "" {
			if rel, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(rel, "..") {
				return filepath.ToSlash(rel)
			}
		}
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeAuto:
		if filepath.IsAbs(path) && len(path) > autoPathLimit {
			return filepath.Base(path)
		}
	}
	return filepath.ToSlash(path)
}
