package source

import (
	"bytes"
	"path/filepath"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// normalize strips a leading BOM and rewrites CRLF as LF. A lone CR stays.
func normalize(content []byte) ([]byte, FileFlags) {
	var flags FileFlags
	if rest, ok := bytes.CutPrefix(content, bom); ok {
		content = rest
		flags |= FileHadBOM
	}
	if bytes.Contains(content, []byte("\r\n")) {
		content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
		flags |= FileNormalizedCRLF
	}
	return content, flags
}

func lineStarts(content []byte) []uint32 {
	starts := []uint32{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, uint32(i+1)) //nolint:gosec // file size is checked by FileSet.Add
		}
	}
	return starts
}

// normalizePath cleans paths; core and fragment names such as
// "<fragment 2>" are kept as given.
func normalizePath(p string, flags FileFlags) string {
	if flags&(FileCore|FileFragment) != 0 {
		return p
	}
	return filepath.ToSlash(filepath.Clean(p))
}
