package source

import (
	"fmt"
	"os"
	"sort"

	"fortio.org/safecast"
)

// File is one source text. Spans refer to it by ID.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	Flags   FileFlags
	// offset of the first byte of every line; starts[0] == 0
	starts []uint32
}

// Lines reports how many lines the file has; an empty file has one.
func (f *File) Lines() int { return len(f.starts) }

// Line returns the 1-based line n without its newline, or "" past the end.
func (f *File) Line(n uint32) string {
	if n == 0 || int(n) > len(f.starts) {
		return ""
	}
	start := f.starts[n-1]
	end := uint32(len(f.Content)) //nolint:gosec // checked in Add
	if int(n) < len(f.starts) {
		end = f.starts[n] - 1
	}
	return string(f.Content[start:end])
}

// Position maps a byte offset to a line and column. Offsets past the end
// land on the last line.
func (f *File) Position(off uint32) LineCol {
	line := sort.Search(len(f.starts), func(i int) bool { return f.starts[i] > off }) - 1
	return LineCol{Line: uint32(line + 1), Col: off - f.starts[line] + 1} //nolint:gosec // bounded by len(starts)
}

// FileSet owns the files of one compilation or session. FileIDs are
// dense and never reused.
type FileSet struct {
	files []*File
}

func NewFileSet() *FileSet {
	return &FileSet{}
}

// Add stores content under path and returns its id. Adding the same path
// twice yields two files.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("file %s too large: %w", path, err))
	}
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("too many files: %w", err))
	}
	f := &File{
		ID:      FileID(n),
		Path:    normalizePath(path, flags),
		Content: content,
		Flags:   flags,
		starts:  lineStarts(content),
	}
	fs.files = append(fs.files, f)
	return f.ID
}

// Load reads path from disk, strips a UTF-8 BOM and turns CRLF into LF.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, flags := normalize(content)
	return fs.Add(path, content, flags), nil
}

// AddVirtual adds an in-memory file such as a test snippet.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.Add(name, content, FileVirtual)
}

// Get returns the file with id, or nil.
func (fs *FileSet) Get(id FileID) *File {
	if int(id) >= len(fs.files) {
		return nil
	}
	return fs.files[id]
}

func (fs *FileSet) Len() int {
	return len(fs.files)
}

// Resolve converts span into start and end positions. Unknown files
// resolve to zero positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return f.Position(span.Start), f.Position(span.End)
}
