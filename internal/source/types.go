package source

type (
	// FileID indexes a file in its FileSet.
	FileID uint32
	FileFlags uint8
)

const (
	// FileVirtual: added from memory rather than read from disk.
	FileVirtual FileFlags = 1 << iota
	// FileCore: part of the embedded core library.
	FileCore
	// FileFragment: one interactive session fragment.
	FileFragment
	FileHadBOM
	FileNormalizedCRLF
)

// LineCol is a 1-based position. Col counts bytes.
type LineCol struct {
	Line uint32
	Col  uint32
}
