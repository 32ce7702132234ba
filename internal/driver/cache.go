package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"quill/internal/corelib"
	"quill/internal/rir"
	"quill/internal/source"
)

// Current schema version - increment when the cached program layout changes
const cacheSchemaVersion uint16 = 1

// CacheKey is the sha256 of everything that decides the compiled program.
type CacheKey [sha256.Size]byte

func (k CacheKey) String() string { return hex.EncodeToString(k[:]) }

// Cache stores compiled RIR programs on disk, msgpack-encoded.
// Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

type cachePayload struct {
	Schema  uint16
	Core    string
	Program *rir.Program
}

// OpenCache returns the cache under $XDG_CACHE_HOME/app (or ~/.cache/app).
func OpenCache(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewCache(filepath.Join(base, app))
}

// NewCache uses dir, creating it when missing.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// Key hashes the sources in order together with the options that shape
// the program and the core library version.
func Key(files []*source.File, opts Options) CacheKey {
	h := sha256.New()
	var buf [8]byte
	write := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		_, _ = h.Write(buf[:])
		_, _ = h.Write([]byte(s))
	}
	write(corelib.Version)
	write(opts.Profile.Name)
	write(opts.Entry)
	binary.LittleEndian.PutUint64(buf[:], uint64(opts.LoopLimit))
	_, _ = h.Write(buf[:])
	for _, f := range files {
		write(f.Path)
		write(string(f.Content))
	}
	var out CacheKey
	copy(out[:], h.Sum(nil))
	return out
}

func (c *Cache) pathFor(key CacheKey) string {
	hexKey := key.String()
	// два уровня каталогов, чтобы не копить тысячи файлов в одном
	return filepath.Join(c.dir, "rir", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a program to the cache.
func (c *Cache) Put(key CacheKey, prog *rir.Program) error {
	if c == nil || prog == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(&cachePayload{Schema: cacheSchemaVersion, Core: corelib.Version, Program: prog}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads a program back. Entries written by another schema or core
// version count as misses.
func (c *Cache) Get(key CacheKey) (*rir.Program, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()
	var payload cachePayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, err
	}
	if payload.Schema != cacheSchemaVersion || payload.Core != corelib.Version || payload.Program == nil {
		return nil, false, nil
	}
	payload.Program.Resync()
	return payload.Program, true, nil
}

// DropAll removes every cached program.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// EncodeProgram is the msgpack form written by `quill build --emit msgpack`.
func EncodeProgram(prog *rir.Program) ([]byte, error) {
	return msgpack.Marshal(&cachePayload{Schema: cacheSchemaVersion, Core: corelib.Version, Program: prog})
}

// DecodeProgram reverses EncodeProgram.
func DecodeProgram(data []byte) (*rir.Program, error) {
	var payload cachePayload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.Program == nil {
		return nil, errors.New("msgpack payload holds no program")
	}
	payload.Program.Resync()
	return payload.Program, nil
}
