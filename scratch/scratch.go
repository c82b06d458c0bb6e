// Package scratch stages uploaded assets on disk for the duration of a single
// request. Every upload lives in its own uuid-named directory under the store
// root, so concurrent requests with the same client filename never share a
// path, and releasing an upload removes everything derived from it.
package scratch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/schollz/logger"
)

// Store is the shared scratch root.
type Store struct {
	root string
}

// NewStore creates the root directory if needed.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch root %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

// Root returns the directory the store stages uploads under.
func (s *Store) Root() string { return s.root }

// Upload is one staged asset plus any files derived from it.
type Upload struct {
	dir  string
	path string
}

// Stage writes r to <root>/<uuid>/<base(filename)>. On error nothing is left
// behind.
func (s *Store) Stage(filename string, r io.Reader) (*Upload, error) {
	dir := filepath.Join(s.root, uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create request dir: %w", err)
	}
	u := &Upload{dir: dir, path: filepath.Join(dir, SafeName(filename))}

	f, err := os.OpenFile(u.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		u.Release()
		return nil, fmt.Errorf("create scratch file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		u.Release()
		return nil, fmt.Errorf("write scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		u.Release()
		return nil, fmt.Errorf("close scratch file: %w", err)
	}
	log.Debugf("file saved to %s", u.path)
	return u, nil
}

// Path is the staged asset.
func (u *Upload) Path() string { return u.path }

// Derive returns a sibling path for a converted copy with the given
// extension (".wav"). It never collides with the staged asset itself.
func (u *Upload) Derive(ext string) string {
	base := filepath.Base(u.path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := stem + ext
	// case-insensitive filesystems treat take.WAV and take.wav as one file
	if strings.EqualFold(name, base) {
		name = stem + ".converted" + ext
	}
	return filepath.Join(u.dir, name)
}

// Release removes the request directory and everything in it. Safe to call
// more than once.
func (u *Upload) Release() {
	if u == nil || u.dir == "" {
		return
	}
	if err := os.RemoveAll(u.dir); err != nil {
		log.Errorf("remove scratch dir %s: %v", u.dir, err)
		return
	}
	log.Debugf("file deleted: %s", u.path)
	u.dir = ""
}

// SafeName reduces a client-declared filename to a single path element.
func SafeName(filename string) string {
	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(filename, `\`, "/")))
	if name == "/" || name == "." || name == ".." || strings.TrimSpace(name) == "" {
		return "upload"
	}
	return name
}
