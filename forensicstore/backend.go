package forensicstore

import (
	"io"
	"os"
	"path/filepath"
)

// Backend is the minimal filesystem seam the Container Orchestrator
// operates through, mirroring pyjsonlite's pyfilesystem2-backed
// getinfo/listdir/makedir/openbin/remove/removedir passthroughs. Only a
// local, os-backed implementation ships; a remote backend is an external,
// out-of-scope concern (no network access per spec.md's Non-goals) and can
// be plugged in externally against this interface without touching the
// engine.
type Backend interface {
	Stat(name string) (os.FileInfo, error)
	ReadDir(name string) ([]os.DirEntry, error)
	MkdirAll(name string) error
	Open(name string) (io.ReadCloser, error)
	Create(name string) (io.WriteCloser, error)
	Remove(name string) error
	RemoveAll(name string) error
}

// localBackend resolves every name against root and operates on the local
// filesystem. It is the only Backend this engine ships.
type localBackend struct {
	root string
}

func newLocalBackend(root string) *localBackend {
	return &localBackend{root: root}
}

func (b *localBackend) path(name string) string {
	return filepath.Join(b.root, name)
}

func (b *localBackend) Stat(name string) (os.FileInfo, error) {
	return os.Stat(b.path(name))
}

func (b *localBackend) ReadDir(name string) ([]os.DirEntry, error) {
	return os.ReadDir(b.path(name))
}

func (b *localBackend) MkdirAll(name string) error {
	return os.MkdirAll(b.path(name), 0o755)
}

func (b *localBackend) Open(name string) (io.ReadCloser, error) {
	return os.Open(b.path(name))
}

func (b *localBackend) Create(name string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(b.path(name)), 0o755); err != nil {
		return nil, err
	}
	return os.Create(b.path(name))
}

func (b *localBackend) Remove(name string) error {
	return os.Remove(b.path(name))
}

func (b *localBackend) RemoveAll(name string) error {
	return os.RemoveAll(b.path(name))
}
