package jsonlite

import (
	"crypto/md5"  //nolint:gosec // MD5 is a required, documented digest of the payload format, not used for security.
	"crypto/sha1" //nolint:gosec // SHA-1 is a required, documented digest of the payload format.
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ContentStore writes payload bytes through a hashing tee into the
// container's file tree, resolving name collisions deterministically.
// It mirrors pyjsonlite's store_file/load_file plus HashedFile.
type ContentStore struct {
	root string
}

// NewContentStore returns a ContentStore rooted at root. root must exist.
func NewContentStore(root string) *ContentStore {
	return &ContentStore{root: filepath.Clean(root)}
}

// resolve joins a container-relative path onto the root and verifies the
// result does not escape it.
func (c *ContentStore) resolve(relPath string) (string, error) {
	full := filepath.Join(c.root, relPath)
	if full != c.root && !strings.HasPrefix(full, c.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutOfRoot, relPath)
	}
	return full, nil
}

// HashedWriter hashes every byte written to it with MD5 and SHA-1
// concurrently, closing the underlying file exactly once.
type HashedWriter struct {
	Path string // final, container-relative path

	file    *os.File
	md5     hash.Hash
	sha1    hash.Hash
	tee     io.Writer
	size    int64
	closed  bool
	hashes  map[string]string
	hashErr error
}

func newHashedWriter(path string, f *os.File) *HashedWriter {
	w := &HashedWriter{Path: path, file: f, md5: md5.New(), sha1: sha1.New()} //nolint:gosec
	w.tee = io.MultiWriter(w.md5, w.sha1, f)
	return w
}

// Write implements io.Writer, hashing data as it is written.
func (w *HashedWriter) Write(p []byte) (int, error) {
	n, err := w.tee.Write(p)
	w.size += int64(n)
	return n, err
}

// Size returns the number of bytes written so far.
func (w *HashedWriter) Size() int64 {
	return w.size
}

// Close closes the underlying file. Only the first call closes it; later
// calls are no-ops that return nil. The scoped acquisition in forensicstore's Add*Item* helpers guarantees this
// happens on every exit path, including error, per spec.md §9.
func (w *HashedWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// Hashes returns the lowercase-hex MD5 and SHA-1 digests of everything
// written so far, keyed the way records store them ("MD5", "SHA-1").
func (w *HashedWriter) Hashes() map[string]string {
	return map[string]string{
		"MD5":   hex.EncodeToString(w.md5.Sum(nil)),
		"SHA-1": hex.EncodeToString(w.sha1.Sum(nil)),
	}
}

// Store opens a writer under the container root for desiredPath. If
// desiredPath already exists, final_path is derived by inserting _0, _1,
// ... before the extension until a name is free. Writes are
// exclusive-create (O_EXCL): two concurrent Store calls racing on the same
// base name are guaranteed to land on distinct final paths instead of
// corrupting one another, because the loop below re-probes with O_EXCL on
// every collision rather than trusting a prior existence check.
func (c *ContentStore) Store(desiredPath string) (finalPath string, writer *HashedWriter, err error) {
	full, err := c.resolve(desiredPath)
	if err != nil {
		return "", nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", nil, wrapBackend("store: mkdir", err)
	}

	ext := filepath.Ext(desiredPath)
	base := strings.TrimSuffix(desiredPath, ext)

	candidate := desiredPath
	candidateFull := full
	for i := 0; ; i++ {
		f, openErr := os.OpenFile(candidateFull, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
		if openErr == nil {
			return candidate, newHashedWriter(candidate, f), nil
		}
		if !os.IsExist(openErr) {
			return "", nil, wrapBackend("store: create", openErr)
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
		candidateFull, err = c.resolve(candidate)
		if err != nil {
			return "", nil, err
		}
	}
}

// Load opens a read handle under the container root.
func (c *ContentStore) Load(relPath string) (io.ReadCloser, error) {
	full, err := c.resolve(relPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, wrapBackend("load", err)
	}
	return f, nil
}

// Exists reports whether relPath names an existing regular file under the
// container root.
func (c *ContentStore) Exists(relPath string) bool {
	full, err := c.resolve(relPath)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && !info.IsDir()
}

// Size returns the byte length of relPath.
func (c *ContentStore) Size(relPath string) (int64, error) {
	full, err := c.resolve(relPath)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return 0, wrapBackend("size", err)
	}
	return info.Size(), nil
}

// Digest computes the given hash algorithm's hex digest of relPath's
// contents. Only "MD5" and "SHA-1" are supported, per spec.md §6.
func (c *ContentStore) Digest(relPath, algorithm string) (string, error) {
	full, err := c.resolve(relPath)
	if err != nil {
		return "", err
	}
	f, err := os.Open(full)
	if err != nil {
		return "", wrapBackend("digest", err)
	}
	defer f.Close()

	var h hash.Hash
	switch algorithm {
	case "MD5":
		h = md5.New() //nolint:gosec
	case "SHA-1":
		h = sha1.New() //nolint:gosec
	default:
		return "", fmt.Errorf("jsonlite: unsupported hash algorithm %q", algorithm)
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", wrapBackend("digest", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
