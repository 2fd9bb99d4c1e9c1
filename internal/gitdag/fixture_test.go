package gitdag

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/klauspost/compress/zlib"
)

// fixture builds a synthetic repository on an in-memory filesystem: real
// zlib-compressed loose commit objects addressed by their actual SHA-1,
// loose branch files, and optionally a packed-refs table.
type fixture struct {
	t      *testing.T
	fs     billy.Filesystem
	gitDir string
	n      int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := memfs.New()
	f := &fixture{t: t, fs: fs, gitDir: "/repo/.git"}
	for _, dir := range []string{
		f.fs.Join(f.gitDir, "objects"),
		f.fs.Join(f.gitDir, "refs", "heads"),
	} {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("MkdirAll %s: %v", dir, err)
		}
	}
	return f
}

func (f *fixture) repoDir() string { return "/repo" }

func (f *fixture) open() *Repository {
	f.t.Helper()
	repo, err := Open(f.fs, f.gitDir)
	if err != nil {
		f.t.Fatalf("Open: %v", err)
	}
	return repo
}

// writeCommit stores one commit object with the given parents and returns
// its identifier. Message text varies per call so every commit hashes
// differently.
func (f *fixture) writeCommit(parents ...plumbing.Hash) plumbing.Hash {
	f.t.Helper()
	f.n++

	var body strings.Builder
	body.WriteString("tree " + strings.Repeat("0", 40) + "\n")
	for _, p := range parents {
		body.WriteString("parent " + p.String() + "\n")
	}
	body.WriteString("author Fixture <fixture@example.com> 1700000000 +0000\n")
	body.WriteString("committer Fixture <fixture@example.com> 1700000000 +0000\n")
	body.WriteString("\n")
	fmt.Fprintf(&body, "commit %d\n", f.n)

	raw := fmt.Sprintf("commit %d\x00%s", body.Len(), body.String())
	id := plumbing.Hash(sha1.Sum([]byte(raw)))
	f.writeRawObject(id, []byte(raw))
	return id
}

// writeRawObject compresses raw and stores it under id's object path,
// regardless of whether raw actually hashes to id.
func (f *fixture) writeRawObject(id plumbing.Hash, raw []byte) {
	f.t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		f.t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		f.t.Fatalf("zlib close: %v", err)
	}
	f.writeBytes(f.objectPath(id), buf.Bytes())
}

func (f *fixture) objectPath(id plumbing.Hash) string {
	hex := id.String()
	return f.fs.Join(f.gitDir, "objects", hex[:2], hex[2:])
}

func (f *fixture) writeBytes(path string, data []byte) {
	f.t.Helper()
	if err := f.fs.MkdirAll(f.fs.Join(path, ".."), 0755); err != nil {
		f.t.Fatalf("MkdirAll for %s: %v", path, err)
	}
	if err := util.WriteFile(f.fs, path, data, 0644); err != nil {
		f.t.Fatalf("WriteFile %s: %v", path, err)
	}
}

func (f *fixture) branch(name string, id plumbing.Hash) {
	f.t.Helper()
	f.writeBytes(f.fs.Join(f.gitDir, "refs", "heads", name), []byte(id.String()+"\n"))
}

func (f *fixture) packedRefs(lines ...string) {
	f.t.Helper()
	content := "# pack-refs with: peeled fully-peeled sorted\n" + strings.Join(lines, "\n") + "\n"
	f.writeBytes(f.fs.Join(f.gitDir, "packed-refs"), []byte(content))
}

// stubLoader serves commits from memory, for graph shapes (like cycles) that
// a content-addressed store cannot represent.
type stubLoader map[plumbing.Hash]*CommitObject

func (s stubLoader) LoadCommit(id plumbing.Hash) (*CommitObject, error) {
	obj, ok := s[id]
	if !ok {
		return nil, &ObjectNotFoundError{ID: id}
	}
	return obj, nil
}

// sha1ID returns the identifier a raw object would be stored under.
func sha1ID(raw []byte) plumbing.Hash {
	return plumbing.Hash(sha1.Sum(raw))
}

// hash builds an identifier from a short hex prefix, zero-padded on the
// right, so tests can write readable ids like "c6" with a known ordering.
func hash(t *testing.T, prefix string) plumbing.Hash {
	t.Helper()
	if len(prefix)%2 != 0 || len(prefix) > 40 {
		t.Fatalf("hash prefix %q must be even-length hex", prefix)
	}
	return plumbing.NewHash(prefix + strings.Repeat("0", 40-len(prefix)))
}
