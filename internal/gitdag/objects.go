package gitdag

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/klauspost/compress/zlib"
	"github.com/multiformats/go-multihash"
)

// ObjectStore reads loose objects from a .git/objects directory. Objects are
// content-addressed: the file objects/aa/bb... holds the zlib-compressed
// bytes "commit <len>\x00<body>" whose SHA-1 is aabb... The store is a pure
// reader; nothing is ever written.
type ObjectStore struct {
	fs  billy.Filesystem
	dir string
}

// NewObjectStore creates an ObjectStore over the given objects directory.
func NewObjectStore(fs billy.Filesystem, dir string) *ObjectStore {
	return &ObjectStore{fs: fs, dir: dir}
}

func (s *ObjectStore) objectPath(id plumbing.Hash) string {
	hex := id.String()
	return s.fs.Join(s.dir, hex[:2], hex[2:])
}

// Has reports whether an object exists for the given identifier.
func (s *ObjectStore) Has(id plumbing.Hash) bool {
	_, err := s.fs.Stat(s.objectPath(id))
	return err == nil
}

// LoadCommit reads, decompresses, verifies, and parses the commit object for
// id, returning its parent identifiers in object order.
func (s *ObjectStore) LoadCommit(id plumbing.Hash) (*CommitObject, error) {
	f, err := s.fs.Open(s.objectPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ObjectNotFoundError{ID: id}
		}
		return nil, fmt.Errorf("open object %s: %w", id, err)
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return nil, &CorruptObjectError{ID: id, Reason: "not a zlib stream", Err: err}
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, &CorruptObjectError{ID: id, Reason: "truncated zlib stream", Err: err}
	}

	if err := verifyObjectID(id, data); err != nil {
		return nil, err
	}

	parents, err := parseCommit(id, data)
	if err != nil {
		return nil, err
	}
	return &CommitObject{ID: id, Parents: parents}, nil
}

// verifyObjectID recomputes the SHA-1 of the decompressed object and checks
// it against the identifier the object was loaded under.
func verifyObjectID(id plumbing.Hash, data []byte) error {
	mh, err := multihash.Sum(data, multihash.SHA1, -1)
	if err != nil {
		return fmt.Errorf("hash object %s: %w", id, err)
	}
	dec, err := multihash.Decode(mh)
	if err != nil {
		return fmt.Errorf("decode multihash for %s: %w", id, err)
	}
	if !bytes.Equal(dec.Digest, id[:]) {
		return &CorruptObjectError{ID: id, Reason: "content does not hash to object id"}
	}
	return nil
}

// parseCommit extracts the parent identifiers from a decompressed object.
// Layout: "<type> <len>\x00<header lines>\n\n<message>". The header block is
// "key value" lines; every "parent" line names one parent, and merge commits
// carry several.
func parseCommit(id plumbing.Hash, data []byte) ([]plumbing.Hash, error) {
	nul := bytes.IndexByte(data, 0)
	if nul < 0 {
		return nil, &MalformedCommitError{ID: id, Reason: "no NUL-terminated object header"}
	}
	header, body := data[:nul], data[nul+1:]

	typ, lenStr, ok := bytes.Cut(header, []byte(" "))
	if !ok {
		return nil, &MalformedCommitError{ID: id, Reason: "unparseable object header"}
	}
	if string(typ) != "commit" {
		return nil, &MalformedCommitError{ID: id, Reason: fmt.Sprintf("object is a %s, not a commit", typ)}
	}
	size, err := strconv.Atoi(string(lenStr))
	if err != nil || size != len(body) {
		return nil, &MalformedCommitError{ID: id, Reason: "declared length does not match body"}
	}

	var parents []plumbing.Hash
	sawHeader := false
	for _, line := range bytes.Split(body, []byte("\n")) {
		if len(line) == 0 {
			break // blank line ends the header block, message follows
		}
		key, value, _ := bytes.Cut(line, []byte(" "))
		switch string(key) {
		case "tree", "author", "committer":
			sawHeader = true
		case "parent":
			sawHeader = true
			if !plumbing.IsHash(string(value)) {
				return nil, &MalformedCommitError{ID: id, Reason: fmt.Sprintf("invalid parent identifier %q", value)}
			}
			parents = append(parents, plumbing.NewHash(string(value)))
		}
	}
	if !sawHeader {
		return nil, &MalformedCommitError{ID: id, Reason: "no recognizable commit header block"}
	}
	return parents, nil
}
