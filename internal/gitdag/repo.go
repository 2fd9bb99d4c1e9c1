package gitdag

import (
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Repository is the read-only handle for one repository snapshot. It owns
// the object store and ref store and is passed explicitly wherever needed,
// so tests can run whole pipelines against in-memory filesystems.
type Repository struct {
	gitDir string
	Store  *ObjectStore
	Refs   *RefStore
}

// Discover walks upward from start until a directory containing .git is
// found, then opens it. Reaching the filesystem root without one fails with
// NotARepositoryError.
func Discover(fs billy.Filesystem, start string) (*Repository, error) {
	dir := filepath.Clean(start)
	for {
		gitDir := fs.Join(dir, ".git")
		if info, err := fs.Stat(gitDir); err == nil && info.IsDir() {
			return Open(fs, gitDir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, &NotARepositoryError{Start: start}
		}
		dir = parent
	}
}

// Open opens the repository whose metadata directory is gitDir. The objects
// and refs/heads directories must exist; anything else is not a usable
// repository.
func Open(fs billy.Filesystem, gitDir string) (*Repository, error) {
	for _, sub := range []string{
		fs.Join(gitDir, "objects"),
		fs.Join(gitDir, "refs", "heads"),
	} {
		info, err := fs.Stat(sub)
		if err != nil || !info.IsDir() {
			return nil, &NotARepositoryError{Start: gitDir}
		}
	}

	store := NewObjectStore(fs, fs.Join(gitDir, "objects"))
	return &Repository{
		gitDir: gitDir,
		Store:  store,
		Refs:   NewRefStore(fs, gitDir, store),
	}, nil
}

// GitDir returns the path of the repository metadata directory.
func (r *Repository) GitDir() string { return r.gitDir }

// TopoOrder runs the whole pipeline: resolve branch heads, build the
// reachable graph, and sort it. A repository with no branches yields an
// empty order and an empty graph.
func (r *Repository) TopoOrder() ([]plumbing.Hash, Graph, error) {
	heads, err := r.Refs.ListBranchHeads()
	if err != nil {
		return nil, nil, err
	}
	graph, err := BuildGraph(r.Store, heads)
	if err != nil {
		return nil, nil, err
	}
	order, err := TopoSort(graph)
	if err != nil {
		return nil, nil, err
	}
	return order, graph, nil
}
