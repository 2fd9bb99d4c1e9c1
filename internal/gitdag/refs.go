package gitdag

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing"
)

const packedRefsHeadPrefix = "refs/heads/"

// RefStore resolves branch heads from a .git directory: one loose file per
// branch under refs/heads/ (branch names may contain slashes), plus any
// entries in the consolidated packed-refs table. Loose refs shadow packed
// ones for the same branch.
type RefStore struct {
	fs     billy.Filesystem
	gitDir string
	store  *ObjectStore
}

// NewRefStore creates a RefStore over gitDir, using store to check that
// resolved identifiers actually have objects behind them.
func NewRefStore(fs billy.Filesystem, gitDir string, store *ObjectStore) *RefStore {
	return &RefStore{fs: fs, gitDir: gitDir, store: store}
}

// ListBranchHeads returns every branch head as a mapping from commit
// identifier to the branch names pointing at it. Two branches at the same
// commit share one entry; name lists are sorted.
func (r *RefStore) ListBranchHeads() (map[plumbing.Hash][]string, error) {
	tips := make(map[string]plumbing.Hash)

	if err := r.readPackedRefs(tips); err != nil {
		return nil, err
	}
	if err := r.readLooseRefs(tips); err != nil {
		return nil, err
	}

	heads := make(map[plumbing.Hash][]string, len(tips))
	for branch, id := range tips {
		heads[id] = append(heads[id], branch)
	}
	for _, names := range heads {
		sort.Strings(names)
	}

	// Check resolvability in branch-name order so the same branch is blamed
	// on every run.
	branches := make([]string, 0, len(tips))
	for branch := range tips {
		branches = append(branches, branch)
	}
	sort.Strings(branches)
	for _, branch := range branches {
		if !r.store.Has(tips[branch]) {
			return nil, &RefResolutionError{
				Branch: branch,
				Reason: fmt.Sprintf("no object for commit %s", tips[branch]),
			}
		}
	}
	return heads, nil
}

// readLooseRefs walks refs/heads/ and records one tip per file found.
func (r *RefStore) readLooseRefs(tips map[string]plumbing.Hash) error {
	headsDir := r.fs.Join(r.gitDir, "refs", "heads")
	return util.Walk(r.fs, headsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == headsDir {
				return nil
			}
			return fmt.Errorf("walk refs: %w", err)
		}
		if info.IsDir() {
			return nil
		}
		branch := branchName(headsDir, path)
		data, err := util.ReadFile(r.fs, path)
		if err != nil {
			return fmt.Errorf("read ref %s: %w", branch, err)
		}
		content := strings.TrimSpace(string(data))
		if !plumbing.IsHash(content) {
			return &RefResolutionError{Branch: branch, Reason: fmt.Sprintf("content %q is not a commit identifier", content)}
		}
		tips[branch] = plumbing.NewHash(content)
		return nil
	})
}

// readPackedRefs parses the packed-refs table if one exists. Comment lines
// start with '#'; '^' lines carry peeled tag targets and never apply to
// branches.
func (r *RefStore) readPackedRefs(tips map[string]plumbing.Hash) error {
	data, err := util.ReadFile(r.fs, r.fs.Join(r.gitDir, "packed-refs"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read packed-refs: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "^") {
			continue
		}
		id, ref, ok := strings.Cut(line, " ")
		if !ok || !strings.HasPrefix(ref, packedRefsHeadPrefix) {
			continue
		}
		branch := strings.TrimPrefix(ref, packedRefsHeadPrefix)
		if !plumbing.IsHash(id) {
			return &RefResolutionError{Branch: branch, Reason: fmt.Sprintf("packed-refs entry %q is not a commit identifier", id)}
		}
		tips[branch] = plumbing.NewHash(id)
	}
	return nil
}

// branchName recovers "feature/x" from ".git/refs/heads/feature/x".
func branchName(headsDir, path string) string {
	rel, err := filepath.Rel(headsDir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
