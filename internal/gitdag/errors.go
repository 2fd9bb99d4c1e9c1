package gitdag

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
)

// NotARepositoryError reports that no usable .git directory was found at or
// above the starting path.
type NotARepositoryError struct {
	Start string
}

func (e *NotARepositoryError) Error() string {
	return fmt.Sprintf("not a git repository (or any parent up to root): %s", e.Start)
}

// ObjectNotFoundError reports a commit identifier with no object in the store.
type ObjectNotFoundError struct {
	ID plumbing.Hash
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("object not found: %s", e.ID)
}

// CorruptObjectError reports an object whose stored bytes cannot be
// decompressed, or whose content does not hash back to its identifier.
type CorruptObjectError struct {
	ID     plumbing.Hash
	Reason string
	Err    error
}

func (e *CorruptObjectError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt object %s: %s: %v", e.ID, e.Reason, e.Err)
	}
	return fmt.Sprintf("corrupt object %s: %s", e.ID, e.Reason)
}

func (e *CorruptObjectError) Unwrap() error { return e.Err }

// MalformedCommitError reports a decompressed object that is not a
// well-formed commit: wrong type, inconsistent length, or an unparseable
// parent line.
type MalformedCommitError struct {
	ID     plumbing.Hash
	Reason string
}

func (e *MalformedCommitError) Error() string {
	return fmt.Sprintf("malformed commit %s: %s", e.ID, e.Reason)
}

// RefResolutionError reports a branch reference whose content is not a
// commit identifier, or whose identifier has no object behind it. It names
// the offending branch so the failure is distinguishable from a later
// object-store miss during traversal.
type RefResolutionError struct {
	Branch string
	Reason string
}

func (e *RefResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve branch %q: %s", e.Branch, e.Reason)
}

// CycleDetectedError reports a parent chain that loops back on itself.
// Well-formed history is acyclic; this only fires on corrupted storage.
type CycleDetectedError struct {
	ID plumbing.Hash
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected in commit graph at %s", e.ID)
}
