package gitdag

import (
	"errors"
	"reflect"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
)

func TestListBranchHeads_Loose(t *testing.T) {
	f := newFixture(t)
	c1 := f.writeCommit()
	c2 := f.writeCommit(c1)
	f.branch("main", c2)
	f.branch("feature/deep/name", c1)

	heads, err := f.open().Refs.ListBranchHeads()
	if err != nil {
		t.Fatalf("ListBranchHeads: %v", err)
	}
	want := map[plumbing.Hash][]string{
		c2: {"main"},
		c1: {"feature/deep/name"},
	}
	if !reflect.DeepEqual(heads, want) {
		t.Errorf("heads = %v, want %v", heads, want)
	}
}

func TestListBranchHeads_SharedTip(t *testing.T) {
	f := newFixture(t)
	c1 := f.writeCommit()
	f.branch("zulu", c1)
	f.branch("alpha", c1)

	heads, err := f.open().Refs.ListBranchHeads()
	if err != nil {
		t.Fatalf("ListBranchHeads: %v", err)
	}
	if len(heads) != 1 {
		t.Fatalf("got %d entries, want 1", len(heads))
	}
	if got, want := heads[c1], []string{"alpha", "zulu"}; !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v (sorted)", got, want)
	}
}

func TestListBranchHeads_PackedRefs(t *testing.T) {
	f := newFixture(t)
	c1 := f.writeCommit()
	c2 := f.writeCommit(c1)
	c3 := f.writeCommit(c2)
	f.packedRefs(
		c1.String()+" refs/heads/packed-only",
		c1.String()+" refs/heads/shadowed",
		c2.String()+" refs/tags/v1.0",
		"^"+c1.String(),
	)
	f.branch("shadowed", c3) // loose wins over packed

	heads, err := f.open().Refs.ListBranchHeads()
	if err != nil {
		t.Fatalf("ListBranchHeads: %v", err)
	}
	want := map[plumbing.Hash][]string{
		c1: {"packed-only"},
		c3: {"shadowed"},
	}
	if !reflect.DeepEqual(heads, want) {
		t.Errorf("heads = %v, want %v", heads, want)
	}
}

func TestListBranchHeads_BadContent(t *testing.T) {
	f := newFixture(t)
	f.writeBytes(f.fs.Join(f.gitDir, "refs", "heads", "broken"), []byte("ref: refs/heads/other\n"))

	_, err := f.open().Refs.ListBranchHeads()
	var refErr *RefResolutionError
	if !errors.As(err, &refErr) {
		t.Fatalf("err = %v, want RefResolutionError", err)
	}
	if refErr.Branch != "broken" {
		t.Errorf("error names branch %q, want %q", refErr.Branch, "broken")
	}
}

func TestListBranchHeads_DanglingBranch(t *testing.T) {
	f := newFixture(t)
	f.branch("dangling", hash(t, "ab"))

	_, err := f.open().Refs.ListBranchHeads()
	var refErr *RefResolutionError
	if !errors.As(err, &refErr) {
		t.Fatalf("err = %v, want RefResolutionError", err)
	}
	if refErr.Branch != "dangling" {
		t.Errorf("error names branch %q, want %q", refErr.Branch, "dangling")
	}
}

func TestListBranchHeads_Empty(t *testing.T) {
	f := newFixture(t)
	heads, err := f.open().Refs.ListBranchHeads()
	if err != nil {
		t.Fatalf("ListBranchHeads: %v", err)
	}
	if len(heads) != 0 {
		t.Errorf("heads = %v, want empty", heads)
	}
}
