package swarmstore

import (
	"context"
	"testing"
)

func TestMemoryGetReflectsUpdate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, found, err := m.Get(ctx, []byte("k")); err != nil || found {
		t.Fatalf("want absent, got found=%v err=%v", found, err)
	}
	if err := m.Update(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("update: %v", err)
	}
	v, found, err := m.Get(ctx, []byte("k"))
	if err != nil || !found || string(v) != "v" {
		t.Fatalf("want v, got %s found=%v err=%v", v, found, err)
	}
}

func TestMemoryDeleteRemovesKey(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Update(ctx, []byte("k"), []byte("v"))
	if err := m.Delete(ctx, []byte("k")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := m.Get(ctx, []byte("k")); found {
		t.Fatalf("key should be gone after delete")
	}
}

func TestMemoryCommitChangesRootAndRecordsMetadata(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rootBefore, _ := m.Root(ctx)

	_ = m.Update(ctx, []byte("k"), []byte("v"))
	root, err := m.Commit(ctx, CommitMetadata{Height: 1, Start: 0})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if root == rootBefore {
		t.Fatalf("root must change after committing a mutation")
	}

	meta, err := m.Metadata(ctx)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta != (CommitMetadata{Height: 1, Start: 0}) {
		t.Fatalf("want {1,0}, got %+v", meta)
	}
}

func TestMemoryOpCountIncrementsPerMutation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	start, _ := m.OpCount(ctx)

	_ = m.Update(ctx, []byte("a"), []byte("1"))
	_ = m.Update(ctx, []byte("b"), []byte("2"))
	_ = m.Delete(ctx, []byte("a"))

	end, _ := m.OpCount(ctx)
	if end-start != 3 {
		t.Fatalf("want 3 ops recorded, got %d", end-start)
	}
}

func TestMemoryCommitIsDeterministicRegardlessOfInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m1 := NewMemory()
	_ = m1.Update(ctx, []byte("a"), []byte("1"))
	_ = m1.Update(ctx, []byte("b"), []byte("2"))
	root1, _ := m1.Commit(ctx, CommitMetadata{Height: 1})

	m2 := NewMemory()
	_ = m2.Update(ctx, []byte("b"), []byte("2"))
	_ = m2.Update(ctx, []byte("a"), []byte("1"))
	root2, _ := m2.Commit(ctx, CommitMetadata{Height: 1})

	if root1 != root2 {
		t.Fatalf("root must not depend on insertion order")
	}
}
