// Package storetest checks a store.Backend against the behaviour every
// backend must share.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/Jayphen/todone/internal/store"
)

// Run exercises the backend returned by open. open is called once per subtest
// and must return an empty backend.
func Run(t *testing.T, open func(t *testing.T) store.Backend) {
	t.Helper()

	t.Run("InsertGet", func(t *testing.T) { testInsertGet(t, open(t)) })
	t.Run("InsertDuplicate", func(t *testing.T) { testInsertDuplicate(t, open(t)) })
	t.Run("ReplaceMissing", func(t *testing.T) { testReplaceMissing(t, open(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, open(t)) })
	t.Run("ScanIsolatesTables", func(t *testing.T) { testScanIsolatesTables(t, open(t)) })
	t.Run("BatchCommit", func(t *testing.T) { testBatchCommit(t, open(t)) })
	t.Run("BatchRollback", func(t *testing.T) { testBatchRollback(t, open(t)) })
	t.Run("BatchReadsOwnWrites", func(t *testing.T) { testBatchReadsOwnWrites(t, open(t)) })
}

func testInsertGet(t *testing.T, b store.Backend) {
	ctx := context.Background()

	if _, err := b.Get(ctx, store.TableTasks, "t1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get on empty backend: err = %v, want ErrNotFound", err)
	}
	if err := b.Insert(ctx, store.TableTasks, "t1", []byte(`{"id":"t1"}`)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	doc, err := b.Get(ctx, store.TableTasks, "t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(doc) != `{"id":"t1"}` {
		t.Errorf("doc = %s", doc)
	}

	if err := b.Replace(ctx, store.TableTasks, "t1", []byte(`{"id":"t1","v":2}`)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	doc, _ = b.Get(ctx, store.TableTasks, "t1")
	if string(doc) != `{"id":"t1","v":2}` {
		t.Errorf("doc after replace = %s", doc)
	}
}

func testInsertDuplicate(t *testing.T, b store.Backend) {
	ctx := context.Background()
	if err := b.Insert(ctx, store.TableLabels, "l1", []byte(`{}`)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := b.Insert(ctx, store.TableLabels, "l1", []byte(`{}`)); !errors.Is(err, store.ErrExists) {
		t.Errorf("second Insert: err = %v, want ErrExists", err)
	}
	// Same id in another table is a different record.
	if err := b.Insert(ctx, store.TableFilters, "l1", []byte(`{}`)); err != nil {
		t.Errorf("Insert into other table: %v", err)
	}
}

func testReplaceMissing(t *testing.T, b store.Backend) {
	err := b.Replace(context.Background(), store.TableTasks, "ghost", []byte(`{}`))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Replace: err = %v, want ErrNotFound", err)
	}
}

func testDelete(t *testing.T, b store.Backend) {
	ctx := context.Background()
	_ = b.Insert(ctx, store.TableTasks, "t1", []byte(`{}`))

	if err := b.Delete(ctx, store.TableTasks, "t1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := b.Get(ctx, store.TableTasks, "t1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get after Delete: err = %v", err)
	}
	if err := b.Delete(ctx, store.TableTasks, "t1"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func testScanIsolatesTables(t *testing.T, b store.Backend) {
	ctx := context.Background()
	_ = b.Insert(ctx, store.TableTasks, "a", []byte(`"a"`))
	_ = b.Insert(ctx, store.TableTasks, "b", []byte(`"b"`))
	_ = b.Insert(ctx, store.TableProjects, "p", []byte(`"p"`))

	docs, err := b.Scan(ctx, store.TableTasks)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("Scan(tasks) returned %d docs, want 2", len(docs))
	}
	docs, _ = b.Scan(ctx, store.TableLabels)
	if len(docs) != 0 {
		t.Errorf("Scan(labels) returned %d docs, want 0", len(docs))
	}
}

func testBatchCommit(t *testing.T, b store.Backend) {
	ctx := context.Background()
	_ = b.Insert(ctx, store.TableTasks, "old", []byte(`"old"`))

	err := b.Batch(ctx, func(tx store.Backend) error {
		if err := tx.Insert(ctx, store.TableTasks, "new", []byte(`"new"`)); err != nil {
			return err
		}
		return tx.Delete(ctx, store.TableTasks, "old")
	})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}

	if _, err := b.Get(ctx, store.TableTasks, "new"); err != nil {
		t.Errorf("new record missing after commit: %v", err)
	}
	if _, err := b.Get(ctx, store.TableTasks, "old"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("old record still present after commit: %v", err)
	}
}

func testBatchRollback(t *testing.T, b store.Backend) {
	ctx := context.Background()
	_ = b.Insert(ctx, store.TableTasks, "keep", []byte(`"v1"`))

	boom := errors.New("boom")
	err := b.Batch(ctx, func(tx store.Backend) error {
		if err := tx.Replace(ctx, store.TableTasks, "keep", []byte(`"v2"`)); err != nil {
			return err
		}
		if err := tx.Insert(ctx, store.TableTasks, "temp", []byte(`"t"`)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Batch: err = %v, want boom", err)
	}

	doc, _ := b.Get(ctx, store.TableTasks, "keep")
	if string(doc) != `"v1"` {
		t.Errorf("keep = %s after rollback, want \"v1\"", doc)
	}
	if _, err := b.Get(ctx, store.TableTasks, "temp"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("temp present after rollback: %v", err)
	}
}

func testBatchReadsOwnWrites(t *testing.T, b store.Backend) {
	ctx := context.Background()
	_ = b.Insert(ctx, store.TableTasks, "gone", []byte(`"g"`))

	err := b.Batch(ctx, func(tx store.Backend) error {
		if err := tx.Insert(ctx, store.TableTasks, "x", []byte(`"x"`)); err != nil {
			return err
		}
		if err := tx.Delete(ctx, store.TableTasks, "gone"); err != nil {
			return err
		}
		if doc, err := tx.Get(ctx, store.TableTasks, "x"); err != nil || string(doc) != `"x"` {
			t.Errorf("Get inside batch = %s, %v", doc, err)
		}
		if _, err := tx.Get(ctx, store.TableTasks, "gone"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("deleted record visible inside batch: %v", err)
		}
		if err := tx.Insert(ctx, store.TableTasks, "x", []byte(`"x"`)); !errors.Is(err, store.ErrExists) {
			t.Errorf("duplicate Insert inside batch: err = %v", err)
		}
		docs, err := tx.Scan(ctx, store.TableTasks)
		if err != nil {
			return err
		}
		if len(docs) != 1 || string(docs[0]) != `"x"` {
			t.Errorf("Scan inside batch = %q", docs)
		}
		// Nested batches join the outer one.
		return tx.Batch(ctx, func(inner store.Backend) error {
			return inner.Insert(ctx, store.TableTasks, "y", []byte(`"y"`))
		})
	})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	docs, _ := b.Scan(ctx, store.TableTasks)
	if len(docs) != 2 {
		t.Errorf("after commit Scan returned %d docs, want 2", len(docs))
	}
}
