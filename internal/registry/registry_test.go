package registry

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rpger/content-extractor/internal/common"
)

const testISBN = "978-0-306-40615-7"

// setupRegistry creates a fresh registry DB in a temp directory.
func setupRegistry(t *testing.T) *Registry {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "registry.db")
	r, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestLookupUnknownReturnsNil(t *testing.T) {
	r := setupRegistry(t)
	e, err := r.Lookup(context.Background(), testISBN)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if e != nil {
		t.Fatalf("Lookup unknown = %+v, want nil", e)
	}
}

func TestTentativeFinalizeCycle(t *testing.T) {
	r := setupRegistry(t)
	ctx := context.Background()

	if err := r.PutTentative(ctx, Entry{ISBN: testISBN, Title: "Player's Handbook", LastSessionID: "s1"}); err != nil {
		t.Fatalf("PutTentative: %v", err)
	}

	e, err := r.Lookup(ctx, "0306406152") // ISBN-10 form of the same book
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if e == nil || e.Status != StatusTentative {
		t.Fatalf("Lookup after tentative = %+v", e)
	}

	if err := r.Finalize(ctx, testISBN, 120, 45000); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	e, _ = r.Lookup(ctx, testISBN)
	if e.Status != StatusCompleted || e.Sections != 120 || e.Words != 45000 {
		t.Fatalf("finalized entry = %+v", e)
	}

	// DropTentative must not remove a completed entry.
	if err := r.DropTentative(ctx, testISBN); err != nil {
		t.Fatalf("DropTentative: %v", err)
	}
	if e, _ := r.Lookup(ctx, testISBN); e == nil {
		t.Fatal("completed entry removed by DropTentative")
	}
}

func TestDropTentativeRollsBack(t *testing.T) {
	r := setupRegistry(t)
	ctx := context.Background()

	if err := r.PutTentative(ctx, Entry{ISBN: testISBN, LastSessionID: "s1"}); err != nil {
		t.Fatalf("PutTentative: %v", err)
	}
	if err := r.DropTentative(ctx, testISBN); err != nil {
		t.Fatalf("DropTentative: %v", err)
	}
	if e, _ := r.Lookup(ctx, testISBN); e != nil {
		t.Fatalf("entry survived rollback: %+v", e)
	}
}

func TestDuplicateTentativeConflicts(t *testing.T) {
	r := setupRegistry(t)
	ctx := context.Background()

	if err := r.PutTentative(ctx, Entry{ISBN: testISBN, LastSessionID: "s1"}); err != nil {
		t.Fatalf("PutTentative: %v", err)
	}
	err := r.PutTentative(ctx, Entry{ISBN: "0306406152", LastSessionID: "s2"})
	if !common.HasCode(err, common.CodeStoreConflict) {
		t.Fatalf("second tentative err = %v, want store_conflict", err)
	}
}

// Exactly one of N concurrent ingest attempts of the same ISBN wins the
// tentative slot when each holds the per-ISBN lock around check-then-write.
func TestConcurrentDedupOneWinner(t *testing.T) {
	r := setupRegistry(t)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	wins := make(chan string, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			release, err := r.Acquire(testISBN)
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer release()

			existing, err := r.Lookup(ctx, testISBN)
			if err != nil {
				t.Errorf("Lookup: %v", err)
				return
			}
			if existing != nil {
				return // duplicate, rejected
			}
			if err := r.PutTentative(ctx, Entry{ISBN: testISBN, LastSessionID: "s"}); err != nil {
				t.Errorf("PutTentative raced despite lock: %v", err)
				return
			}
			wins <- "won"
		}(i)
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Fatalf("winners = %d, want exactly 1", count)
	}
}

func TestAcquireReleaseReentry(t *testing.T) {
	r := setupRegistry(t)
	release, err := r.Acquire(testISBN)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	release()
	release() // idempotent

	release2, err := r.Acquire(testISBN)
	if err != nil {
		t.Fatalf("re-Acquire after release: %v", err)
	}
	release2()
}
