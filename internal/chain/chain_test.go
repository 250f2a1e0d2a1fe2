package chain

import (
	"errors"
	"testing"

	"tracechain.io/replica/internal/ledger"
)

func mineNext(t *testing.T, c *Chain, tx ledger.Transaction) *ledger.Block {
	t.Helper()
	tip, err := c.Tip()
	if err != nil {
		t.Fatalf("Tip: %v", err)
	}
	b := ledger.NewBlock(tip.Index+1, "2026-01-01T00:00:01Z", []ledger.Transaction{tx}, tip.Hash)
	ledger.Mine(b, c.Difficulty())
	return b
}

func sampleTx(batchID string) ledger.Transaction {
	return ledger.Transaction{
		BatchID:   batchID,
		Action:    ledger.ActionRegistered,
		Actor:     "supplier-acme",
		Timestamp: "2026-01-01T00:00:00Z",
	}
}

func TestNewChainHasGenesis(t *testing.T) {
	c := New("2026-01-01T00:00:00Z", 1)
	if c.Len() != 1 {
		t.Fatalf("expected 1 block, got %d", c.Len())
	}
	tip, err := c.Tip()
	if err != nil {
		t.Fatalf("Tip: %v", err)
	}
	if tip.Index != 0 || tip.PreviousHash != "0" {
		t.Errorf("unexpected genesis block: %+v", tip)
	}
}

func TestAppendValidBlock(t *testing.T) {
	c := New("2026-01-01T00:00:00Z", 1)
	b := mineNext(t, c, sampleTx("batch-1"))
	if err := c.Append(b); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 blocks, got %d", c.Len())
	}
	if !c.HasTransaction(sampleTx("batch-1").Key()) {
		t.Error("expected transaction key to be indexed")
	}
}

func TestAppendRejectsBadPreviousHash(t *testing.T) {
	c := New("2026-01-01T00:00:00Z", 1)
	b := mineNext(t, c, sampleTx("batch-1"))
	b.PreviousHash = "deadbeef"
	b.Hash = ""
	ledger.Mine(b, c.Difficulty())
	if err := c.Append(b); !errors.Is(err, ErrInvalidPrevHash) {
		t.Errorf("expected ErrInvalidPrevHash, got %v", err)
	}
}

func TestAppendRejectsDuplicateTransaction(t *testing.T) {
	c := New("2026-01-01T00:00:00Z", 1)
	b1 := mineNext(t, c, sampleTx("batch-1"))
	if err := c.Append(b1); err != nil {
		t.Fatalf("Append: %v", err)
	}
	b2 := mineNext(t, c, sampleTx("batch-1"))
	if err := c.Append(b2); !errors.Is(err, ErrDuplicateInChain) {
		t.Errorf("expected ErrDuplicateInChain, got %v", err)
	}
}

func TestAdoptRejectsSameLengthValidCandidate(t *testing.T) {
	c := New("2026-01-01T00:00:00Z", 1)
	if err := c.Adopt(c.Blocks()); !errors.Is(err, ErrShorterReplacement) {
		t.Errorf("expected ErrShorterReplacement, got %v", err)
	}
}

func TestAdoptAcceptsLongerValidChain(t *testing.T) {
	c := New("2026-01-01T00:00:00Z", 1)
	other := New("2026-01-01T00:00:00Z", 1)
	// Build "other" to the same genesis timestamp/difficulty so hashes match,
	// then extend it past c.
	b := mineNext(t, other, sampleTx("batch-1"))
	if err := other.Append(b); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := c.Adopt(other.Blocks()); err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected adopted chain length 2, got %d", c.Len())
	}
}

// TestAdoptRepairsInvalidLocalChainRegardlessOfLength covers
// SPEC_FULL.md §4.7 rule (a): a replica whose own chain has somehow
// gone invalid (e.g. a corrupted store) adopts any valid peer chain
// immediately, even one no longer than its own, rather than waiting
// for a strictly longer candidate.
func TestAdoptRepairsInvalidLocalChainRegardlessOfLength(t *testing.T) {
	c := New("2026-01-01T00:00:00Z", 1)
	// Corrupt the local chain so it fails full validation without
	// changing its length.
	genesis, err := c.Tip()
	if err != nil {
		t.Fatalf("Tip: %v", err)
	}
	genesis.Hash = "corrupted"

	other := New("2026-01-01T00:00:00Z", 1)
	if err := c.Adopt(other.Blocks()); err != nil {
		t.Fatalf("expected Adopt to repair the invalid local chain, got %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected repaired chain length 1, got %d", c.Len())
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected repaired chain to validate, got %v", err)
	}
}

// TestAdoptRejectsWhenBothInvalid covers the remaining branch: if
// neither the local nor the candidate chain validates, Adopt leaves
// local state untouched rather than swapping in more broken blocks.
func TestAdoptRejectsWhenBothInvalid(t *testing.T) {
	c := New("2026-01-01T00:00:00Z", 1)
	genesis, err := c.Tip()
	if err != nil {
		t.Fatalf("Tip: %v", err)
	}
	genesis.Hash = "corrupted"

	badCandidate := []*ledger.Block{{Index: 0, PreviousHash: "0", Hash: "also-corrupted"}}
	if err := c.Adopt(badCandidate); !errors.Is(err, ErrCandidateInvalid) {
		t.Errorf("expected ErrCandidateInvalid, got %v", err)
	}
}

func TestHistoryForReturnsChronologicalOrder(t *testing.T) {
	c := New("2026-01-01T00:00:00Z", 1)
	b1 := mineNext(t, c, sampleTx("batch-1"))
	c.Append(b1)

	tx2 := ledger.Transaction{
		BatchID:   "batch-1",
		Action:    ledger.ActionQualityChecked,
		Actor:     "supplier-acme",
		Timestamp: "2026-01-01T00:00:02Z",
	}
	tip, _ := c.Tip()
	b2 := ledger.NewBlock(tip.Index+1, "2026-01-01T00:00:03Z", []ledger.Transaction{tx2}, tip.Hash)
	ledger.Mine(b2, c.Difficulty())
	c.Append(b2)

	hist := c.HistoryFor("batch-1")
	if len(hist) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(hist))
	}
	if hist[0].Action != ledger.ActionRegistered || hist[1].Action != ledger.ActionQualityChecked {
		t.Errorf("unexpected history order: %+v", hist)
	}
}
