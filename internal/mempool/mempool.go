// Package mempool holds admitted, not-yet-mined transactions. Like
// internal/chain, it carries no mutex of its own (internal/replica
// serializes all access); it generalizes the teacher's
// internal/mempool.Mempool from an unordered ID-keyed map to an
// insertion-ordered queue, since workflow validation depends on the
// relative order transactions were admitted in.
package mempool

import (
	"errors"
	"fmt"

	"tracechain.io/replica/internal/ledger"
)

var ErrTxExists = errors.New("transaction already exists in mempool")

// Mempool is an insertion-ordered, composite-key deduplicated queue of
// admitted transactions awaiting inclusion in a block.
type Mempool struct {
	order []string
	byKey map[string]ledger.Transaction
}

// New returns an empty Mempool.
func New() *Mempool {
	return &Mempool{
		byKey: make(map[string]ledger.Transaction),
	}
}

// Add appends tx to the queue. Returns ErrTxExists if a transaction with
// the same composite key is already pending.
func (mp *Mempool) Add(tx ledger.Transaction) error {
	key := tx.Key()
	if _, exists := mp.byKey[key]; exists {
		return fmt.Errorf("%w: %s", ErrTxExists, key)
	}
	mp.byKey[key] = tx
	mp.order = append(mp.order, key)
	return nil
}

// Has reports whether a transaction with the given composite key is
// pending.
func (mp *Mempool) Has(key string) bool {
	_, ok := mp.byKey[key]
	return ok
}

// Count returns the number of pending transactions.
func (mp *Mempool) Count() int {
	return len(mp.order)
}

// Transactions returns all pending transactions in admission order.
func (mp *Mempool) Transactions() []ledger.Transaction {
	out := make([]ledger.Transaction, 0, len(mp.order))
	for _, key := range mp.order {
		out = append(out, mp.byKey[key])
	}
	return out
}

// ForBatch returns pending transactions for batchID, in admission
// order, for use as the validator's mempool-side history.
func (mp *Mempool) ForBatch(batchID string) []ledger.Transaction {
	var out []ledger.Transaction
	for _, key := range mp.order {
		tx := mp.byKey[key]
		if tx.BatchID == batchID {
			out = append(out, tx)
		}
	}
	return out
}

// RemoveKeys drops every pending transaction whose composite key is in
// keys, typically because those transactions were just mined into a
// block. It preserves the relative order of what remains.
func (mp *Mempool) RemoveKeys(keys map[string]struct{}) {
	if len(keys) == 0 {
		return
	}
	remaining := mp.order[:0:0]
	for _, key := range mp.order {
		if _, drop := keys[key]; drop {
			delete(mp.byKey, key)
			continue
		}
		remaining = append(remaining, key)
	}
	mp.order = remaining
}

// FilterAgainstChain drops any pending transaction whose composite key
// already exists on chain. This is the re-filter step the miner runs
// immediately before mining, guarding against cross-replica
// double-admission races (spec.md §4.4).
func (mp *Mempool) FilterAgainstChain(hasTransaction func(key string) bool) {
	remaining := mp.order[:0:0]
	for _, key := range mp.order {
		if hasTransaction(key) {
			delete(mp.byKey, key)
			continue
		}
		remaining = append(remaining, key)
	}
	mp.order = remaining
}

// Merge admits every transaction from other not already pending here,
// skipping (not erroring on) duplicates. It performs no signature or
// on-chain check of its own.
func (mp *Mempool) Merge(other []ledger.Transaction) (admitted int) {
	for _, tx := range other {
		if err := mp.Add(tx); err == nil {
			admitted++
		}
	}
	return admitted
}
