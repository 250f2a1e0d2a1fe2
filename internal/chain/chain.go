// Package chain holds the append-only, hash-linked sequence of mined
// blocks and the rules for validating and replacing it. Unlike the
// blockchain package it is grounded on, Chain carries no mutex of its
// own: the replica package serializes every call under one coarse lock
// (see SPEC_FULL.md §5), so this type is free to assume single-threaded
// access and stay a plain data structure.
package chain

import (
	"errors"
	"fmt"

	"tracechain.io/replica/internal/ledger"
)

var (
	ErrBlockNotFound      = errors.New("block not found")
	ErrEmptyChain         = errors.New("chain has no blocks")
	ErrInvalidIndex       = errors.New("block index out of sequence")
	ErrInvalidPrevHash    = errors.New("block previous_hash does not match the chain tip")
	ErrHashMismatch       = errors.New("block hash does not match its recomputed hash")
	ErrDifficultyNotMet   = errors.New("block hash does not satisfy the configured difficulty")
	ErrDuplicateInChain   = errors.New("transaction already recorded on chain")
	ErrShorterReplacement = errors.New("replacement chain is not longer than the current chain")
	ErrCandidateInvalid   = errors.New("candidate chain failed validation")
)

// Chain is the in-memory, append-only sequence of blocks held by one
// replica. It does not persist itself; internal/store snapshots it.
type Chain struct {
	difficulty int
	blocks     []*ledger.Block
	byHash     map[string]*ledger.Block
	txKeys     map[string]struct{}
}

// New returns a Chain seeded with a freshly mined genesis block at the
// given difficulty.
func New(genesisTimestamp string, difficulty int) *Chain {
	c := &Chain{
		difficulty: difficulty,
		blocks:     make([]*ledger.Block, 0),
		byHash:     make(map[string]*ledger.Block),
		txKeys:     make(map[string]struct{}),
	}
	c.appendUnchecked(ledger.Genesis(genesisTimestamp, difficulty))
	return c
}

// Restore rebuilds a Chain from blocks already known to be valid, e.g.
// freshly loaded from a store. It still indexes transaction keys and
// hash lookups, but it does not re-verify proof of work or linkage; the
// caller is responsible for that (store implementations load blocks
// that were valid when they were persisted).
func Restore(difficulty int, blocks []*ledger.Block) *Chain {
	c := &Chain{
		difficulty: difficulty,
		blocks:     make([]*ledger.Block, 0, len(blocks)),
		byHash:     make(map[string]*ledger.Block),
		txKeys:     make(map[string]struct{}),
	}
	for _, b := range blocks {
		c.appendUnchecked(b)
	}
	return c
}

func (c *Chain) appendUnchecked(b *ledger.Block) {
	c.blocks = append(c.blocks, b)
	c.byHash[b.Hash] = b
	for key := range b.TransactionKeys() {
		c.txKeys[key] = struct{}{}
	}
}

// Difficulty returns the proof-of-work difficulty this chain validates
// blocks against.
func (c *Chain) Difficulty() int {
	return c.difficulty
}

// Len returns the number of blocks, including genesis.
func (c *Chain) Len() int {
	return len(c.blocks)
}

// Tip returns the most recently appended block. Callers never see an
// empty chain in practice (New always seeds genesis), but Restore of a
// zero-length slice is defensive: panicking here would turn a store bug
// into a crash far from its cause, so this returns an error instead.
func (c *Chain) Tip() (*ledger.Block, error) {
	if len(c.blocks) == 0 {
		return nil, ErrEmptyChain
	}
	return c.blocks[len(c.blocks)-1], nil
}

// BlockAt returns the block at the given index.
func (c *Chain) BlockAt(index int64) (*ledger.Block, error) {
	if index < 0 || index >= int64(len(c.blocks)) {
		return nil, fmt.Errorf("%w: index %d", ErrBlockNotFound, index)
	}
	return c.blocks[index], nil
}

// BlockByHash returns the block with the given hash.
func (c *Chain) BlockByHash(hash string) (*ledger.Block, error) {
	b, ok := c.byHash[hash]
	if !ok {
		return nil, fmt.Errorf("%w: hash %s", ErrBlockNotFound, hash)
	}
	return b, nil
}

// Blocks returns a copy of the full block slice, oldest first.
func (c *Chain) Blocks() []*ledger.Block {
	out := make([]*ledger.Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// HasTransaction reports whether a transaction with the given composite
// key has already been mined into this chain.
func (c *Chain) HasTransaction(key string) bool {
	_, ok := c.txKeys[key]
	return ok
}

// ValidateNext checks that candidate can legally be appended to the
// current tip: correct index, correct previous hash, a hash that both
// recomputes correctly and meets the configured difficulty, and no
// transaction already present on chain.
func (c *Chain) ValidateNext(candidate *ledger.Block) error {
	tip, err := c.Tip()
	if err != nil {
		return err
	}
	if candidate.Index != tip.Index+1 {
		return fmt.Errorf("%w: expected %d, got %d", ErrInvalidIndex, tip.Index+1, candidate.Index)
	}
	if candidate.PreviousHash != tip.Hash {
		return fmt.Errorf("%w: expected %s, got %s", ErrInvalidPrevHash, tip.Hash, candidate.PreviousHash)
	}
	ok, err := ledger.VerifyHash(candidate, c.difficulty)
	if err != nil {
		return err
	}
	if !ok {
		recomputed, _ := candidate.ComputeHash()
		if recomputed != candidate.Hash {
			return ErrHashMismatch
		}
		return ErrDifficultyNotMet
	}
	for key := range candidate.TransactionKeys() {
		if c.HasTransaction(key) {
			return fmt.Errorf("%w: %s", ErrDuplicateInChain, key)
		}
	}
	return nil
}

// Append validates candidate against the current tip and, if valid,
// appends it.
func (c *Chain) Append(candidate *ledger.Block) error {
	if err := c.ValidateNext(candidate); err != nil {
		return err
	}
	c.appendUnchecked(candidate)
	return nil
}

// Validate walks the entire chain from genesis, checking index
// continuity, hash linkage, recomputed hashes and difficulty at every
// step. It is used both on candidate replacement chains and, at
// startup, on a chain freshly loaded from a store.
func Validate(difficulty int, blocks []*ledger.Block) error {
	if len(blocks) == 0 {
		return ErrEmptyChain
	}
	if blocks[0].Index != 0 || blocks[0].PreviousHash != "0" {
		return fmt.Errorf("%w: malformed genesis block", ErrCandidateInvalid)
	}
	for i, b := range blocks {
		ok, err := ledger.VerifyHash(b, difficulty)
		if err != nil {
			return fmt.Errorf("%w: block %d: %v", ErrCandidateInvalid, i, err)
		}
		if !ok {
			return fmt.Errorf("%w: block %d failed hash/difficulty check", ErrCandidateInvalid, i)
		}
		if i == 0 {
			continue
		}
		prev := blocks[i-1]
		if b.Index != prev.Index+1 {
			return fmt.Errorf("%w: block %d has index %d, expected %d", ErrCandidateInvalid, i, b.Index, prev.Index+1)
		}
		if b.PreviousHash != prev.Hash {
			return fmt.Errorf("%w: block %d previous_hash does not match block %d's hash", ErrCandidateInvalid, i, i-1)
		}
	}
	return nil
}

// Validate reports whether this chain, as currently held, still passes
// full validation from genesis. A chain can go invalid under no fault
// of its own holder, e.g. after a store corrupts a persisted block;
// Adopt uses this to decide whether a repair from a peer is due
// regardless of length.
func (c *Chain) Validate() error {
	return Validate(c.difficulty, c.blocks)
}

// Adopt evaluates candidate against the current chain using the two
// distinct replacement rules from SPEC_FULL.md §4.7 (grounded on
// blockchain_service.py's sync_with_network): (a) if this chain is
// currently invalid and candidate is valid, adopt it unconditionally,
// regardless of length, since a broken local chain has nothing to lose
// by repairing from any valid peer; (b) if both chains are valid, adopt
// candidate only when it is strictly longer ("longest valid chain
// wins"). If both are invalid, or candidate is invalid, or neither rule
// fires, the local chain is left untouched. It never merges block
// lists, only swaps wholesale.
func (c *Chain) Adopt(candidate []*ledger.Block) error {
	candidateErr := Validate(c.difficulty, candidate)
	localErr := c.Validate()

	switch {
	case localErr != nil && candidateErr == nil:
		// local broken, candidate good: repair regardless of length.
	case localErr == nil && candidateErr == nil && len(candidate) > len(c.blocks):
		// both good, candidate longer: longest valid chain wins.
	case candidateErr != nil:
		return fmt.Errorf("%w: %v", ErrCandidateInvalid, candidateErr)
	default:
		return ErrShorterReplacement
	}

	c.blocks = make([]*ledger.Block, 0, len(candidate))
	c.byHash = make(map[string]*ledger.Block, len(candidate))
	c.txKeys = make(map[string]struct{})
	for _, b := range candidate {
		c.appendUnchecked(b)
	}
	return nil
}

// LatestActionFor returns the most recent action recorded on chain for
// batchID, and whether any action exists for it at all. Blocks are
// walked newest-first so the first match is the latest.
func (c *Chain) LatestActionFor(batchID string) (ledger.Transaction, bool) {
	for i := len(c.blocks) - 1; i >= 0; i-- {
		txs := c.blocks[i].Transactions
		for j := len(txs) - 1; j >= 0; j-- {
			if txs[j].BatchID == batchID {
				return txs[j], true
			}
		}
	}
	return ledger.Transaction{}, false
}

// HistoryFor returns every transaction recorded on chain for batchID, in
// chain order (oldest first).
func (c *Chain) HistoryFor(batchID string) []ledger.Transaction {
	var out []ledger.Transaction
	for _, b := range c.blocks {
		for _, tx := range b.Transactions {
			if tx.BatchID == batchID {
				out = append(out, tx)
			}
		}
	}
	return out
}
