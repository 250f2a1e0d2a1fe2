package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// powSpeedBumpDifficulty names what difficulty actually is here: a
// throughput speed bump between mining attempts, not a security
// primitive. Non-goals in spec.md §1 exclude sybil-resistant PoW
// economics; nothing in this package should be read as providing it.
const powSpeedBumpDifficulty = 2

var ErrGenesisMustBeEmpty = errors.New("genesis block must have no transactions")

// Block is one hash-linked unit of the chain. Index 0 is the genesis
// block, with PreviousHash "0" and no transactions.
type Block struct {
	Index        int64         `json:"index"`
	Timestamp    string        `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
	PreviousHash string        `json:"previous_hash"`
	Nonce        uint64        `json:"nonce"`
	Hash         string        `json:"hash"`
}

// NewBlock constructs a candidate block ready for mining: everything but
// Nonce and Hash is populated from the arguments.
func NewBlock(index int64, timestamp string, txs []Transaction, previousHash string) *Block {
	return &Block{
		Index:        index,
		Timestamp:    timestamp,
		Transactions: txs,
		PreviousHash: previousHash,
	}
}

// Genesis returns the block at index 0: no transactions, previous hash
// "0", mined at the given difficulty so followers can verify it like
// any other block.
func Genesis(timestamp string, difficulty int) *Block {
	b := NewBlock(0, timestamp, nil, "0")
	Mine(b, difficulty)
	return b
}

// canonicalFields returns the map hashed by ComputeHash: sorted keys over
// {index, timestamp, transactions, previous_hash, nonce}, excluding hash
// itself, per spec.md §3.
func (b *Block) canonicalFields() map[string]any {
	txs := make([]any, len(b.Transactions))
	for i, tx := range b.Transactions {
		txs[i] = tx.wireFields()
	}
	return map[string]any{
		"index":         b.Index,
		"timestamp":     b.Timestamp,
		"transactions":  txs,
		"previous_hash": b.PreviousHash,
		"nonce":         b.Nonce,
	}
}

// ComputeHash recomputes the hex SHA-256 of the block's canonical form.
// It never reads or depends on b.Hash.
func (b *Block) ComputeHash() (string, error) {
	data, err := canonicalJSON(b.canonicalFields())
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// MeetsDifficulty reports whether hash begins with difficulty hex zero
// nibbles.
func MeetsDifficulty(hash string, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	if len(hash) < difficulty {
		return false
	}
	return strings.Count(hash[:difficulty], "0") == difficulty
}

// Mine iterates b.Nonce from zero until ComputeHash begins with
// difficulty hex zero nibbles, then sets b.Hash. It runs to completion
// without suspension, as spec.md §5 requires (proof of work is
// CPU-bound and the caller is expected to hold the replica's mutex for
// the duration of block production).
func Mine(b *Block, difficulty int) {
	b.Nonce = 0
	for {
		hash, err := b.ComputeHash()
		if err == nil && MeetsDifficulty(hash, difficulty) {
			b.Hash = hash
			return
		}
		b.Nonce++
	}
}

// VerifyHash reports whether b.Hash is both the correct recomputation of
// b's canonical form and meets the declared difficulty.
func VerifyHash(b *Block, difficulty int) (bool, error) {
	recomputed, err := b.ComputeHash()
	if err != nil {
		return false, err
	}
	if recomputed != b.Hash {
		return false, nil
	}
	return MeetsDifficulty(b.Hash, difficulty), nil
}

// TransactionKeys returns the composite dedup keys of every transaction
// in the block, used to prune mined transactions from the mempool and by
// the chain to index and detect on-chain duplicates.
func (b *Block) TransactionKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(b.Transactions))
	for _, tx := range b.Transactions {
		keys[tx.Key()] = struct{}{}
	}
	return keys
}

// DefaultDifficulty is the canonical difficulty named in spec.md §4.4.
func DefaultDifficulty() int {
	return powSpeedBumpDifficulty
}
