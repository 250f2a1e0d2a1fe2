// Package store persists a replica's chain, mempool and peer set so it
// survives restarts. It defines a Store interface with two
// implementations: SQLStore (database/sql over sqlite3) and FileStore
// (three JSON documents). Neither implementation locks internally —
// internal/replica's single coarse mutex already serializes every call
// into this package, mirroring the ownership model the teacher's
// state.StateManager uses for its own in-memory structures.
package store

// Store is everything the rest of the core needs from durable storage.
type Store interface {
	// AppendBlock persists a newly mined or accepted block at the next
	// index.
	AppendBlock(index int64, blockJSON []byte) error
	// LoadChain returns every persisted block's raw JSON, in ascending
	// index order.
	LoadChain() ([][]byte, error)
	// ReplaceChain atomically discards the persisted chain and writes
	// blocks in its place, in order.
	ReplaceChain(blocks [][]byte) error

	// InsertMempoolTx persists a single pending transaction.
	InsertMempoolTx(key string, txJSON []byte) error
	// DeleteMempoolTx removes a single pending transaction by its
	// composite key.
	DeleteMempoolTx(key string) error
	// ClearMempool removes every pending transaction.
	ClearMempool() error
	// LoadMempool returns every persisted pending transaction's raw
	// JSON, in insertion order.
	LoadMempool() ([][]byte, error)

	// InsertPeer persists a peer URL.
	InsertPeer(url string) error
	// DeletePeer removes a peer URL.
	DeletePeer(url string) error
	// LoadPeers returns every persisted peer URL.
	LoadPeers() ([]string, error)

	// Close releases any resources the store holds open.
	Close() error
}
