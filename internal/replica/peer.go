package replica

import (
	"context"

	"tracechain.io/replica/internal/ledger"
)

// PeerStatus is what a remote replica's /status endpoint reports, as
// much of it as election and sync need.
type PeerStatus struct {
	Hostname    string
	ChainLength int64
	Reachable   bool
}

// PeerClient is everything Node needs to talk to other replicas over
// the wire. internal/p2p provides the HTTP implementation; Node is
// constructed with one so this package stays free of net/http and
// testable with an in-memory fake.
type PeerClient interface {
	// Status fetches a peer's liveness and chain length. A network
	// error is not returned as err; it is reflected as
	// PeerStatus{Reachable: false}, matching election.py's treatment of
	// an unreachable node as merely absent from the candidate pool.
	Status(ctx context.Context, baseURL string) PeerStatus
	// ForwardTransaction submits tx to a peer's /add-transaction and
	// returns the HTTP status the peer responded with.
	ForwardTransaction(ctx context.Context, baseURL string, tx ledger.Transaction) (int, error)
	// ReplicateTransaction submits tx to a peer's /receive-transaction.
	ReplicateTransaction(ctx context.Context, baseURL string, tx ledger.Transaction) error
	// BroadcastBlock submits block to a peer's /receive-block.
	BroadcastBlock(ctx context.Context, baseURL string, block *ledger.Block) error
	// FetchChain retrieves a peer's full chain.
	FetchChain(ctx context.Context, baseURL string) ([]*ledger.Block, error)
	// FetchMempool retrieves a peer's pending transactions.
	FetchMempool(ctx context.Context, baseURL string) ([]ledger.Transaction, error)
	// RegisterNode announces selfURL to a peer's /nodes/register, the
	// outbound half of the bootstrap handshake in SPEC_FULL.md §4.6.
	RegisterNode(ctx context.Context, baseURL, selfURL string) error
	// FetchNodes retrieves the peer list a peer already knows about, so
	// bootstrap can union it into this replica's own peer set.
	FetchNodes(ctx context.Context, baseURL string) ([]string, error)
}
