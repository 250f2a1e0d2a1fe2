// Package replica is the central orchestrator of one ledger replica: it
// wires the chain, mempool, store, signer and election logic together
// behind a single coarse mutex, per spec.md §5's "parallel threads with
// a single coarse mutex guarding the chain-plus-mempool state machine."
// This deliberately replaces the teacher's per-component locking
// (Blockchain and Mempool each held their own sync.RWMutex) with one
// lock at the orchestration layer; chain.Chain and mempool.Mempool
// themselves are unsynchronized.
package replica

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tracechain.io/replica/internal/chain"
	"tracechain.io/replica/internal/election"
	"tracechain.io/replica/internal/ledger"
	"tracechain.io/replica/internal/mempool"
	"tracechain.io/replica/internal/signer"
	"tracechain.io/replica/internal/store"
	"tracechain.io/replica/internal/validator"
)

// Config is the static configuration a Node is constructed with, one
// field per CLI flag in spec.md §6 plus the mining trigger constants
// from §4.4.
type Config struct {
	Hostname          string
	Port              int
	Priority          []string
	Difficulty        int
	RequireSignatures bool
	AutoMine          bool

	MempoolMineThreshold int
	MineInterval         time.Duration
	PeerTimeout          time.Duration
}

// DefaultConfig returns a Config holding the canonical constants
// spec.md names; callers set the per-replica fields on the result.
func DefaultConfig() Config {
	return Config{
		Difficulty:           ledger.DefaultDifficulty(),
		RequireSignatures:    true,
		AutoMine:             true,
		MempoolMineThreshold: 10,
		MineInterval:         60 * time.Second,
		PeerTimeout:          3 * time.Second,
	}
}

// Node is the process-level object owning the coarse mutex and every
// other replica subsystem.
type Node struct {
	cfg Config
	log *logrus.Logger

	mu    sync.Mutex
	chain *chain.Chain
	pool  *mempool.Mempool
	peers map[string]struct{}
	ready bool

	store      store.Store
	signer     *signer.Manager
	peerClient PeerClient
}

// New constructs a Node, loading prior state from st if present or
// seeding a fresh genesis block otherwise.
func New(cfg Config, st store.Store, signerMgr *signer.Manager, peerClient PeerClient, log *logrus.Logger) (*Node, error) {
	n := &Node{
		cfg:        cfg,
		log:        log,
		pool:       mempool.New(),
		peers:      make(map[string]struct{}),
		store:      st,
		signer:     signerMgr,
		peerClient: peerClient,
	}

	if err := n.restore(); err != nil {
		return nil, err
	}

	// A standalone replica (no bootstrap peers configured) is ready the
	// moment its own state is restored; a replica with peers to
	// register with is not ready until Bootstrap completes, per
	// SPEC_FULL.md §4.6 (grounded on blockchain_service.py's node_ready
	// gate, which is set immediately for a "Standalone" node and only
	// after register_with_bootstrap_nodes otherwise).
	if !n.hasBootstrapPeers() {
		n.ready = true
	}
	return n, nil
}

func (n *Node) hasBootstrapPeers() bool {
	for _, host := range n.cfg.Priority {
		if host != n.cfg.Hostname {
			return true
		}
	}
	return false
}

func (n *Node) restore() error {
	rawBlocks, err := n.store.LoadChain()
	if err != nil {
		return fmt.Errorf("replica: load chain: %w", err)
	}
	if len(rawBlocks) == 0 {
		genesisTime := time.Now().UTC().Format(time.RFC3339Nano)
		n.chain = chain.New(genesisTime, n.cfg.Difficulty)
		tip, _ := n.chain.Tip()
		blockJSON, err := json.Marshal(tip)
		if err != nil {
			return fmt.Errorf("replica: marshal genesis block: %w", err)
		}
		if err := n.store.AppendBlock(tip.Index, blockJSON); err != nil {
			return fmt.Errorf("replica: persist genesis block: %w", err)
		}
	} else {
		blocks := make([]*ledger.Block, 0, len(rawBlocks))
		for _, raw := range rawBlocks {
			var b ledger.Block
			if err := json.Unmarshal(raw, &b); err != nil {
				return fmt.Errorf("replica: decode persisted block: %w", err)
			}
			blocks = append(blocks, &b)
		}
		if err := chain.Validate(n.cfg.Difficulty, blocks); err != nil {
			return fmt.Errorf("replica: persisted chain failed validation: %w", err)
		}
		n.chain = chain.Restore(n.cfg.Difficulty, blocks)
	}

	rawTxs, err := n.store.LoadMempool()
	if err != nil {
		return fmt.Errorf("replica: load mempool: %w", err)
	}
	for _, raw := range rawTxs {
		var tx ledger.Transaction
		if err := json.Unmarshal(raw, &tx); err != nil {
			return fmt.Errorf("replica: decode persisted transaction: %w", err)
		}
		n.pool.Add(tx)
	}

	peerURLs, err := n.store.LoadPeers()
	if err != nil {
		return fmt.Errorf("replica: load peers: %w", err)
	}
	for _, url := range peerURLs {
		n.peers[url] = struct{}{}
	}
	return nil
}

func (n *Node) selfURL() string {
	return fmt.Sprintf("http://%s:%d", n.cfg.Hostname, n.cfg.Port)
}

// StatusPayload is the JSON body of GET /status.
type StatusPayload struct {
	Hostname     string `json:"hostname"`
	ChainLength  int64  `json:"chain_length"`
	IsValid      bool   `json:"is_valid"`
	MempoolSize  int    `json:"mempool_size"`
	PeerCount    int    `json:"peer_count"`
	IsLeader     bool   `json:"is_leader"`
	Ready        bool   `json:"ready"`
}

// Status reports this replica's liveness snapshot.
func (n *Node) Status(ctx context.Context) StatusPayload {
	n.mu.Lock()
	chainLen := int64(n.chain.Len())
	mempoolSize := n.pool.Count()
	peerCount := len(n.peers)
	ready := n.ready
	n.mu.Unlock()

	valid := chain.Validate(n.cfg.Difficulty, n.ChainBlocks()) == nil
	_, isLeader := n.electLeader(ctx)

	return StatusPayload{
		Hostname:    n.cfg.Hostname,
		ChainLength: chainLen,
		IsValid:     valid,
		MempoolSize: mempoolSize,
		PeerCount:   peerCount,
		IsLeader:    isLeader,
		Ready:       ready,
	}
}

// IsReady reports whether this replica has finished its startup
// bootstrap (or was standalone and never needed one). Until it is
// ready, AddTransaction refuses client submissions with 503, matching
// spec.md §6's "Node not ready" response during the startup window.
func (n *Node) IsReady() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ready
}

// ChainBlocks returns a snapshot copy of every block on chain.
func (n *Node) ChainBlocks() []*ledger.Block {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.chain.Blocks()
}

// ChainValid reports whether the current chain passes full validation.
func (n *Node) ChainValid() bool {
	return chain.Validate(n.cfg.Difficulty, n.ChainBlocks()) == nil
}

// MempoolSize returns the current mempool backlog, satisfying
// mempool.Miner for the auto-mine daemon.
func (n *Node) MempoolSize() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pool.Count()
}

// TryMine attempts a mine only if this replica is currently the
// elected leader, satisfying mempool.Miner for the auto-mine daemon. It
// reports whether a block was actually produced.
func (n *Node) TryMine(ctx context.Context) bool {
	result := n.Mine(ctx)
	return result.Status == 201
}

// MempoolSnapshot returns every pending transaction, in admission order.
func (n *Node) MempoolSnapshot() []ledger.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pool.Transactions()
}

// History returns the chronological on-chain history for batchID.
func (n *Node) History(batchID string) []ledger.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.chain.HistoryFor(batchID)
}

// VerifyBatch reports whether the chain is structurally valid and
// whether batchID has any recorded history, per GET /verify/<batch_id>.
func (n *Node) VerifyBatch(batchID string) (chainValid bool, history []ledger.Transaction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return chain.Validate(n.cfg.Difficulty, n.chain.Blocks()) == nil, n.chain.HistoryFor(batchID)
}

// Peers returns the current peer URL set in no particular order; a
// caller that needs deterministic output sorts it.
func (n *Node) Peers() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.peers))
	for url := range n.peers {
		out = append(out, url)
	}
	return out
}

// Bootstrap registers this replica with every configured priority peer,
// discovers each peer's own known peers, runs one reconciliation sync
// cycle, and then marks the replica ready to accept client
// submissions. Grounded on blockchain_service.py's
// register_with_bootstrap_nodes: POST our own URL to each bootstrap
// peer's /nodes/register, union in whatever peers it already knows
// about, then sync. A standalone replica (no configured peers) never
// needs this; New already marks it ready immediately.
func (n *Node) Bootstrap(ctx context.Context) {
	self := n.selfURL()
	for _, host := range n.cfg.Priority {
		if host == n.cfg.Hostname {
			continue
		}
		peerURL := fmt.Sprintf("http://%s:%d", host, n.cfg.Port)

		if err := n.peerClient.RegisterNode(ctx, peerURL, self); err != nil {
			n.log.WithError(err).WithField("peer", peerURL).Warn("replica: bootstrap registration failed")
			continue
		}
		if err := n.RegisterPeer(peerURL); err != nil {
			n.log.WithError(err).WithField("peer", peerURL).Error("replica: persist bootstrap peer")
		}
		n.log.WithField("peer", peerURL).Info("replica: registered with bootstrap peer")

		discovered, err := n.peerClient.FetchNodes(ctx, peerURL)
		if err != nil {
			n.log.WithError(err).WithField("peer", peerURL).Debug("replica: fetch peer list from bootstrap peer failed")
			continue
		}
		for _, d := range discovered {
			if d == self || d == peerURL {
				continue
			}
			if err := n.RegisterPeer(d); err != nil {
				n.log.WithError(err).WithField("peer", d).Error("replica: persist discovered peer")
				continue
			}
			n.log.WithField("peer", d).Info("replica: discovered peer via bootstrap")
		}
	}

	n.Sync(ctx)

	n.mu.Lock()
	n.ready = true
	peerCount := len(n.peers)
	n.mu.Unlock()
	n.log.WithField("peer_count", peerCount).Info("replica: bootstrap complete, node ready")
}

// RegisterPeer adds url to the peer set and persists it.
func (n *Node) RegisterPeer(url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.peers[url]; exists {
		return nil
	}
	n.peers[url] = struct{}{}
	return n.store.InsertPeer(url)
}

// ActorRegistration is the result of registering an actor: its public
// key plus a one-time registration token the caller can use to
// correlate this registration call in logs and audit trails, distinct
// from the actor's own name.
type ActorRegistration struct {
	PublicKeyPEM      string
	RegistrationToken string
}

// RegisterActor generates or loads an actor's keypair and returns the
// actor's public key as a base64-of-PEM string, along with a fresh
// registration token.
func (n *Node) RegisterActor(actor string) (ActorRegistration, error) {
	if err := n.signer.EnsureKeyPair(actor); err != nil {
		return ActorRegistration{}, err
	}
	pubKey, err := n.signer.PublicKeyPEM(actor)
	if err != nil {
		return ActorRegistration{}, err
	}
	return ActorRegistration{PublicKeyPEM: pubKey, RegistrationToken: uuid.NewString()}, nil
}

// Actors lists every actor with a public key on disk.
func (n *Node) Actors() ([]string, error) {
	return n.signer.ListActors()
}

// electLeader computes the current leader hostname and whether this
// replica is it, polling every prioritized peer's status. It is
// recomputed fresh on every call, per spec.md §4.5 ("stateless,
// recomputed on every request that needs to know the leader").
func (n *Node) electLeader(ctx context.Context) (string, bool) {
	candidates := make([]election.Candidate, 0, len(n.cfg.Priority))
	for _, host := range n.cfg.Priority {
		if host == n.cfg.Hostname {
			candidates = append(candidates, election.Candidate{
				Hostname:    host,
				Reachable:   true,
				ChainLength: int64(n.ChainLength()),
			})
			continue
		}
		url := fmt.Sprintf("http://%s:%d", host, n.cfg.Port)
		status := n.peerClient.Status(ctx, url)
		candidates = append(candidates, election.Candidate{
			Hostname:    host,
			Reachable:   status.Reachable,
			ChainLength: status.ChainLength,
		})
	}
	leader, ok := election.Elect(n.cfg.Priority, candidates)
	if !ok {
		// No prioritized peer reachable: spec.md §4.5 says a replica
		// with no reachable peers in its priority list treats itself
		// as leader.
		return n.cfg.Hostname, true
	}
	return leader, leader == n.cfg.Hostname
}

// ChainLength returns the current number of blocks, including genesis.
func (n *Node) ChainLength() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.chain.Len()
}

// leaderURL resolves the current leader's base URL.
func (n *Node) leaderURL(ctx context.Context) (string, bool) {
	leader, isSelf := n.electLeader(ctx)
	if isSelf {
		return n.selfURL(), true
	}
	return fmt.Sprintf("http://%s:%d", leader, n.cfg.Port), false
}

// finalizeTimestamp assigns a server-side timestamp to an unsigned
// transaction that arrives without one; any client-supplied timestamp,
// signed or not, is kept verbatim, per spec.md §4.3 check 4 and the
// Open Question on byte-exact timestamp preservation.
func finalizeTimestamp(tx ledger.Transaction) ledger.Transaction {
	if !tx.Signed() && tx.Timestamp == "" {
		tx.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	return tx
}

// AddResult is the outcome of AddTransaction/ReceiveTransaction: an HTTP
// status code and a human-readable reason (empty on success).
type AddResult struct {
	Status int
	Reason string
}

// AddTransaction is the client-submission entry point (POST
// /add-transaction). If this replica is the leader it admits locally
// and fans the transaction out to peers; otherwise it forwards to the
// elected leader, returning 503 if no leader is reachable.
func (n *Node) AddTransaction(ctx context.Context, tx ledger.Transaction) AddResult {
	if !n.IsReady() {
		return AddResult{Status: 503, Reason: "node is still syncing with the network"}
	}
	tx = finalizeTimestamp(tx)

	leaderURL, isLeader := n.leaderURL(ctx)
	if !isLeader {
		status, err := n.peerClient.ForwardTransaction(ctx, leaderURL, tx)
		if err != nil {
			n.log.WithError(err).WithField("leader", leaderURL).Warn("replica: forward to leader failed")
			return AddResult{Status: 503, Reason: "leader unreachable"}
		}
		return AddResult{Status: status}
	}

	result := n.admitLocked(tx)
	if result.Status == 201 {
		n.broadcastTransaction(ctx, tx)
	}
	return result
}

// ReceiveTransaction is the peer-to-peer replication entry point (POST
// /receive-transaction). Duplicates are accepted silently (200, no
// state change); validation failures are dropped with a log line, never
// surfaced as an error to the sending peer.
func (n *Node) ReceiveTransaction(ctx context.Context, tx ledger.Transaction) AddResult {
	result := n.admitLocked(tx)
	switch result.Status {
	case 201:
		return AddResult{Status: 200}
	case 409:
		return AddResult{Status: 200}
	default:
		n.log.WithFields(logrus.Fields{
			"batch_id": tx.BatchID,
			"action":   tx.Action,
			"reason":   result.Reason,
		}).Info("replica: dropped replicated transaction")
		return AddResult{Status: 200}
	}
}

// admitLocked runs full validation and, on success, admits tx to the
// mempool and persists it. It holds the coarse mutex for its entire
// duration.
func (n *Node) admitLocked(tx ledger.Transaction) AddResult {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := tx.Validate(); err != nil {
		return AddResult{Status: 400, Reason: err.Error()}
	}

	key := tx.Key()
	if n.chain.HasTransaction(key) || n.pool.Has(key) {
		return AddResult{Status: 409, Reason: "transaction already recorded"}
	}

	history := validator.History{
		Chain:   n.chain.HistoryFor(tx.BatchID),
		Mempool: n.pool.ForBatch(tx.BatchID),
	}
	opts := validator.Options{
		RequireSignatures: n.cfg.RequireSignatures,
		Verifier:          n.signer,
	}
	if accepted, reason := validator.ValidateWorkflow(tx, history); !accepted {
		return AddResult{Status: 400, Reason: reason}
	}
	if accepted, reason := validator.VerifySignature(tx, opts); !accepted {
		return AddResult{Status: 401, Reason: reason}
	}

	if err := n.pool.Add(tx); err != nil {
		return AddResult{Status: 409, Reason: err.Error()}
	}
	txJSON, err := json.Marshal(tx)
	if err != nil {
		return AddResult{Status: 500, Reason: err.Error()}
	}
	if err := n.store.InsertMempoolTx(key, txJSON); err != nil {
		n.log.WithError(err).Error("replica: persist mempool transaction")
		return AddResult{Status: 500, Reason: "persistence failure"}
	}

	return AddResult{Status: 201}
}

// broadcastTransaction fans tx out to every known peer, best-effort.
func (n *Node) broadcastTransaction(ctx context.Context, tx ledger.Transaction) {
	for _, peer := range n.Peers() {
		go func(url string) {
			if err := n.peerClient.ReplicateTransaction(ctx, url, tx); err != nil {
				n.log.WithError(err).WithField("peer", url).Debug("replica: transaction broadcast failed")
			}
		}(peer)
	}
}

// MineResult is the outcome of a mining attempt.
type MineResult struct {
	Status int
	Reason string
	Block  *ledger.Block
}

// Mine forces a mining attempt (POST /mine): leader-only, rejects an
// empty mempool, and re-filters the mempool against the chain
// immediately before mining to guard against cross-replica
// double-admission races.
func (n *Node) Mine(ctx context.Context) MineResult {
	if _, isLeader := n.electLeader(ctx); !isLeader {
		return MineResult{Status: 403, Reason: "not the elected leader"}
	}

	n.mu.Lock()
	n.pool.FilterAgainstChain(n.chain.HasTransaction)
	pending := n.pool.Transactions()
	if len(pending) == 0 {
		n.mu.Unlock()
		return MineResult{Status: 400, Reason: "mempool is empty"}
	}

	tip, err := n.chain.Tip()
	if err != nil {
		n.mu.Unlock()
		return MineResult{Status: 500, Reason: err.Error()}
	}
	block := ledger.NewBlock(tip.Index+1, time.Now().UTC().Format(time.RFC3339Nano), pending, tip.Hash)
	ledger.Mine(block, n.cfg.Difficulty)

	if err := n.chain.Append(block); err != nil {
		n.mu.Unlock()
		return MineResult{Status: 500, Reason: err.Error()}
	}

	blockJSON, err := json.Marshal(block)
	if err != nil {
		n.mu.Unlock()
		return MineResult{Status: 500, Reason: err.Error()}
	}
	if err := n.store.AppendBlock(block.Index, blockJSON); err != nil {
		n.mu.Unlock()
		n.log.WithError(err).Error("replica: persist mined block")
		return MineResult{Status: 500, Reason: "persistence failure"}
	}

	minedKeys := block.TransactionKeys()
	n.pool.RemoveKeys(minedKeys)
	for key := range minedKeys {
		if err := n.store.DeleteMempoolTx(key); err != nil {
			n.log.WithError(err).WithField("key", key).Warn("replica: failed to prune mined transaction from store")
		}
	}
	n.mu.Unlock()

	n.broadcastBlock(ctx, block)
	return MineResult{Status: 201, Block: block}
}

func (n *Node) broadcastBlock(ctx context.Context, block *ledger.Block) {
	for _, peer := range n.Peers() {
		go func(url string) {
			if err := n.peerClient.BroadcastBlock(ctx, url, block); err != nil {
				n.log.WithError(err).WithField("peer", url).Debug("replica: block broadcast failed")
			}
		}(peer)
	}
}

// BlockResult is the outcome of receiving a block from a peer.
type BlockResult struct {
	Status int
	Reason string
}

// ReceiveBlock handles POST /receive-block: a valid, next-in-sequence
// block is appended and its transactions pruned from the mempool; a
// block that doesn't chain onto the current tip returns 409 and
// schedules a background sync rather than rejecting outright, since the
// sender may simply be ahead or behind.
func (n *Node) ReceiveBlock(block *ledger.Block) BlockResult {
	n.mu.Lock()

	if _, err := n.chain.BlockByHash(block.Hash); err == nil {
		n.mu.Unlock()
		return BlockResult{Status: 200}
	}

	err := n.chain.Append(block)
	if err == nil {
		blockJSON, merr := json.Marshal(block)
		if merr != nil {
			n.mu.Unlock()
			return BlockResult{Status: 500, Reason: merr.Error()}
		}
		if perr := n.store.AppendBlock(block.Index, blockJSON); perr != nil {
			n.mu.Unlock()
			n.log.WithError(perr).Error("replica: persist received block")
			return BlockResult{Status: 500, Reason: "persistence failure"}
		}
		minedKeys := block.TransactionKeys()
		n.pool.RemoveKeys(minedKeys)
		for key := range minedKeys {
			n.store.DeleteMempoolTx(key)
		}
		n.mu.Unlock()
		return BlockResult{Status: 200}
	}

	switch {
	case errors.Is(err, chain.ErrInvalidPrevHash) || errors.Is(err, chain.ErrInvalidIndex):
		n.mu.Unlock()
		n.log.WithField("block_index", block.Index).Info("replica: out-of-sync block received, scheduling sync")
		go n.Sync(context.Background())
		return BlockResult{Status: 409, Reason: "out of sync with sender"}
	default:
		n.mu.Unlock()
		return BlockResult{Status: 400, Reason: err.Error()}
	}
}

// Sync runs one consensus reconciliation cycle: adopt the longest valid
// chain among peers, merge peer mempools, and discover any peers a
// peer's own node list names that this replica doesn't yet know.
func (n *Node) Sync(ctx context.Context) {
	for _, peer := range n.Peers() {
		remoteBlocks, err := n.peerClient.FetchChain(ctx, peer)
		if err != nil {
			n.log.WithError(err).WithField("peer", peer).Debug("replica: sync fetch chain failed")
			continue
		}

		n.mu.Lock()
		if err := n.chain.Adopt(remoteBlocks); err == nil {
			if blocksJSON, merr := marshalAll(remoteBlocks); merr == nil {
				if perr := n.store.ReplaceChain(blocksJSON); perr != nil {
					n.log.WithError(perr).Error("replica: persist replaced chain")
				}
			}
			n.log.WithField("peer", peer).WithField("new_length", len(remoteBlocks)).Info("replica: adopted longer valid chain")
		}
		n.mu.Unlock()

		remoteTxs, err := n.peerClient.FetchMempool(ctx, peer)
		if err != nil {
			n.log.WithError(err).WithField("peer", peer).Debug("replica: sync fetch mempool failed")
			continue
		}
		n.mu.Lock()
		for _, tx := range remoteTxs {
			key := tx.Key()
			if n.chain.HasTransaction(key) || n.pool.Has(key) {
				continue
			}
			// Signed entries are re-verified before merging into local
			// state; a peer's mempool is not a trusted source just
			// because it passed that peer's own admission check.
			if accepted, reason := validator.VerifySignature(tx, validator.Options{
				RequireSignatures: n.cfg.RequireSignatures,
				Verifier:          n.signer,
			}); !accepted {
				n.log.WithField("peer", peer).WithField("batch_id", tx.BatchID).WithField("reason", reason).
					Warn("replica: dropped unverifiable transaction during mempool merge")
				continue
			}
			if err := n.pool.Add(tx); err == nil {
				if txJSON, merr := json.Marshal(tx); merr == nil {
					n.store.InsertMempoolTx(key, txJSON)
				}
			}
		}
		n.mu.Unlock()

		discovered, err := n.peerClient.FetchNodes(ctx, peer)
		if err != nil {
			n.log.WithError(err).WithField("peer", peer).Debug("replica: sync fetch nodes failed")
			continue
		}
		for _, d := range discovered {
			if d == n.selfURL() {
				continue
			}
			if err := n.RegisterPeer(d); err != nil {
				n.log.WithError(err).WithField("peer", d).Error("replica: persist discovered peer")
			}
		}
	}
}

func marshalAll(blocks []*ledger.Block) ([][]byte, error) {
	out := make([][]byte, len(blocks))
	for i, b := range blocks {
		data, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		out[i] = data
	}
	return out, nil
}
