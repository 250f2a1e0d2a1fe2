package p2p

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"tracechain.io/replica/internal/ledger"
	"tracechain.io/replica/internal/replica"
	"tracechain.io/replica/internal/signer"
	"tracechain.io/replica/internal/store"
)

// noopPeerClient never reaches any peer; used for single-replica tests
// where this node always elects itself leader.
type noopPeerClient struct{}

func (noopPeerClient) Status(context.Context, string) replica.PeerStatus { return replica.PeerStatus{} }
func (noopPeerClient) ForwardTransaction(context.Context, string, ledger.Transaction) (int, error) {
	return 0, nil
}
func (noopPeerClient) ReplicateTransaction(context.Context, string, ledger.Transaction) error {
	return nil
}
func (noopPeerClient) BroadcastBlock(context.Context, string, *ledger.Block) error { return nil }
func (noopPeerClient) FetchChain(context.Context, string) ([]*ledger.Block, error) { return nil, nil }
func (noopPeerClient) FetchMempool(context.Context, string) ([]ledger.Transaction, error) {
	return nil, nil
}
func (noopPeerClient) RegisterNode(context.Context, string, string) error { return nil }
func (noopPeerClient) FetchNodes(context.Context, string) ([]string, error) { return nil, nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	st, err := store.OpenFileStore(dir)
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	signerMgr, err := signer.NewManager(dir + "/keys")
	if err != nil {
		t.Fatalf("signer.NewManager: %v", err)
	}

	cfg := replica.DefaultConfig()
	cfg.Hostname = "replica1"
	cfg.Port = 5000
	cfg.Priority = []string{"replica1"}
	cfg.RequireSignatures = false

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	node, err := replica.New(cfg, st, signerMgr, noopPeerClient{}, log)
	if err != nil {
		t.Fatalf("replica.New: %v", err)
	}
	return NewServer(node, log)
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload replica.StatusPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !payload.IsLeader {
		t.Error("expected sole replica to be leader")
	}
	if payload.ChainLength != 1 {
		t.Errorf("expected chain length 1 (genesis), got %d", payload.ChainLength)
	}
}

func TestHandleAddTransactionAndMine(t *testing.T) {
	s := newTestServer(t)

	tx := ledger.Transaction{
		BatchID: "batch-1",
		Action:  ledger.ActionRegistered,
		Actor:   "supplier-acme",
	}
	body, _ := json.Marshal(tx)
	req := httptest.NewRequest(http.MethodPost, "/add-transaction", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	mineReq := httptest.NewRequest(http.MethodPost, "/mine", nil)
	mineRec := httptest.NewRecorder()
	s.ServeHTTP(mineRec, mineReq)
	if mineRec.Code != http.StatusCreated {
		t.Fatalf("expected 201 from mine, got %d: %s", mineRec.Code, mineRec.Body.String())
	}

	historyReq := httptest.NewRequest(http.MethodGet, "/history/batch-1", nil)
	historyRec := httptest.NewRecorder()
	s.ServeHTTP(historyRec, historyReq)
	if historyRec.Code != http.StatusOK {
		t.Fatalf("expected 200 from history, got %d", historyRec.Code)
	}
}

func TestHandleAddTransactionRejectsSkipStep(t *testing.T) {
	s := newTestServer(t)
	tx := ledger.Transaction{
		BatchID: "batch-1",
		Action:  ledger.ActionShipped,
		Actor:   "supplier-acme",
	}
	body, _ := json.Marshal(tx)
	req := httptest.NewRequest(http.MethodPost, "/add-transaction", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for skip-step, got %d", rec.Code)
	}
}

func TestHandleMineRejectsEmptyMempool(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/mine", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty mempool, got %d", rec.Code)
	}
}

func TestHandleRegisterNodeAndListNodes(t *testing.T) {
	s := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"url": "http://replica2:5000"})
	req := httptest.NewRequest(http.MethodPost, "/nodes/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	listReq := httptest.NewRequest(http.MethodGet, "/nodes", nil)
	listRec := httptest.NewRecorder()
	s.ServeHTTP(listRec, listReq)
	var payload struct {
		Peers []string `json:"peers"`
	}
	if err := json.Unmarshal(listRec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode nodes: %v", err)
	}
	if len(payload.Peers) != 1 || payload.Peers[0] != "http://replica2:5000" {
		t.Errorf("unexpected peers: %+v", payload.Peers)
	}
}

func TestHandleRegisterActorAndListActors(t *testing.T) {
	s := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"actor": "supplier-acme"})
	req := httptest.NewRequest(http.MethodPost, "/actors/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	listReq := httptest.NewRequest(http.MethodGet, "/actors", nil)
	listRec := httptest.NewRecorder()
	s.ServeHTTP(listRec, listReq)
	var payload struct {
		Actors []string `json:"actors"`
	}
	if err := json.Unmarshal(listRec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode actors: %v", err)
	}
	if len(payload.Actors) != 1 || payload.Actors[0] != "supplier-acme" {
		t.Errorf("unexpected actors: %+v", payload.Actors)
	}
}
