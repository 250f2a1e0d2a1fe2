package p2p

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tracechain.io/replica/internal/ledger"
	"tracechain.io/replica/internal/replica"
)

// HTTPPeerClient implements replica.PeerClient over short-timeout HTTP
// calls, per spec.md §5's "short timeouts (canonical: 2-5 seconds) with
// failure treated as peer-unreachable; no retries at the call site."
type HTTPPeerClient struct {
	client *http.Client
}

// NewHTTPPeerClient returns a client whose requests are bounded by
// timeout.
func NewHTTPPeerClient(timeout time.Duration) *HTTPPeerClient {
	return &HTTPPeerClient{client: &http.Client{Timeout: timeout}}
}

var _ replica.PeerClient = (*HTTPPeerClient)(nil)

func (c *HTTPPeerClient) do(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// Status implements replica.PeerClient. Network errors are swallowed
// into Reachable: false, matching election.py's treatment of a peer
// that cannot be reached within the timeout as simply absent from the
// candidate pool.
func (c *HTTPPeerClient) Status(ctx context.Context, baseURL string) replica.PeerStatus {
	resp, err := c.do(ctx, http.MethodGet, baseURL+"/status", nil)
	if err != nil {
		return replica.PeerStatus{Reachable: false}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return replica.PeerStatus{Reachable: false}
	}
	var payload replica.StatusPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return replica.PeerStatus{Reachable: false}
	}
	return replica.PeerStatus{
		Hostname:    payload.Hostname,
		ChainLength: payload.ChainLength,
		Reachable:   true,
	}
}

func (c *HTTPPeerClient) ForwardTransaction(ctx context.Context, baseURL string, tx ledger.Transaction) (int, error) {
	resp, err := c.do(ctx, http.MethodPost, baseURL+"/add-transaction", tx)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func (c *HTTPPeerClient) ReplicateTransaction(ctx context.Context, baseURL string, tx ledger.Transaction) error {
	resp, err := c.do(ctx, http.MethodPost, baseURL+"/receive-transaction", tx)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("p2p: peer %s rejected transaction replication with status %d", baseURL, resp.StatusCode)
	}
	return nil
}

func (c *HTTPPeerClient) BroadcastBlock(ctx context.Context, baseURL string, block *ledger.Block) error {
	resp, err := c.do(ctx, http.MethodPost, baseURL+"/receive-block", block)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("p2p: peer %s rejected block broadcast with status %d", baseURL, resp.StatusCode)
	}
	return nil
}

func (c *HTTPPeerClient) FetchChain(ctx context.Context, baseURL string) ([]*ledger.Block, error) {
	resp, err := c.do(ctx, http.MethodGet, baseURL+"/chain", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("p2p: peer %s returned status %d for /chain", baseURL, resp.StatusCode)
	}
	var payload struct {
		Blocks []*ledger.Block `json:"blocks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Blocks, nil
}

func (c *HTTPPeerClient) RegisterNode(ctx context.Context, baseURL, selfURL string) error {
	resp, err := c.do(ctx, http.MethodPost, baseURL+"/nodes/register", map[string]string{"url": selfURL})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("p2p: peer %s rejected node registration with status %d", baseURL, resp.StatusCode)
	}
	return nil
}

func (c *HTTPPeerClient) FetchNodes(ctx context.Context, baseURL string) ([]string, error) {
	resp, err := c.do(ctx, http.MethodGet, baseURL+"/nodes", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("p2p: peer %s returned status %d for /nodes", baseURL, resp.StatusCode)
	}
	var payload struct {
		Peers []string `json:"peers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Peers, nil
}

func (c *HTTPPeerClient) FetchMempool(ctx context.Context, baseURL string) ([]ledger.Transaction, error) {
	resp, err := c.do(ctx, http.MethodGet, baseURL+"/mempool", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("p2p: peer %s returned status %d for /mempool", baseURL, resp.StatusCode)
	}
	var payload struct {
		Transactions []ledger.Transaction `json:"transactions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Transactions, nil
}
