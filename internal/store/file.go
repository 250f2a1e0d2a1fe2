package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists a replica's state as three JSON documents in a
// directory: chain.json (an array of raw block JSON), mempool.json (an
// ordered array of {key, tx} records) and nodes.json (an array of peer
// URLs). It trades the SQL backend's durability-under-partial-write for
// zero external dependencies; every write rewrites its whole document,
// as the data volumes this system expects (a handful of replicas, a
// bounded-size mempool) make that an acceptable cost.
type FileStore struct {
	dir string
}

type mempoolRecord struct {
	Key string          `json:"key"`
	Tx  json.RawMessage `json:"tx"`
}

// OpenFileStore opens (creating if necessary) a directory-backed store
// at dir.
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create dir %s: %w", dir, err)
	}
	fs := &FileStore{dir: dir}
	for _, name := range []string{"chain.json", "mempool.json", "nodes.json"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
				return nil, fmt.Errorf("store: init %s: %w", name, err)
			}
		}
	}
	return fs, nil
}

func (fs *FileStore) chainPath() string   { return filepath.Join(fs.dir, "chain.json") }
func (fs *FileStore) mempoolPath() string { return filepath.Join(fs.dir, "mempool.json") }
func (fs *FileStore) nodesPath() string   { return filepath.Join(fs.dir, "nodes.json") }

func readJSONArray(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("store: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("store: decode %s: %w", path, err)
	}
	return nil
}

func writeJSONArray(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	return nil
}

func (fs *FileStore) loadChainRaw() ([]json.RawMessage, error) {
	var blocks []json.RawMessage
	if err := readJSONArray(fs.chainPath(), &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (fs *FileStore) AppendBlock(index int64, blockJSON []byte) error {
	blocks, err := fs.loadChainRaw()
	if err != nil {
		return err
	}
	blocks = append(blocks, json.RawMessage(blockJSON))
	return writeJSONArray(fs.chainPath(), blocks)
}

func (fs *FileStore) LoadChain() ([][]byte, error) {
	blocks, err := fs.loadChainRaw()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(blocks))
	for i, b := range blocks {
		out[i] = []byte(b)
	}
	return out, nil
}

func (fs *FileStore) ReplaceChain(blocks [][]byte) error {
	raw := make([]json.RawMessage, len(blocks))
	for i, b := range blocks {
		raw[i] = json.RawMessage(b)
	}
	return writeJSONArray(fs.chainPath(), raw)
}

func (fs *FileStore) loadMempoolRecords() ([]mempoolRecord, error) {
	var records []mempoolRecord
	if err := readJSONArray(fs.mempoolPath(), &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (fs *FileStore) InsertMempoolTx(key string, txJSON []byte) error {
	records, err := fs.loadMempoolRecords()
	if err != nil {
		return err
	}
	records = append(records, mempoolRecord{Key: key, Tx: json.RawMessage(txJSON)})
	return writeJSONArray(fs.mempoolPath(), records)
}

func (fs *FileStore) DeleteMempoolTx(key string) error {
	records, err := fs.loadMempoolRecords()
	if err != nil {
		return err
	}
	filtered := records[:0:0]
	for _, r := range records {
		if r.Key != key {
			filtered = append(filtered, r)
		}
	}
	return writeJSONArray(fs.mempoolPath(), filtered)
}

func (fs *FileStore) ClearMempool() error {
	return writeJSONArray(fs.mempoolPath(), []mempoolRecord{})
}

func (fs *FileStore) LoadMempool() ([][]byte, error) {
	records, err := fs.loadMempoolRecords()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(records))
	for i, r := range records {
		out[i] = []byte(r.Tx)
	}
	return out, nil
}

func (fs *FileStore) loadPeerList() ([]string, error) {
	var peers []string
	if err := readJSONArray(fs.nodesPath(), &peers); err != nil {
		return nil, err
	}
	return peers, nil
}

func (fs *FileStore) InsertPeer(url string) error {
	peers, err := fs.loadPeerList()
	if err != nil {
		return err
	}
	for _, p := range peers {
		if p == url {
			return nil
		}
	}
	peers = append(peers, url)
	return writeJSONArray(fs.nodesPath(), peers)
}

func (fs *FileStore) DeletePeer(url string) error {
	peers, err := fs.loadPeerList()
	if err != nil {
		return err
	}
	filtered := peers[:0:0]
	for _, p := range peers {
		if p != url {
			filtered = append(filtered, p)
		}
	}
	return writeJSONArray(fs.nodesPath(), filtered)
}

func (fs *FileStore) LoadPeers() ([]string, error) {
	return fs.loadPeerList()
}

func (fs *FileStore) Close() error {
	return nil
}
