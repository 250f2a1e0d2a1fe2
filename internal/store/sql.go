package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLStore persists a replica's state in a single sqlite3 file with
// three tables: chain(idx, block_json), mempool(key, tx_json, seq) and
// nodes(url). It is new code — the teacher's state.StateManager is
// in-memory only — but follows its locking contract: callers hold
// internal/replica's coarse mutex for the duration of any call here, so
// this type does no locking of its own.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens (creating if necessary) a sqlite3 database at path
// and ensures its schema exists.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite3 at %s: %w", path, err)
	}
	s := &SQLStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chain (
			idx INTEGER PRIMARY KEY,
			block_json TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS mempool (
			key TEXT PRIMARY KEY,
			tx_json TEXT NOT NULL,
			seq INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS nodes (
			url TEXT PRIMARY KEY
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) AppendBlock(index int64, blockJSON []byte) error {
	_, err := s.db.Exec(`INSERT INTO chain (idx, block_json) VALUES (?, ?)`, index, string(blockJSON))
	if err != nil {
		return fmt.Errorf("store: append block %d: %w", index, err)
	}
	return nil
}

func (s *SQLStore) LoadChain() ([][]byte, error) {
	rows, err := s.db.Query(`SELECT block_json FROM chain ORDER BY idx ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: load chain: %w", err)
	}
	defer rows.Close()

	var blocks [][]byte
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("store: scan block: %w", err)
		}
		blocks = append(blocks, []byte(raw))
	}
	return blocks, rows.Err()
}

func (s *SQLStore) ReplaceChain(blocks [][]byte) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: replace chain: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM chain`); err != nil {
		return fmt.Errorf("store: replace chain: clear: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO chain (idx, block_json) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("store: replace chain: prepare: %w", err)
	}
	defer stmt.Close()
	for i, b := range blocks {
		if _, err := stmt.Exec(int64(i), string(b)); err != nil {
			return fmt.Errorf("store: replace chain: insert block %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) InsertMempoolTx(key string, txJSON []byte) error {
	var maxSeq sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(seq) FROM mempool`).Scan(&maxSeq); err != nil {
		return fmt.Errorf("store: insert mempool tx: %w", err)
	}
	next := int64(0)
	if maxSeq.Valid {
		next = maxSeq.Int64 + 1
	}
	_, err := s.db.Exec(`INSERT INTO mempool (key, tx_json, seq) VALUES (?, ?, ?)`, key, string(txJSON), next)
	if err != nil {
		return fmt.Errorf("store: insert mempool tx %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) DeleteMempoolTx(key string) error {
	_, err := s.db.Exec(`DELETE FROM mempool WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("store: delete mempool tx %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) ClearMempool() error {
	if _, err := s.db.Exec(`DELETE FROM mempool`); err != nil {
		return fmt.Errorf("store: clear mempool: %w", err)
	}
	return nil
}

func (s *SQLStore) LoadMempool() ([][]byte, error) {
	rows, err := s.db.Query(`SELECT tx_json FROM mempool ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: load mempool: %w", err)
	}
	defer rows.Close()

	var txs [][]byte
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("store: scan mempool tx: %w", err)
		}
		txs = append(txs, []byte(raw))
	}
	return txs, rows.Err()
}

func (s *SQLStore) InsertPeer(url string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO nodes (url) VALUES (?)`, url)
	if err != nil {
		return fmt.Errorf("store: insert peer %s: %w", url, err)
	}
	return nil
}

func (s *SQLStore) DeletePeer(url string) error {
	_, err := s.db.Exec(`DELETE FROM nodes WHERE url = ?`, url)
	if err != nil {
		return fmt.Errorf("store: delete peer %s: %w", url, err)
	}
	return nil
}

func (s *SQLStore) LoadPeers() ([]string, error) {
	rows, err := s.db.Query(`SELECT url FROM nodes ORDER BY url ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: load peers: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("store: scan peer: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
