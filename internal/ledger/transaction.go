package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrMissingBatchID = errors.New("transaction batch_id is required")
	ErrMissingActor   = errors.New("transaction actor is required")
	ErrUnknownAction  = errors.New("transaction action is not a recognized workflow step")
)

// Transaction is an immutable record of one workflow step performed against
// one batch. The zero value is not meaningful; construct with a struct
// literal or by decoding wire JSON.
type Transaction struct {
	BatchID   string            `json:"batch_id"`
	Action    Action            `json:"action"`
	Actor     string            `json:"actor"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp string            `json:"timestamp"`
	Signature string            `json:"signature,omitempty"`
	PublicKey string            `json:"public_key,omitempty"`
}

// Key is the composite dedup key (batch_id, action, timestamp) spec.md
// requires to be unique across the union of chain and mempool.
func (tx Transaction) Key() string {
	return tx.BatchID + "\x00" + string(tx.Action) + "\x00" + tx.Timestamp
}

// Validate checks the structural fields every transaction must carry,
// independent of workflow order, role or signature (those are the
// validator package's concern — this is the shape check a malformed
// request fails before it ever reaches the workflow rules).
func (tx Transaction) Validate() error {
	if tx.BatchID == "" {
		return ErrMissingBatchID
	}
	if tx.Actor == "" {
		return ErrMissingActor
	}
	if !tx.Action.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, tx.Action)
	}
	return nil
}

// Signed reports whether the transaction carries a signature.
func (tx Transaction) Signed() bool {
	return tx.Signature != ""
}

// CanonicalSignedForm returns the byte-exact JSON this transaction's
// signature is computed (and verified) over: the transaction with
// signature and public_key removed, sorted keys, no insignificant
// whitespace. Any code that mutates a transaction's signed fields after
// this has been computed, without recomputing it, introduces a
// verification bug — see spec.md §3.
func (tx Transaction) CanonicalSignedForm() ([]byte, error) {
	metadata := tx.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	fields := map[string]any{
		"batch_id":  tx.BatchID,
		"action":    string(tx.Action),
		"actor":     tx.Actor,
		"metadata":  metadata,
		"timestamp": tx.Timestamp,
	}
	return canonicalJSON(fields)
}

// wireFields renders the full transaction, including signature and
// public_key, as the map a Block hashes its transaction list from.
func (tx Transaction) wireFields() map[string]any {
	metadata := tx.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	return map[string]any{
		"batch_id":   tx.BatchID,
		"action":     string(tx.Action),
		"actor":      tx.Actor,
		"metadata":   metadata,
		"timestamp":  tx.Timestamp,
		"signature":  tx.Signature,
		"public_key": tx.PublicKey,
	}
}

// DigestHex returns a hex SHA-256 digest of the transaction's canonical
// signed form. Used for logging and as a short reference, not as the
// signing input itself (which is CanonicalSignedForm's raw bytes).
func (tx Transaction) DigestHex() (string, error) {
	b, err := tx.CanonicalSignedForm()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
