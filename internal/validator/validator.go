// Package validator is the gate between the HTTP surface and the
// mempool: it runs the workflow-order, role/ownership,
// shipment-pairing and signature checks that decide whether a
// transaction may be admitted, generalizing the teacher's
// pkg/core_types field-by-field validation idiom from a single struct
// to a four-stage pipeline over chain and mempool history.
package validator

import (
	"fmt"
	"strings"

	"tracechain.io/replica/internal/ledger"
)

// Role is one of the three supply-chain participant roles.
type Role string

const (
	RoleSupplier    Role = "supplier"
	RoleDistributor Role = "distributor"
	RoleRetailer    Role = "retailer"
)

// predecessor maps each action to the action that MUST already appear
// in a batch's history before it is admissible. registered has no
// predecessor.
var predecessor = map[ledger.Action]ledger.Action{
	ledger.ActionQualityChecked: ledger.ActionRegistered,
	ledger.ActionShipped:        ledger.ActionQualityChecked,
	ledger.ActionReceived:       ledger.ActionShipped,
	ledger.ActionStored:         ledger.ActionReceived,
	ledger.ActionDelivered:      ledger.ActionStored,
	ledger.ActionReceivedRetail: ledger.ActionDelivered,
	ledger.ActionSold:           ledger.ActionReceivedRetail,
}

// expectedRole maps each action to the role permitted to perform it.
var expectedRole = map[ledger.Action]Role{
	ledger.ActionRegistered:     RoleSupplier,
	ledger.ActionQualityChecked: RoleSupplier,
	ledger.ActionShipped:        RoleSupplier,
	ledger.ActionReceived:       RoleDistributor,
	ledger.ActionStored:         RoleDistributor,
	ledger.ActionDelivered:      RoleDistributor,
	ledger.ActionReceivedRetail: RoleRetailer,
	ledger.ActionSold:           RoleRetailer,
}

// History is the read-only view into prior transactions the validator
// needs: the chain's committed history for a batch and the mempool's
// pending history for the same batch, each already in chronological
// order. internal/replica builds this from its chain and mempool;
// the validator never touches storage directly.
type History struct {
	Chain   []ledger.Transaction
	Mempool []ledger.Transaction
}

// prior returns Chain followed by Mempool, the full ordered history
// this batch has accrued so far.
func (h History) prior() []ledger.Transaction {
	out := make([]ledger.Transaction, 0, len(h.Chain)+len(h.Mempool))
	out = append(out, h.Chain...)
	out = append(out, h.Mempool...)
	return out
}

func (h History) hasAction(a ledger.Action) bool {
	for _, tx := range h.prior() {
		if tx.Action == a {
			return true
		}
	}
	return false
}

func (h History) lastAction(a ledger.Action) (ledger.Transaction, bool) {
	prior := h.prior()
	for i := len(prior) - 1; i >= 0; i-- {
		if prior[i].Action == a {
			return prior[i], true
		}
	}
	return ledger.Transaction{}, false
}

func (h History) lastTransaction() (ledger.Transaction, bool) {
	prior := h.prior()
	if len(prior) == 0 {
		return ledger.Transaction{}, false
	}
	return prior[len(prior)-1], true
}

// SignatureVerifier checks a transaction's signature against the key on
// file for its actor. internal/signer.Manager satisfies this.
type SignatureVerifier interface {
	Verify(tx ledger.Transaction) error
}

// Options configures a single Validate call.
type Options struct {
	// RequireSignatures enables cryptographic enforcement (check 4).
	// When false, signatures are never checked, matching --no-crypto.
	RequireSignatures bool
	Verifier          SignatureVerifier
}

// Validate runs the four-stage admission pipeline against tx, given the
// batch's prior history. It is pure aside from reads through Verifier;
// the first failing check short-circuits and returns its reason.
func Validate(tx ledger.Transaction, history History, opts Options) (accepted bool, reason string) {
	if ok, reason := ValidateWorkflow(tx, history); !ok {
		return false, reason
	}
	if opts.RequireSignatures {
		if ok, reason := validateSignature(tx, opts.Verifier); !ok {
			return false, reason
		}
	}
	return true, ""
}

// ValidateWorkflow runs checks 1-3 only (structural shape, workflow
// order, role/ownership, shipment pairing) without touching signatures.
// Callers that need to distinguish a signature failure (401) from every
// other validation failure (400) run this first and VerifySignature
// second, rather than calling Validate.
func ValidateWorkflow(tx ledger.Transaction, history History) (accepted bool, reason string) {
	if err := tx.Validate(); err != nil {
		return false, err.Error()
	}
	if ok, reason := validateWorkflowOrder(tx, history); !ok {
		return false, reason
	}
	if ok, reason := validateRoleAndOwnership(tx, history); !ok {
		return false, reason
	}
	if ok, reason := validateShipmentPairing(tx, history); !ok {
		return false, reason
	}
	return true, ""
}

// VerifySignature runs check 4 in isolation.
func VerifySignature(tx ledger.Transaction, opts Options) (accepted bool, reason string) {
	if !opts.RequireSignatures {
		return true, ""
	}
	return validateSignature(tx, opts.Verifier)
}

func validateWorkflowOrder(tx ledger.Transaction, history History) (bool, string) {
	if history.hasAction(tx.Action) {
		return false, fmt.Sprintf("action %q has already been performed for this batch", tx.Action)
	}
	want, needsPredecessor := predecessor[tx.Action]
	if !needsPredecessor {
		return true, ""
	}
	if !history.hasAction(want) {
		return false, fmt.Sprintf("action %q requires prior action %q, which has not been recorded for this batch", tx.Action, want)
	}
	return true, ""
}

// roleGroup identifies which of the three role-internal stage groups an
// action belongs to, used by the same-actor-within-group rule.
func roleGroup(a ledger.Action) Role {
	return expectedRole[a]
}

func hasRolePrefix(actor string, role Role) bool {
	return strings.HasPrefix(strings.ToLower(actor), string(role))
}

func validateRoleAndOwnership(tx ledger.Transaction, history History) (bool, string) {
	role, ok := expectedRole[tx.Action]
	if !ok {
		return false, fmt.Sprintf("action %q has no configured role", tx.Action)
	}
	if !hasRolePrefix(tx.Actor, role) {
		return false, fmt.Sprintf("action %q requires an actor identity prefixed %q, got %q", tx.Action, role, tx.Actor)
	}

	// Same-actor-within-group: for any action whose group already has a
	// prior touch on this batch, the actor must match that prior actor.
	for i := len(history.prior()) - 1; i >= 0; i-- {
		prev := history.prior()[i]
		if roleGroup(prev.Action) == role {
			if !strings.EqualFold(prev.Actor, tx.Actor) {
				return false, fmt.Sprintf("actor %q does not match %q, the actor who previously handled this batch within the %s group", tx.Actor, prev.Actor, role)
			}
			break
		}
	}
	return true, ""
}

func validateShipmentPairing(tx ledger.Transaction, history History) (bool, string) {
	switch tx.Action {
	case ledger.ActionReceived:
		return validatePairing(tx, history, ledger.ActionShipped, "shipped")
	case ledger.ActionReceivedRetail:
		return validatePairing(tx, history, ledger.ActionDelivered, "delivered")
	default:
		return true, ""
	}
}

func validatePairing(tx ledger.Transaction, history History, pairAction ledger.Action, pairLabel string) (bool, string) {
	pair, found := history.lastAction(pairAction)
	if !found {
		return false, fmt.Sprintf("action %q has no corresponding %q transaction to pair against", tx.Action, pairLabel)
	}
	from := tx.Metadata["from"]
	if !strings.EqualFold(from, pair.Actor) {
		return false, fmt.Sprintf("%s.metadata.from %q does not match the %s actor %q", tx.Action, from, pairLabel, pair.Actor)
	}
	if to, present := pair.Metadata["to"]; present && to != "" {
		if !strings.EqualFold(to, tx.Actor) {
			return false, fmt.Sprintf("%s.metadata.to %q does not match the receiving actor %q", pairLabel, to, tx.Actor)
		}
	}
	return true, ""
}

func validateSignature(tx ledger.Transaction, verifier SignatureVerifier) (bool, string) {
	if !tx.Signed() {
		return true, ""
	}
	if tx.Timestamp == "" {
		return false, "signed transactions must carry a client-supplied timestamp"
	}
	if verifier == nil {
		return false, "signature verification is enabled but no verifier is configured"
	}
	if err := verifier.Verify(tx); err != nil {
		return false, fmt.Sprintf("signature verification failed: %v", err)
	}
	return true, ""
}
