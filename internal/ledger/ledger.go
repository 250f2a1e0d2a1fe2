// Package ledger defines the block and transaction data model shared by
// every other subsystem of a TraceChain replica: canonical serialization,
// hashing, proof-of-work, and the eight-step workflow vocabulary.
package ledger

// Action is one of the eight canonical supply-chain workflow verbs.
type Action string

const (
	ActionRegistered      Action = "registered"
	ActionQualityChecked  Action = "quality_checked"
	ActionShipped         Action = "shipped"
	ActionReceived        Action = "received"
	ActionStored          Action = "stored"
	ActionDelivered       Action = "delivered"
	ActionReceivedRetail  Action = "received_retail"
	ActionSold            Action = "sold"
)

// Workflow is the canonical ordering of actions a batch must follow.
// validator.go generalizes this into a predecessor map; it lives here
// because it is part of the data model's vocabulary, not a validation rule.
var Workflow = []Action{
	ActionRegistered,
	ActionQualityChecked,
	ActionShipped,
	ActionReceived,
	ActionStored,
	ActionDelivered,
	ActionReceivedRetail,
	ActionSold,
}

// Valid reports whether a is one of the eight known workflow actions.
func (a Action) Valid() bool {
	for _, known := range Workflow {
		if a == known {
			return true
		}
	}
	return false
}
