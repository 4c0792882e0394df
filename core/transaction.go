package core

// ChainTransaction is the subset of a confirmed on-chain transaction the
// authorization gate inspects. Account keys and program ids are base58
// strings as returned by the RPC node.
type ChainTransaction struct {
	Signature             string
	BlockTime             int64
	NumRequiredSignatures int
	AccountKeys           []string
	Instructions          []ChainInstruction
}

// ChainInstruction is a single instruction with its program id resolved
// against the transaction's account key table.
type ChainInstruction struct {
	ProgramID string
	Data      string
}

// RequiredSigners returns the account keys that were required to sign the
// transaction, i.e. the first NumRequiredSignatures entries of the key table.
func (t *ChainTransaction) RequiredSigners() []string {
	n := t.NumRequiredSignatures
	if n > len(t.AccountKeys) {
		n = len(t.AccountKeys)
	}
	return t.AccountKeys[:n]
}
