package solana

import (
	"unicode/utf8"

	"github.com/mr-tron/base58"
)

// MemoProgramID is the canonical SPL memo program.
const MemoProgramID = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"

// DecodeMemo recovers the memo text from instruction data. RPC nodes are not
// consistent about the encoding: some return the raw UTF-8 text, others the
// base58 encoding of it. Try base58 first and fall back to the literal string.
//
// TODO: settle on one accepted encoding per RPC provider; the fallback means a
// memo that happens to be valid base58 of different bytes decodes ambiguously.
func DecodeMemo(data string) string {
	if decoded, err := base58.Decode(data); err == nil && len(decoded) > 0 && utf8.Valid(decoded) {
		return string(decoded)
	}
	return data
}
