package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Domain prefixes for content-addressed identity. The version suffix
// enables future algorithm migration.
const (
	DomainTurn = "opendial/turn/v1"
)

// hashWithDomain computes SHA-256 over domain-separated fields.
// Format: SHA256(domain + (0x00 + field)*). The null separators prevent
// boundary ambiguity between fields.
func hashWithDomain(domain string, fields ...string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	for _, f := range fields {
		h.Write([]byte{0x00})
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// TurnID computes the content-addressed identifier of one recorded turn.
// The ID is stable across restarts given the same session, sequence, rule,
// and canonical input/effect forms, which makes turn writes idempotent.
func TurnID(sessionToken string, seq int64, ruleID, input, effect string) string {
	return hashWithDomain(DomainTurn,
		sessionToken, strconv.FormatInt(seq, 10), ruleID, input, effect)
}
