package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// BatchCounter tracks how often each content signature has been seen within
// one import batch. It is created empty at batch start and discarded at batch
// end; it is never shared between batches or persisted.
type BatchCounter map[string]int

// NewBatchCounter returns an empty counter for one import run.
func NewBatchCounter() BatchCounter {
	return make(BatchCounter)
}

// next returns the occurrence index for a signature and advances the counter.
func (c BatchCounter) next(signature string) int {
	n := c[signature]
	c[signature] = n + 1
	return n
}

// idPrefixes map a provider tag to the prefix of its generated IDs. SimpleFIN
// IDs are the source's own globally unique identifiers and carry no prefix.
var idPrefixes = map[string]string{
	ProviderManualCSV:        "csv_",
	ProviderSplitwise:        "sw_",
	ProviderSplitwisePayer:   "sw_",
	ProviderSplitwisePayment: "sw_",
}

// AssignID computes the stable identifier for a canonical transaction.
//
// When the source supplies a globally unique native identifier the ID is
// prefix + nativeID, exact and collision-free. Otherwise the ID derives from
// the content signature date|payee|amount plus the signature's occurrence
// index within this batch, so identical rows in one file keep distinct,
// deterministic identities.
//
// The signature path is only stable while the source preserves row order
// between exports: a reordered export reassigns occurrence indexes among rows
// sharing a signature. Known limitation, kept as-is.
func AssignID(t *CanonicalTransaction, counter BatchCounter) string {
	prefix := idPrefixes[t.Provider]

	if t.ExternalRef != "" {
		return prefix + t.ExternalRef
	}

	// Amount serialized via decimal.String(): minimal fixed-point form, the
	// fixed canonicalization rule that makes re-runs reproduce the same IDs.
	signature := t.Date + "|" + t.Payee + "|" + t.Amount.String()
	occurrence := counter.next(signature)

	sum := md5.Sum(fmt.Appendf(nil, "%s|%d", signature, occurrence))

	return prefix + hex.EncodeToString(sum[:])
}
