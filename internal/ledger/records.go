package ledger

import (
	"cobrancas/internal/core"
	"cobrancas/internal/normalize"
)

// IndexOf returns the position of the record whose identifier is id, or -1.
func IndexOf(raws []core.RawRecord, id string) int {
	for i, raw := range raws {
		if rid, ok := normalize.RecordID(raw); ok && rid == id {
			return i
		}
	}
	return -1
}

// IncrementPaid adds one settled installment to raw in place, writing back
// under whichever paid-count key the record already uses. It returns the key
// written and the new count.
func IncrementPaid(raw core.RawRecord) (key string, paid int, err error) {
	a := normalize.Normalize(raw)
	if a.IsExhausted() {
		return "", 0, ErrAlreadySettled
	}
	key, _, ok := normalize.Resolve(raw, normalize.FieldInstallmentsPaid)
	if !ok {
		key = normalize.KeysFor(normalize.FieldInstallmentsPaid)[0]
	}
	paid = a.InstallmentsPaid + 1
	raw[key] = paid
	return key, paid, nil
}
