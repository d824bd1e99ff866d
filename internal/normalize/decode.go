package normalize

import (
	"fmt"

	"cobrancas/internal/core"
)

// DecodeNewAgreement reads a registration request keyed like a ledger record.
// Unlike Normalize it rejects missing or malformed values; errors wrap the
// core validation sentinels and name the offending key.
func DecodeNewAgreement(raw core.RawRecord) (core.NewAgreement, error) {
	n := core.NewAgreement{Frequency: core.Monthly}

	key, v, ok := Resolve(raw, FieldClientName)
	if !ok {
		return n, fmt.Errorf("%s: %w", firstKey(FieldClientName), core.ErrEmptyClientName)
	}
	n.ClientName, _ = toString(v)

	if _, v, ok := Resolve(raw, FieldPhone); ok {
		n.Phone, _ = toString(v)
	}
	if _, v, ok := Resolve(raw, FieldDescription); ok {
		n.Description, _ = toString(v)
	}

	key, v, ok = Resolve(raw, FieldInstallmentAmount)
	if !ok {
		return n, fmt.Errorf("%s: %w", firstKey(FieldInstallmentAmount), core.ErrInvalidAmount)
	}
	amount, ok := toDecimal(v)
	if !ok || !amount.IsPositive() {
		return n, fmt.Errorf("%s: %w", key, core.ErrInvalidAmount)
	}
	m, err := core.MoneyFromDecimal(amount)
	if err != nil {
		return n, fmt.Errorf("%s: %w", key, err)
	}
	n.InstallmentAmount = m

	key, v, ok = Resolve(raw, FieldStartDate)
	if !ok {
		return n, fmt.Errorf("%s: %w", firstKey(FieldStartDate), core.ErrInvalidStartDate)
	}
	if n.StartDate, ok = toDate(v); !ok {
		return n, fmt.Errorf("%s: %w", key, core.ErrInvalidStartDate)
	}

	if key, v, ok := Resolve(raw, FieldFrequency); ok {
		s, _ := toString(v)
		f, known := LookupFrequency(s)
		if !known {
			return n, fmt.Errorf("%s: %w", key, core.ErrInvalidFrequency)
		}
		n.Frequency = f
	}

	if key, v, ok := Resolve(raw, FieldInstallmentsPaid); ok {
		paid, valid := toInt(v)
		if !valid || paid < 0 {
			return n, fmt.Errorf("%s: %w", key, core.ErrInvalidInstallments)
		}
		n.InstallmentsPaid = paid
	}

	key, v, ok = Resolve(raw, FieldTotalInstallments)
	if !ok {
		return n, fmt.Errorf("%s: %w", firstKey(FieldTotalInstallments), core.ErrInvalidInstallments)
	}
	total, valid := toInt(v)
	if !valid || total < 1 {
		return n, fmt.Errorf("%s: %w", key, core.ErrInvalidInstallments)
	}
	n.TotalInstallments = total

	if err := n.Validate(); err != nil {
		return n, err
	}
	return n, nil
}

func firstKey(field string) string {
	if keys := KeysFor(field); len(keys) > 0 {
		return keys[0]
	}
	return field
}
