// Package normalize maps agreement records produced by any historical
// version of the ledger backend onto core.Agreement.
//
// Every field is resolved through an ordered list of source keys: the first
// key holding a present value wins, and a value that cannot be coerced falls
// back to the field default. Normalization never fails.
package normalize

import (
	"github.com/google/uuid"

	"cobrancas/internal/core"
)

// Canonical field names.
const (
	FieldID                = "id"
	FieldClientName        = "client_name"
	FieldDescription       = "description"
	FieldStartDate         = "start_date"
	FieldFrequency         = "frequency"
	FieldInstallmentsPaid  = "installments_paid"
	FieldTotalInstallments = "total_installments"
	FieldInstallmentAmount = "installment_amount"
	FieldPhone             = "phone"
)

// Field lists the record keys a canonical field may be read from, in priority order.
type Field struct {
	Name string
	Keys []string
}

// Fields is the resolution table. The first key of each entry is the one
// written back by Canonical.
var Fields = []Field{
	{Name: FieldID, Keys: []string{"id", "id_cliente", "_id"}},
	{Name: FieldClientName, Keys: []string{"nome_cliente", "nome"}},
	{Name: FieldDescription, Keys: []string{"descricao", "servico"}},
	{Name: FieldStartDate, Keys: []string{"data_inicio", "vencimento"}},
	{Name: FieldFrequency, Keys: []string{"frequencia", "tipo_pagamento"}},
	{Name: FieldInstallmentsPaid, Keys: []string{"parcelas_pagas", "parcela_atual", "parcelaAtual"}},
	{Name: FieldTotalInstallments, Keys: []string{"total_parcelas", "totalParcelas"}},
	{Name: FieldInstallmentAmount, Keys: []string{"valor", "valor_parcela"}},
	{Name: FieldPhone, Keys: []string{"telefone"}},
}

var fieldIndex = func() map[string]Field {
	m := make(map[string]Field, len(Fields))
	for _, f := range Fields {
		m[f.Name] = f
	}
	return m
}()

// NewID generates identifiers for records that carry none. Tests may replace it.
var NewID = func() string {
	return uuid.NewString()
}

// KeysFor returns the source keys of a canonical field.
func KeysFor(field string) []string {
	return fieldIndex[field].Keys
}

// Resolve returns the first present value for field along with the key it was read from.
func Resolve(raw core.RawRecord, field string) (key string, value any, ok bool) {
	for _, k := range fieldIndex[field].Keys {
		v, exists := raw[k]
		if exists && isPresent(v) {
			return k, v, true
		}
	}
	return "", nil, false
}

// RecordID returns the identifier stored in raw, rendered the way Normalize
// renders it. It reports false when raw carries no usable identifier.
func RecordID(raw core.RawRecord) (string, bool) {
	_, v, ok := Resolve(raw, FieldID)
	if !ok {
		return "", false
	}
	s, ok := toString(v)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Normalize converts raw into a canonical agreement.
func Normalize(raw core.RawRecord) core.Agreement {
	a := core.Agreement{
		ClientName:        core.DefaultClientName,
		Frequency:         core.Monthly,
		TotalInstallments: 1,
	}

	if id, ok := RecordID(raw); ok {
		a.ID = id
	} else {
		a.ID = NewID()
	}
	if _, v, ok := Resolve(raw, FieldClientName); ok {
		if s, ok := toString(v); ok && s != "" {
			a.ClientName = s
		}
	}
	if _, v, ok := Resolve(raw, FieldDescription); ok {
		if s, ok := toString(v); ok {
			a.Description = s
		}
	}
	if _, v, ok := Resolve(raw, FieldStartDate); ok {
		if d, ok := toDate(v); ok {
			a.StartDate = d
		}
	}
	if _, v, ok := Resolve(raw, FieldFrequency); ok {
		if s, ok := toString(v); ok {
			a.Frequency = ParseFrequency(s)
		}
	}
	if _, v, ok := Resolve(raw, FieldInstallmentsPaid); ok {
		if n, ok := toInt(v); ok && n >= 0 {
			a.InstallmentsPaid = n
		}
	}
	if _, v, ok := Resolve(raw, FieldTotalInstallments); ok {
		if n, ok := toInt(v); ok && n >= 1 {
			a.TotalInstallments = n
		}
	}
	if _, v, ok := Resolve(raw, FieldInstallmentAmount); ok {
		if d, ok := toDecimal(v); ok {
			if m, err := core.MoneyFromDecimal(d); err == nil {
				a.InstallmentAmount = m
			}
		}
	}
	if _, v, ok := Resolve(raw, FieldPhone); ok {
		if s, ok := toString(v); ok {
			a.Phone = s
		}
	}
	return a
}

// NormalizeAll normalizes every record, preserving order.
func NormalizeAll(raws []core.RawRecord) []core.Agreement {
	out := make([]core.Agreement, len(raws))
	for i, raw := range raws {
		out[i] = Normalize(raw)
	}
	return out
}

// Canonical encodes a into a record using the primary key of every field.
// Normalize(Canonical(a)) == a for any normalized agreement a.
func Canonical(a core.Agreement) core.RawRecord {
	raw := core.RawRecord{
		"id":             a.ID,
		"nome_cliente":   a.ClientName,
		"descricao":      a.Description,
		"frequencia":     a.Frequency.Label(),
		"parcelas_pagas": a.InstallmentsPaid,
		"total_parcelas": a.TotalInstallments,
		"valor":          a.InstallmentAmount.String(),
		"telefone":       a.Phone,
	}
	if !a.StartDate.IsEmpty() {
		raw["data_inicio"] = a.StartDate.String()
	}
	return raw
}

// Record encodes a new agreement as it is first written to a ledger, with
// the contract total under "valor_total".
func Record(id string, n core.NewAgreement) core.RawRecord {
	raw := Canonical(core.Agreement{
		ID:                id,
		ClientName:        n.ClientName,
		Description:       n.Description,
		StartDate:         n.StartDate,
		Frequency:         n.Frequency,
		InstallmentsPaid:  n.InstallmentsPaid,
		TotalInstallments: n.TotalInstallments,
		InstallmentAmount: n.InstallmentAmount,
		Phone:             n.Phone,
	})
	raw["valor_total"] = n.TotalAmount().String()
	return raw
}
