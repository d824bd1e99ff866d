package normalize

import (
	"encoding/json"
	"errors"
	"testing"

	"cobrancas/internal/core"
)

func TestDecodeNewAgreement_OriginalFormPayload(t *testing.T) {
	raw := core.RawRecord{
		"nome_cliente":   "Ana",
		"telefone":       "11 99999-0000",
		"valor_parcela":  "150,00",
		"valor_total":    "600,00",
		"vencimento":     "2024-05-01",
		"tipo_pagamento": "Única",
		"parcela_atual":  "0",
		"total_parcelas": "1",
		"descricao":      "Logo",
	}

	got, err := DecodeNewAgreement(raw)
	if err != nil {
		t.Fatalf("DecodeNewAgreement() error = %v", err)
	}
	want := core.NewAgreement{
		ClientName:        "Ana",
		Phone:             "11 99999-0000",
		Description:       "Logo",
		InstallmentAmount: core.Money{Cents: 15000},
		StartDate:         core.NewDate(2024, 5, 1),
		Frequency:         core.Once,
		TotalInstallments: 1,
	}
	if got != want {
		t.Fatalf("DecodeNewAgreement() = %+v, want %+v", got, want)
	}
}

func TestDecodeNewAgreement_Defaults(t *testing.T) {
	got, err := DecodeNewAgreement(core.RawRecord{
		"nome_cliente":   "Bia",
		"valor":          json.Number("99.9"),
		"data_inicio":    "15/01/2024",
		"total_parcelas": json.Number("3"),
	})
	if err != nil {
		t.Fatalf("DecodeNewAgreement() error = %v", err)
	}
	if got.Frequency != core.Monthly || got.InstallmentsPaid != 0 || got.InstallmentAmount.Cents != 9990 {
		t.Errorf("DecodeNewAgreement() = %+v", got)
	}
}

func TestDecodeNewAgreement_Rejects(t *testing.T) {
	valid := func() core.RawRecord {
		return core.RawRecord{
			"nome_cliente":   "Ana",
			"valor_parcela":  "10",
			"vencimento":     "2024-05-01",
			"total_parcelas": 2,
		}
	}

	tests := []struct {
		name   string
		mutate func(core.RawRecord)
		want   error
	}{
		{"missing name", func(r core.RawRecord) { delete(r, "nome_cliente") }, core.ErrEmptyClientName},
		{"blank name", func(r core.RawRecord) { r["nome_cliente"] = "   " }, core.ErrEmptyClientName},
		{"missing amount", func(r core.RawRecord) { delete(r, "valor_parcela") }, core.ErrInvalidAmount},
		{"zero amount", func(r core.RawRecord) { r["valor_parcela"] = "0" }, core.ErrInvalidAmount},
		{"text amount", func(r core.RawRecord) { r["valor_parcela"] = "dez" }, core.ErrInvalidAmount},
		{"amount beyond int64 cents", func(r core.RawRecord) { r["valor_parcela"] = "99999999999999999999" }, core.ErrInvalidAmount},
		{"contract total beyond int64 cents", func(r core.RawRecord) {
			r["valor_parcela"] = "90000000000000"
			r["total_parcelas"] = 2000000
		}, core.ErrInvalidAmount},
		{"missing date", func(r core.RawRecord) { delete(r, "vencimento") }, core.ErrInvalidStartDate},
		{"bad date", func(r core.RawRecord) { r["vencimento"] = "2024-13-01" }, core.ErrInvalidStartDate},
		{"unknown frequency", func(r core.RawRecord) { r["tipo_pagamento"] = "quinzenal" }, core.ErrInvalidFrequency},
		{"negative paid", func(r core.RawRecord) { r["parcela_atual"] = -1 }, core.ErrInvalidInstallments},
		{"paid beyond total", func(r core.RawRecord) { r["parcela_atual"] = 3 }, core.ErrInvalidInstallments},
		{"missing total", func(r core.RawRecord) { delete(r, "total_parcelas") }, core.ErrInvalidInstallments},
		{"zero total", func(r core.RawRecord) { r["total_parcelas"] = "0" }, core.ErrInvalidInstallments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := valid()
			tt.mutate(raw)
			if _, err := DecodeNewAgreement(raw); !errors.Is(err, tt.want) {
				t.Errorf("DecodeNewAgreement() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLookupFrequency(t *testing.T) {
	if f, ok := LookupFrequency("Semanal"); !ok || f != core.Weekly {
		t.Errorf("LookupFrequency(Semanal) = %q, %v", f, ok)
	}
	if _, ok := LookupFrequency("quinzenal"); ok {
		t.Error("LookupFrequency(quinzenal) should be unknown")
	}
}
