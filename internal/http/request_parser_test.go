package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cobrancas/internal/core"
)

func TestParseCreateRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/agreements", strings.NewReader(
		`{"nome_cliente":"  Ana\u0007 ","valor_parcela":150,"vencimento":"2024-05-01","tipo_pagamento":"mensal","parcela_atual":1,"total_parcelas":4,"descricao":"Site"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	n, err := ParseCreateRequest(req)
	if err != nil {
		t.Fatalf("ParseCreateRequest() error = %v", err)
	}
	want := core.NewAgreement{
		ClientName:        "Ana",
		Description:       "Site",
		InstallmentAmount: core.Money{Cents: 15000},
		StartDate:         core.NewDate(2024, 5, 1),
		Frequency:         core.Monthly,
		InstallmentsPaid:  1,
		TotalInstallments: 4,
	}
	if n != want {
		t.Errorf("ParseCreateRequest() = %+v, want %+v", n, want)
	}
}

func TestParseJSONRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"object", `{"a":1}`, false},
		{"empty", ``, true},
		{"null", `null`, true},
		{"array", `[1,2]`, true},
		{"truncated", `{"a":`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSONRequest(strings.NewReader(tt.body))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseJSONRequest(%q) error = %v, wantErr %v", tt.body, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello  ", "hello"},
		{"a\x00b", "ab"},
		{"tab\tok", "tab\tok"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
