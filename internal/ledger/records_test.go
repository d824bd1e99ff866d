package ledger

import (
	"encoding/json"
	"errors"
	"testing"

	"cobrancas/internal/core"
	"cobrancas/internal/normalize"
)

func TestIndexOf(t *testing.T) {
	raws := []core.RawRecord{
		{"id": "a"},
		{"id_cliente": 7},
		{"_id": "mongo"},
	}

	tests := []struct {
		id   string
		want int
	}{
		{"a", 0},
		{"7", 1},
		{"mongo", 2},
		{"missing", -1},
	}
	for _, tt := range tests {
		if got := IndexOf(raws, tt.id); got != tt.want {
			t.Errorf("IndexOf(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestIndexOfMatchesNormalizedID(t *testing.T) {
	raws := []core.RawRecord{
		{"id": " 7 "},
		{"id_cliente": 1e21},
		{"_id": json.Number("42")},
	}
	for i, raw := range raws {
		id := normalize.Normalize(raw).ID
		if got := IndexOf(raws, id); got != i {
			t.Errorf("IndexOf(%q) = %d, want %d", id, got, i)
		}
	}
}

func TestIncrementPaid(t *testing.T) {
	tests := []struct {
		name    string
		raw     core.RawRecord
		wantKey string
		want    int
		wantErr error
	}{
		{
			name:    "canonical key",
			raw:     core.RawRecord{"parcelas_pagas": 1, "total_parcelas": 3},
			wantKey: "parcelas_pagas",
			want:    2,
		},
		{
			name:    "historical key is kept",
			raw:     core.RawRecord{"parcela_atual": "2", "totalParcelas": "4"},
			wantKey: "parcela_atual",
			want:    3,
		},
		{
			name:    "missing count starts from zero",
			raw:     core.RawRecord{"total_parcelas": 2},
			wantKey: "parcelas_pagas",
			want:    1,
		},
		{
			name:    "settled agreement",
			raw:     core.RawRecord{"parcelas_pagas": 3, "total_parcelas": 3},
			wantErr: ErrAlreadySettled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, paid, err := IncrementPaid(tt.raw)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("IncrementPaid() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if key != tt.wantKey || paid != tt.want {
				t.Errorf("IncrementPaid() = %q, %d, want %q, %d", key, paid, tt.wantKey, tt.want)
			}
			if tt.raw[key] != tt.want {
				t.Errorf("record not updated: %v", tt.raw)
			}
		})
	}
}

func TestStatusError(t *testing.T) {
	err := &StatusError{Op: "list agreements", Status: 500, Body: "boom"}
	if got := err.Error(); got != "list agreements: unexpected status 500: boom" {
		t.Errorf("Error() = %q", got)
	}
	err.Body = ""
	if got := err.Error(); got != "list agreements: unexpected status 500" {
		t.Errorf("Error() = %q", got)
	}
}
