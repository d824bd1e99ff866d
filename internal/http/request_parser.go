// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"cobrancas/internal/core"
	"cobrancas/internal/normalize"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

var errEmptyBody = errors.New("empty request body")

// ParseCreateRequest reads an agreement registration from a JSON or
// form-encoded body. Keys follow the ledger record naming (nome_cliente,
// valor_parcela, vencimento, tipo_pagamento, parcela_atual, total_parcelas).
func ParseCreateRequest(r *http.Request) (core.NewAgreement, error) {
	raw, err := readRecord(r)
	if err != nil {
		return core.NewAgreement{}, err
	}
	for k, v := range raw {
		if s, ok := v.(string); ok {
			raw[k] = sanitizeInput(s)
		}
	}
	n, err := normalize.DecodeNewAgreement(raw)
	if err != nil {
		return core.NewAgreement{}, fmt.Errorf("invalid agreement: %w", err)
	}
	return n, nil
}

func readRecord(r *http.Request) (core.RawRecord, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		raw := make(core.RawRecord, len(r.PostForm))
		for k := range r.PostForm {
			raw[k] = r.PostForm.Get(k)
		}
		return raw, nil
	default:
		return ParseJSONRequest(io.LimitReader(r.Body, maxBodyBytes))
	}
}

// ParseJSONRequest decodes a JSON object, keeping numbers exact.
func ParseJSONRequest(body io.Reader) (core.RawRecord, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw core.RawRecord
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptyBody
		}
		return nil, fmt.Errorf("decode JSON body: %w", err)
	}
	if raw == nil {
		return nil, errEmptyBody
	}
	return raw, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
