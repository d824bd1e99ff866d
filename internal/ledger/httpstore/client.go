// Package httpstore talks to the remote ledger API: GET /clientes,
// POST /adicionar_cliente and POST /marcar_pago.
package httpstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"cobrancas/internal/core"
	"cobrancas/internal/ledger"
	"cobrancas/internal/normalize"
)

const (
	pathList     = "/clientes"
	pathCreate   = "/adicionar_cliente"
	pathMarkPaid = "/marcar_pago"

	maxErrorBody = 512
)

var _ ledger.Store = (*Client)(nil)

type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
}

type Option func(*Client)

// WithDial replaces the dialer, e.g. with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

// New creates a client for the ledger API at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("missing LEDGER_API_URL")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: baseURL,
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                "cobrancas",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 90 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// createPayload is the body accepted by POST /adicionar_cliente.
type createPayload struct {
	ClientName        string `json:"nome_cliente"`
	Phone             string `json:"telefone"`
	Description       string `json:"descricao,omitempty"`
	InstallmentAmount string `json:"valor_parcela"`
	TotalAmount       string `json:"valor_total"`
	StartDate         string `json:"vencimento"`
	Frequency         string `json:"tipo_pagamento"`
	InstallmentsPaid  int    `json:"parcela_atual"`
	TotalInstallments int    `json:"total_parcelas"`
}

type markPaidPayload struct {
	ID string `json:"id_cliente"`
}

// ListAgreements fetches every agreement record. The API may answer with a
// bare array or with an object wrapping it under "clientes".
func (c *Client) ListAgreements(ctx context.Context) ([]core.RawRecord, error) {
	body, err := c.do(ctx, "list agreements", fasthttp.MethodGet, pathList, nil)
	if err != nil {
		return nil, err
	}
	return decodeRecords(body)
}

// CreateAgreement registers an agreement and returns the identifier the API
// assigned, or "" when the response carries none.
func (c *Client) CreateAgreement(ctx context.Context, n core.NewAgreement) (string, error) {
	if err := n.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	payload, err := json.Marshal(createPayload{
		ClientName:        n.ClientName,
		Phone:             n.Phone,
		Description:       n.Description,
		InstallmentAmount: n.InstallmentAmount.String(),
		TotalAmount:       n.TotalAmount().String(),
		StartDate:         n.StartDate.String(),
		Frequency:         n.Frequency.Label(),
		InstallmentsPaid:  n.InstallmentsPaid,
		TotalInstallments: n.TotalInstallments,
	})
	if err != nil {
		return "", fmt.Errorf("encode agreement: %w", err)
	}
	body, err := c.do(ctx, "create agreement", fasthttp.MethodPost, pathCreate, payload)
	if err != nil {
		return "", err
	}
	return decodeID(body), nil
}

// MarkPaid asks the API to settle the next installment of agreement id.
func (c *Client) MarkPaid(ctx context.Context, id string) error {
	payload, err := json.Marshal(markPaidPayload{ID: id})
	if err != nil {
		return fmt.Errorf("encode mark paid: %w", err)
	}
	_, err = c.do(ctx, "mark paid", fasthttp.MethodPost, pathMarkPaid, payload)
	var se *ledger.StatusError
	if errors.As(err, &se) && se.Status == fasthttp.StatusNotFound {
		return fmt.Errorf("%w: %w", ledger.ErrNotFound, err)
	}
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if payload != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		body := resp.Body()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &ledger.StatusError{Op: op, Status: status, Body: strings.TrimSpace(string(body))}
	}
	return append([]byte(nil), resp.Body()...), nil
}

func decodeRecords(body []byte) ([]core.RawRecord, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if body[0] == '{' {
		var wrapped struct {
			Clientes []core.RawRecord `json:"clientes"`
		}
		if err := dec.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("decode agreements: %w", err)
		}
		return wrapped.Clientes, nil
	}
	var records []core.RawRecord
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode agreements: %w", err)
	}
	return records, nil
}

func decodeID(body []byte) string {
	var raw core.RawRecord
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return ""
	}
	id, _ := normalize.RecordID(raw)
	return id
}
