// Package ledger defines the ports every agreement store implements.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"cobrancas/internal/core"
)

var (
	ErrNotFound       = errors.New("agreement not found")
	ErrAlreadySettled = errors.New("agreement already settled")
)

// Ports for outbound adapters.
type (
	// AgreementLister returns every agreement record as stored, before normalization.
	AgreementLister interface {
		ListAgreements(ctx context.Context) ([]core.RawRecord, error)
	}

	AgreementCreator interface {
		CreateAgreement(ctx context.Context, n core.NewAgreement) (id string, err error)
	}

	// PaymentMarker settles the next unpaid installment of an agreement.
	PaymentMarker interface {
		MarkPaid(ctx context.Context, id string) error
	}

	// Store is the full ledger surface used by the sync coordinator.
	Store interface {
		AgreementLister
		AgreementCreator
		PaymentMarker
	}
)

// StatusError reports a non-success response from a remote ledger.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Status, e.Body)
}
