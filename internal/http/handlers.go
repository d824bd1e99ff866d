package http

import (
	"errors"
	"net/http"

	"cobrancas/internal/core"
	"cobrancas/internal/ledger"
	applog "cobrancas/internal/log"
	"cobrancas/internal/services"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once a ledger fetch has succeeded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	snap := s.coord.Snapshot()
	if snap.FetchedAt.IsZero() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// ensureLoaded fetches the agreements once when nothing was fetched yet.
func (s *Server) ensureLoaded(r *http.Request) services.Snapshot {
	snap := s.coord.Snapshot()
	if snap.FetchedAt.IsZero() && snap.Err == nil {
		_, _ = s.coord.Refresh(r.Context())
		snap = s.coord.Snapshot()
	}
	return snap
}

func (s *Server) handleDue(w http.ResponseWriter, r *http.Request) {
	snap := s.ensureLoaded(r)
	today := s.today()
	items := services.BuildDueList(snap.Agreements, today)
	writeJSON(r.Context(), w, http.StatusOK, newListResponse(items, snap, today))
}

func (s *Server) handleAgreements(w http.ResponseWriter, r *http.Request) {
	snap := s.ensureLoaded(r)
	today := s.today()
	items := services.EvaluateAll(snap.Agreements, today)
	writeJSON(r.Context(), w, http.StatusOK, newListResponse(items, snap, today))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, err := s.coord.Refresh(ctx)
	snap := s.coord.Snapshot()
	today := s.today()
	resp := newListResponse(services.BuildDueList(snap.Agreements, today), snap, today)
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(ctx)).
			LogError(ctx, "Refresh failed", err, applog.OpRefresh, nil)
		resp.Error = err.Error()
		writeJSON(ctx, w, http.StatusBadGateway, resp)
		return
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) handleCreateAgreement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := ParseCreateRequest(r)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	id, err := s.coord.AddAgreement(ctx, n)
	if err != nil {
		writeError(ctx, w, statusFor(err), err)
		return
	}
	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogAgreementCreated(ctx, id, n.ClientName, n.InstallmentAmount.Cents, n.TotalInstallments)

	snap := s.coord.Snapshot()
	writeJSON(ctx, w, http.StatusCreated, mutationResponse{
		ID:         id,
		TotalValue: n.TotalAmount().String(),
		Error:      errString(snap.Err),
	})
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := sanitizeInput(r.PathValue("id"))

	if err := s.coord.MarkPaid(ctx, id); err != nil {
		writeError(ctx, w, statusFor(err), err)
		return
	}
	applog.NewStructuredLogger(applog.FromContext(ctx)).LogPaymentMarked(ctx, id)

	snap := s.coord.Snapshot()
	writeJSON(ctx, w, http.StatusOK, mutationResponse{ID: id, Error: errString(snap.Err)})
}

// statusFor maps coordinator errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrAlreadySettled):
		return http.StatusConflict
	case errors.Is(err, core.ErrEmptyClientName),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidStartDate),
		errors.Is(err, core.ErrInvalidFrequency),
		errors.Is(err, core.ErrInvalidInstallments):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
