package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"cobrancas/internal/services"
)

// ItemView is the JSON presentation of one agreement on one day.
type ItemView struct {
	ID                string `json:"id"`
	ClientName        string `json:"client_name"`
	Description       string `json:"description,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Amount            string `json:"amount"`
	AmountBRL         string `json:"amount_brl"`
	InstallmentsPaid  int    `json:"installments_paid"`
	TotalInstallments int    `json:"total_installments"`
	Installment       string `json:"installment"`
	Frequency         string `json:"frequency"`
	Status            string `json:"status"`
	Overdue           bool   `json:"overdue"`
	NextDueDate       string `json:"next_due_date,omitempty"`
	Reminder          string `json:"reminder,omitempty"`
}

// ListResponse wraps a list view. Error carries the last refresh failure;
// Items then come from the previous successful fetch.
type ListResponse struct {
	Today     string     `json:"today"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
	Count     int        `json:"count"`
	Items     []ItemView `json:"items"`
	Error     string     `json:"error,omitempty"`
}

type mutationResponse struct {
	ID         string `json:"id,omitempty"`
	TotalValue string `json:"total_value,omitempty"`
	// Error reports a refresh failure after the mutation itself succeeded.
	Error string `json:"refresh_error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newItemView(item services.DueItem) ItemView {
	v := ItemView{
		ID:                item.ID,
		ClientName:        item.ClientName,
		Description:       item.Description,
		Phone:             item.Phone,
		Amount:            item.InstallmentAmount.String(),
		AmountBRL:         item.InstallmentAmount.BRL(),
		InstallmentsPaid:  item.InstallmentsPaid,
		TotalInstallments: item.TotalInstallments,
		Installment:       item.InstallmentLabel(),
		Frequency:         string(item.Frequency),
		Status:            string(item.Schedule.Status),
		Overdue:           item.Overdue(),
	}
	if !item.Schedule.NextDueDate.IsEmpty() {
		v.NextDueDate = item.Schedule.NextDueDate.String()
	}
	if item.Schedule.Status.NeedsAttention() {
		v.Reminder = services.ReminderText(item)
	}
	return v
}

func newListResponse(items []services.DueItem, snap services.Snapshot, today time.Time) ListResponse {
	resp := ListResponse{
		Today: today.Format("2006-01-02"),
		Count: len(items),
		Items: make([]ItemView, 0, len(items)),
		Error: errString(snap.Err),
	}
	if !snap.FetchedAt.IsZero() {
		fetched := snap.FetchedAt
		resp.FetchedAt = &fetched
	}
	for _, item := range items {
		resp.Items = append(resp.Items, newItemView(item))
	}
	return resp
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "Request failed", "status", status, "error", err)
	} else {
		slog.WarnContext(ctx, "Request rejected", "status", status, "error", err)
	}
	writeJSON(ctx, w, status, errorResponse{Error: err.Error()})
}
