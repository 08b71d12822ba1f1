package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"contas/internal/core"
	"contas/internal/storage"
)

// monthYearRange reads the month/year query parameters. Both must parse as
// integers for a range to be produced; otherwise the listing is unfiltered.
// Out-of-range months roll over via calendar normalization.
func monthYearRange(r *http.Request) (from, to *time.Time, ok bool) {
	month, errM := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("month")))
	year, errY := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("year")))
	if errM != nil || errY != nil {
		return nil, nil, false
	}
	f, t := core.MonthRange(month, year)
	return &f, &t, true
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	from, to, _ := monthYearRange(r)
	list, err := s.transactions.ListTransactions(r.Context(), from, to)
	if err != nil {
		respondError(w, r, err, "failed to list transactions")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type transactionRequest struct {
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Category      string          `json:"category"`
	Date          string          `json:"date"`
	IsRecurring   bool            `json:"isRecurring"`
	RelatedCardID *string         `json:"relatedCardId"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	date, err := parseRequestDate("date", req.Date)
	if err != nil {
		respondError(w, r, err, "invalid date")
		return
	}

	t := core.Transaction{
		Description:   strings.TrimSpace(req.Description),
		Amount:        req.Amount,
		Type:          core.TransactionType(req.Type),
		Category:      core.NormalizeCategory(req.Category),
		Date:          date,
		IsRecurring:   req.IsRecurring,
		RelatedCardID: req.RelatedCardID,
	}
	if err := t.Validate(); err != nil {
		respondError(w, r, err, "invalid transaction")
		return
	}

	created, err := s.transactions.CreateTransaction(r.Context(), t)
	if err != nil {
		respondError(w, r, err, "failed to create transaction")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type transactionUpdateRequest struct {
	ID      string `json:"id"`
	Payload struct {
		Description *string          `json:"description"`
		Amount      *decimal.Decimal `json:"amount"`
		Type        *string          `json:"type"`
		Category    *string          `json:"category"`
		Date        *string          `json:"date"`
	} `json:"payload"`
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "id is required", "")
		return
	}

	patch := storage.TransactionPatch{
		Description: req.Payload.Description,
		Amount:      req.Payload.Amount,
	}
	if req.Payload.Type != nil {
		tt := core.TransactionType(*req.Payload.Type)
		if tt != core.Income && tt != core.Expense {
			writeError(w, http.StatusBadRequest, "type must be INCOME or EXPENSE", "")
			return
		}
		patch.Type = &tt
	}
	if req.Payload.Category != nil {
		cat := core.NormalizeCategory(*req.Payload.Category)
		patch.Category = &cat
	}
	if req.Payload.Date != nil {
		date, err := parseRequestDate("date", *req.Payload.Date)
		if err != nil {
			respondError(w, r, err, "invalid date")
			return
		}
		patch.Date = &date
	}

	updated, err := s.transactions.UpdateTransaction(r.Context(), req.ID, patch)
	if err != nil {
		respondError(w, r, err, "failed to update transaction")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required", "")
		return
	}
	if err := s.transactions.DeleteTransaction(r.Context(), id); err != nil {
		respondError(w, r, err, "failed to delete transaction")
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}
