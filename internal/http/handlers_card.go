package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"contas/internal/core"
	"contas/internal/storage"
)

type cardRequest struct {
	Name       string          `json:"name"`
	Limit      decimal.Decimal `json:"limit"`
	ClosingDay int             `json:"closingDay"`
	DueDay     int             `json:"dueDay"`
}

func (req cardRequest) toCard() core.CreditCard {
	return core.CreditCard{
		Name:       strings.TrimSpace(req.Name),
		Limit:      req.Limit,
		ClosingDay: req.ClosingDay,
		DueDay:     req.DueDay,
	}
}

// cardWithBill decorates a card with the bill of the requested month.
type cardWithBill struct {
	core.CreditCard
	CurrentBill *core.BillSummary `json:"currentBill,omitempty"`
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.cards.ListCards(r.Context())
	if err != nil {
		respondError(w, r, err, "failed to list cards")
		return
	}

	// Any parseable integer month is accepted; out-of-range values roll
	// over through the same calendar normalization as the billing math.
	month, errM := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("month")))
	year, errY := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("year")))
	withBills := errM == nil && errY == nil

	out := make([]cardWithBill, len(cards))
	for i, c := range cards {
		out[i] = cardWithBill{CreditCard: c}
	}

	if withBills {
		g, ctx := errgroup.WithContext(r.Context())
		for i := range out {
			g.Go(func() error {
				card := out[i].CreditCard
				start, end := core.BillingRange(month, year, card.ClosingDay)
				expenses, err := s.cards.ListCardExpenses(ctx, card.ID, start, end)
				if err != nil {
					return err
				}
				bill := core.ComputeBill(expenses, card.Limit)
				out[i].CurrentBill = &bill
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			respondError(w, r, err, "failed to compute card bills")
			return
		}
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	card := req.toCard()
	if err := card.Validate(); err != nil {
		respondError(w, r, err, "invalid card")
		return
	}
	created, err := s.cards.CreateCard(r.Context(), card)
	if err != nil {
		respondError(w, r, err, "failed to create card")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	card := req.toCard()
	if err := card.Validate(); err != nil {
		respondError(w, r, err, "invalid card")
		return
	}
	updated, err := s.cards.UpdateCard(r.Context(), id, card)
	if err != nil {
		respondError(w, r, err, "failed to update card")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := s.cards.DeleteCardCascade(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err, "failed to delete card")
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

type cardExpenseRequest struct {
	Description  string          `json:"description"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	PurchaseDate string          `json:"purchaseDate"`
	Category     string          `json:"category"`
	CardID       string          `json:"cardId"`
	IsRecurring  bool            `json:"isRecurring"`
}

func (s *Server) handleCreateCardExpense(w http.ResponseWriter, r *http.Request) {
	var req cardExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	purchaseDate, err := parseRequestDate("purchaseDate", req.PurchaseDate)
	if err != nil {
		respondError(w, r, err, "invalid purchase date")
		return
	}

	e := core.CardExpense{
		Description:  strings.TrimSpace(req.Description),
		TotalAmount:  req.TotalAmount,
		PurchaseDate: purchaseDate,
		Category:     core.NormalizeCategory(req.Category),
		CardID:       strings.TrimSpace(req.CardID),
		IsRecurring:  req.IsRecurring,
	}
	if err := e.Validate(); err != nil {
		respondError(w, r, err, "invalid card expense")
		return
	}

	created, err := s.cards.CreateCardExpense(r.Context(), e)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "card not found", "")
			return
		}
		respondError(w, r, err, "failed to create card expense")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteCardExpense(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required", "")
		return
	}
	if err := s.cards.DeleteCardExpense(r.Context(), id); err != nil {
		respondError(w, r, err, "failed to delete card expense")
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}
