package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"

	// DefaultCategory is applied whenever a category collapses to empty
	// after trimming.
	DefaultCategory = "GERAL"
)

type (
	TransactionType string

	// Transaction is one personal ledger entry. Amount is always
	// non-negative; Type carries the cash-flow direction. GroupID and
	// Installments exist in the schema but are never populated by the
	// current logic.
	Transaction struct {
		ID            string          `json:"id"`
		Description   string          `json:"description"`
		Amount        decimal.Decimal `json:"amount"`
		Type          TransactionType `json:"type"`
		Category      string          `json:"category"`
		Date          Date            `json:"date"`
		IsRecurring   bool            `json:"isRecurring"`
		Installments  json.RawMessage `json:"installments,omitempty"`
		GroupID       *string         `json:"groupId"`
		RelatedCardID *string         `json:"relatedCardId"`
		CreatedAt     time.Time       `json:"createdAt"`
		UpdatedAt     time.Time       `json:"updatedAt"`
	}

	// CreditCard owns zero or more CardExpense rows and may be referenced
	// by transactions that represent card payments.
	CreditCard struct {
		ID         string          `json:"id"`
		Name       string          `json:"name"`
		Limit      decimal.Decimal `json:"limit"`
		ClosingDay int             `json:"closingDay"`
		DueDay     int             `json:"dueDay"`
		CreatedAt  time.Time       `json:"createdAt"`
		UpdatedAt  time.Time       `json:"updatedAt"`
	}

	// CardExpense is a purchase charged to a specific card.
	CardExpense struct {
		ID           string          `json:"id"`
		Description  string          `json:"description"`
		TotalAmount  decimal.Decimal `json:"totalAmount"`
		PurchaseDate Date            `json:"purchaseDate"`
		Installments json.RawMessage `json:"installments,omitempty"`
		IsRecurring  bool            `json:"isRecurring"`
		Category     string          `json:"category"`
		CardID       string          `json:"cardId"`
		CreatedAt    time.Time       `json:"createdAt"`
		UpdatedAt    time.Time       `json:"updatedAt"`
	}

	// CustomIcon maps a keyword to a visual, presentation only. Keyword is
	// unique; creation upserts on it.
	CustomIcon struct {
		ID             string    `json:"id"`
		Keyword        string    `json:"keyword"`
		BrandTerm      *string   `json:"brandTerm"`
		CustomImageURL *string   `json:"customImageUrl"`
		CreatedAt      time.Time `json:"createdAt"`
		UpdatedAt      time.Time `json:"updatedAt"`
	}
)

// ValidationError reports a missing or out-of-range request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

func required(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "is required"}
}

// NormalizeCategory trims the input and falls back to DefaultCategory when
// nothing remains.
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultCategory
	}
	return s
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return required("description")
	}
	if t.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	if t.Type != Income && t.Type != Expense {
		return &ValidationError{Field: "type", Reason: "must be INCOME or EXPENSE"}
	}
	if t.Date.IsZero() {
		return required("date")
	}
	return nil
}

func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return required("name")
	}
	if c.Limit.IsNegative() {
		return &ValidationError{Field: "limit", Reason: "must not be negative"}
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return &ValidationError{Field: "closingDay", Reason: "must be 1..31"}
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return &ValidationError{Field: "dueDay", Reason: "must be 1..31"}
	}
	return nil
}

func (e CardExpense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return required("description")
	}
	if e.TotalAmount.IsNegative() {
		return &ValidationError{Field: "totalAmount", Reason: "must not be negative"}
	}
	if e.PurchaseDate.IsZero() {
		return required("purchaseDate")
	}
	if strings.TrimSpace(e.CardID) == "" {
		return required("cardId")
	}
	return nil
}

func (i CustomIcon) Validate() error {
	if strings.TrimSpace(i.Keyword) == "" {
		return required("keyword")
	}
	return nil
}
