package http

import (
	"context"
	"time"

	"contas/internal/core"
	"contas/internal/storage"
)

// The server depends on these narrow views of the repository so handler
// tests can swap in fakes.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	ListTransactions(ctx context.Context, from, to *time.Time) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, patch storage.TransactionPatch) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

type CardStore interface {
	CreateCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error)
	ListCards(ctx context.Context) ([]core.CreditCard, error)
	UpdateCard(ctx context.Context, id string, c core.CreditCard) (core.CreditCard, error)
	DeleteCardCascade(ctx context.Context, id string) error
	CreateCardExpense(ctx context.Context, e core.CardExpense) (core.CardExpense, error)
	ListCardExpenses(ctx context.Context, cardID string, from, to time.Time) ([]core.CardExpense, error)
	DeleteCardExpense(ctx context.Context, id string) error
}

type IconStore interface {
	ListIcons(ctx context.Context) ([]core.CustomIcon, error)
	UpsertIcon(ctx context.Context, i core.CustomIcon) (core.CustomIcon, error)
	DeleteIcon(ctx context.Context, id string) error
}

type BackupStore interface {
	DumpAll(ctx context.Context) (core.Backup, error)
	RestoreAll(ctx context.Context, b core.Backup) error
	WipeAll(ctx context.Context) error
}
