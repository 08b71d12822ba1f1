package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"contas/internal/core"
)

const transactionColumns = `id, description, amount, type, category, date,
	is_recurring, installments, group_id, related_card_id, created_at, updated_at`

// TransactionPatch is a partial update: nil fields are left unchanged.
type TransactionPatch struct {
	Description *string
	Amount      *decimal.Decimal
	Type        *core.TransactionType
	Category    *string
	Date        *core.Date
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := time.Now()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, description, amount, type, category, date,
			is_recurring, installments, group_id, related_card_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Description, t.Amount.String(), string(t.Type), t.Category, unix(t.Date.Time),
		t.IsRecurring, nullRaw(t.Installments), nullStr(t.GroupID), nullStr(t.RelatedCardID),
		unix(now), unix(now))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns the ledger ordered by date descending. When both
// bounds are given only entries with date in [from, to) are returned.
func (r *Repository) ListTransactions(ctx context.Context, from, to *time.Time) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	var args []any
	if from != nil && to != nil {
		query += ` WHERE date >= ? AND date < ?`
		args = append(args, unix(*from), unix(*to))
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, id string, patch TransactionPatch) (core.Transaction, error) {
	sets := []string{"updated_at = ?"}
	args := []any{unix(time.Now())}

	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, patch.Amount.String())
	}
	if patch.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, string(*patch.Type))
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	if patch.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, unix(patch.Date.Time))
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Transaction{}, ErrNotFound
	}

	return r.getTransaction(ctx, id)
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) getTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	return t, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                         core.Transaction
		amount, txType            string
		dateSec, created, updated int64
		installments              sql.NullString
		groupID, relatedCardID    sql.NullString
	)
	err := row.Scan(&t.ID, &t.Description, &amount, &txType, &t.Category, &dateSec,
		&t.IsRecurring, &installments, &groupID, &relatedCardID, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	if t.Amount, err = parseAmount(amount); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(txType)
	t.Date = core.Date{Time: fromUnix(dateSec)}
	if installments.Valid {
		t.Installments = []byte(installments.String)
	}
	t.GroupID = strPtr(groupID)
	t.RelatedCardID = strPtr(relatedCardID)
	t.CreatedAt = fromUnix(created)
	t.UpdatedAt = fromUnix(updated)
	return t, nil
}

func nullRaw(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
