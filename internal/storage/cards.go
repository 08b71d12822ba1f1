package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"contas/internal/core"
	applog "contas/internal/log"
)

const cardColumns = `id, name, credit_limit, closing_day, due_day, created_at, updated_at`

const cardExpenseColumns = `id, description, total_amount, purchase_date,
	installments, is_recurring, category, card_id, created_at, updated_at`

func (r *Repository) CreateCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error) {
	now := time.Now()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credit_cards (id, name, credit_limit, closing_day, due_day, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Limit.String(), c.ClosingDay, c.DueDay, unix(now), unix(now))
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("insert credit card: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCards(ctx context.Context) ([]core.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM credit_cards ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query credit cards: %w", err)
	}
	defer rows.Close()

	out := []core.CreditCard{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit cards: %w", err)
	}
	return out, nil
}

func (r *Repository) GetCard(ctx context.Context, id string) (core.CreditCard, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM credit_cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CreditCard{}, ErrNotFound
	}
	return c, err
}

// UpdateCard replaces every editable field of a card.
func (r *Repository) UpdateCard(ctx context.Context, id string, c core.CreditCard) (core.CreditCard, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE credit_cards SET name = ?, credit_limit = ?, closing_day = ?, due_day = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.Limit.String(), c.ClosingDay, c.DueDay, unix(time.Now()), id)
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("update credit card: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.CreditCard{}, ErrNotFound
	}
	return r.GetCard(ctx, id)
}

// DeleteCardCascade removes a card together with its effects in one
// all-or-nothing unit: owned expenses are deleted, linked transactions are
// detached, then the card row itself goes.
func (r *Repository) DeleteCardCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cascade delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM card_expenses WHERE card_id = ?`, id); err != nil {
		return fmt.Errorf("delete card expenses: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET related_card_id = NULL, updated_at = ? WHERE related_card_id = ?`,
		unix(time.Now()), id); err != nil {
		return fmt.Errorf("detach transactions: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM credit_cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete credit card: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cascade delete: %w", err)
	}

	slog.InfoContext(ctx, "Credit card deleted with cascade",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldCardID, id)
	return nil
}

// CreateCardExpense inserts a purchase after checking the owning card exists.
func (r *Repository) CreateCardExpense(ctx context.Context, e core.CardExpense) (core.CardExpense, error) {
	if _, err := r.GetCard(ctx, e.CardID); err != nil {
		return core.CardExpense{}, err
	}

	now := time.Now()
	e.ID = uuid.NewString()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO card_expenses (id, description, total_amount, purchase_date,
			installments, is_recurring, category, card_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Description, e.TotalAmount.String(), unix(e.PurchaseDate.Time),
		nullRaw(e.Installments), e.IsRecurring, e.Category, e.CardID, unix(now), unix(now))
	if err != nil {
		return core.CardExpense{}, fmt.Errorf("insert card expense: %w", err)
	}
	return e, nil
}

// ListCardExpenses returns one card's purchases with purchase_date in
// [from, to).
func (r *Repository) ListCardExpenses(ctx context.Context, cardID string, from, to time.Time) ([]core.CardExpense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+cardExpenseColumns+` FROM card_expenses
		WHERE card_id = ? AND purchase_date >= ? AND purchase_date < ?
		ORDER BY purchase_date DESC, id DESC`,
		cardID, unix(from), unix(to))
	if err != nil {
		return nil, fmt.Errorf("query card expenses: %w", err)
	}
	defer rows.Close()

	out := []core.CardExpense{}
	for rows.Next() {
		e, err := scanCardExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card expenses: %w", err)
	}
	return out, nil
}

func (r *Repository) DeleteCardExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM card_expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete card expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCard(row rowScanner) (core.CreditCard, error) {
	var (
		c                core.CreditCard
		limit            string
		created, updated int64
	)
	err := row.Scan(&c.ID, &c.Name, &limit, &c.ClosingDay, &c.DueDay, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.CreditCard{}, err
		}
		return core.CreditCard{}, fmt.Errorf("scan credit card: %w", err)
	}
	if c.Limit, err = parseAmount(limit); err != nil {
		return core.CreditCard{}, err
	}
	c.CreatedAt = fromUnix(created)
	c.UpdatedAt = fromUnix(updated)
	return c, nil
}

func scanCardExpense(row rowScanner) (core.CardExpense, error) {
	var (
		e                             core.CardExpense
		amount                        string
		purchaseSec, created, updated int64
		installments                  sql.NullString
	)
	err := row.Scan(&e.ID, &e.Description, &amount, &purchaseSec,
		&installments, &e.IsRecurring, &e.Category, &e.CardID, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.CardExpense{}, err
		}
		return core.CardExpense{}, fmt.Errorf("scan card expense: %w", err)
	}
	if e.TotalAmount, err = parseAmount(amount); err != nil {
		return core.CardExpense{}, err
	}
	e.PurchaseDate = core.Date{Time: fromUnix(purchaseSec)}
	if installments.Valid {
		e.Installments = []byte(installments.String)
	}
	e.CreatedAt = fromUnix(created)
	e.UpdatedAt = fromUnix(updated)
	return e, nil
}
