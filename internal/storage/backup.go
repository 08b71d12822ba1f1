package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"contas/internal/core"
	applog "contas/internal/log"
)

// DumpAll reads the four tables concurrently and assembles a full backup.
func (r *Repository) DumpAll(ctx context.Context) (core.Backup, error) {
	var b core.Backup

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		b.Transactions, err = r.ListTransactions(gctx, nil, nil)
		return err
	})
	g.Go(func() error {
		var err error
		b.Cards, err = r.ListCards(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		b.Expenses, err = r.listAllCardExpenses(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		b.Icons, err = r.ListIcons(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Backup{}, fmt.Errorf("dump tables: %w", err)
	}
	return b, nil
}

// RestoreAll wipes every table and re-inserts the payload in one
// all-or-nothing unit. Cards go first so expense and transaction references
// resolve.
func (r *Repository) RestoreAll(ctx context.Context, b core.Backup) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin restore: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"card_expenses", "transactions", "credit_cards", "custom_icons"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("wipe %s: %w", table, err)
		}
	}

	now := time.Now()
	for _, c := range b.Cards {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO credit_cards (id, name, credit_limit, closing_day, due_day, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			restoreID(c.ID), c.Name, c.Limit.String(), c.ClosingDay, c.DueDay,
			restoreTime(c.CreatedAt, now), restoreTime(c.UpdatedAt, now)); err != nil {
			return fmt.Errorf("restore credit card: %w", err)
		}
	}
	for _, t := range b.Transactions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (id, description, amount, type, category, date,
				is_recurring, installments, group_id, related_card_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			restoreID(t.ID), t.Description, t.Amount.String(), string(t.Type),
			core.NormalizeCategory(t.Category), unix(t.Date.Time), t.IsRecurring,
			nullRaw(t.Installments), nullStr(t.GroupID), nullStr(t.RelatedCardID),
			restoreTime(t.CreatedAt, now), restoreTime(t.UpdatedAt, now)); err != nil {
			return fmt.Errorf("restore transaction: %w", err)
		}
	}
	for _, e := range b.Expenses {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO card_expenses (id, description, total_amount, purchase_date,
				installments, is_recurring, category, card_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			restoreID(e.ID), e.Description, e.TotalAmount.String(), unix(e.PurchaseDate.Time),
			nullRaw(e.Installments), e.IsRecurring, core.NormalizeCategory(e.Category), e.CardID,
			restoreTime(e.CreatedAt, now), restoreTime(e.UpdatedAt, now)); err != nil {
			return fmt.Errorf("restore card expense: %w", err)
		}
	}
	for _, i := range b.Icons {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO custom_icons (id, keyword, brand_term, custom_image_url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			restoreID(i.ID), i.Keyword, nullStr(i.BrandTerm), nullStr(i.CustomImageURL),
			restoreTime(i.CreatedAt, now), restoreTime(i.UpdatedAt, now)); err != nil {
			return fmt.Errorf("restore custom icon: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit restore: %w", err)
	}

	slog.InfoContext(ctx, "Backup restored",
		applog.FieldComponent, applog.ComponentBackup,
		"transactions", len(b.Transactions), "cards", len(b.Cards),
		"expenses", len(b.Expenses), "icons", len(b.Icons))
	return nil
}

// WipeAll deletes every row of every table in one unit.
func (r *Repository) WipeAll(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin wipe: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"card_expenses", "transactions", "credit_cards", "custom_icons"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("wipe %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit wipe: %w", err)
	}

	slog.InfoContext(ctx, "All tables wiped",
		applog.FieldComponent, applog.ComponentBackup)
	return nil
}

func (r *Repository) listAllCardExpenses(ctx context.Context) ([]core.CardExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cardExpenseColumns+` FROM card_expenses ORDER BY purchase_date DESC, id DESC`)
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

func restoreID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func restoreTime(t, fallback time.Time) int64 {
	if t.IsZero() {
		return unix(fallback)
	}
	return unix(t)
}
