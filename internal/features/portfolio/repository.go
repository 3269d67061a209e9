package portfolio

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores portfolio balances in the programs table.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a portfolio repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// List returns every held program in the order it was added.
func (r *Repository) List(ctx context.Context) ([]Program, error) {
	query := `
		SELECT code, name, balance, transfer_ratio, updated_at
		FROM programs
		ORDER BY position
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	var out []Program
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.Code, &p.Name, &p.Balance, &p.TransferRatio, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read programs: %w", err)
	}
	return out, nil
}

// Upsert inserts a program or replaces its name and balance.
func (r *Repository) Upsert(ctx context.Context, p Program) error {
	query := `
		INSERT INTO programs (code, name, balance, transfer_ratio)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name,
		    balance = EXCLUDED.balance,
		    updated_at = NOW()
	`
	ratio := p.TransferRatio
	if ratio <= 0 {
		ratio = 1.0
	}
	if _, err := r.db.Exec(ctx, query, p.Code, p.Name, p.Balance, ratio); err != nil {
		return fmt.Errorf("upsert program %s: %w", p.Code, err)
	}
	return nil
}

// SeedIfEmpty inserts programs in one transaction when the table is empty.
// It reports whether anything was written.
func (r *Repository) SeedIfEmpty(ctx context.Context, programs []Program) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback(ctx)

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM programs`).Scan(&count); err != nil {
		return false, fmt.Errorf("count programs: %w", err)
	}
	if count > 0 || len(programs) == 0 {
		return false, nil
	}

	for _, p := range programs {
		ratio := p.TransferRatio
		if ratio <= 0 {
			ratio = 1.0
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO programs (code, name, balance, transfer_ratio)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (code) DO NOTHING
		`, p.Code, p.Name, p.Balance, ratio); err != nil {
			return false, fmt.Errorf("seed program %s: %w", p.Code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}
	return true, nil
}

// UpdateBalance sets a balance and reports whether the program exists.
func (r *Repository) UpdateBalance(ctx context.Context, code string, balance int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE programs SET balance = $2, updated_at = NOW() WHERE code = $1
	`, code, balance)
	if err != nil {
		return false, fmt.Errorf("update balance %s: %w", code, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a program and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, code string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM programs WHERE code = $1`, code)
	if err != nil {
		return false, fmt.Errorf("delete program %s: %w", code, err)
	}
	return tag.RowsAffected() > 0, nil
}
