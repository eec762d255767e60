package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/shopspring/decimal"
)

const cartColumns = `id, member_id, product_id, quantity, unit_price, created_at, updated_at`

func scanCartLine(row interface{ Scan(...any) error }) (*domain.CartLine, error) {
	var l domain.CartLine
	err := row.Scan(
		&l.ID,
		&l.MemberID,
		&l.ProductID,
		&l.Quantity,
		&l.UnitPrice,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (q *Queries) FindCartLines(ctx context.Context, memberID int64) ([]domain.CartLine, error) {
	query := `SELECT ` + cartColumns + ` FROM cart_items WHERE member_id = $1 ORDER BY id`

	rows, err := q.db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		l, err := scanCartLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, *l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lines, nil
}

func (q *Queries) FindCartLineByID(ctx context.Context, id int64) (*domain.CartLine, error) {
	query := `SELECT ` + cartColumns + ` FROM cart_items WHERE id = $1`

	l, err := scanCartLine(q.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart line by id: %w", err)
	}
	return l, nil
}

func (q *Queries) FindCartLineByProduct(ctx context.Context, memberID, productID int64) (*domain.CartLine, error) {
	query := `SELECT ` + cartColumns + ` FROM cart_items WHERE member_id = $1 AND product_id = $2`

	l, err := scanCartLine(q.db.QueryRowContext(ctx, query, memberID, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart line by product: %w", err)
	}
	return l, nil
}

func (q *Queries) InsertCartLine(ctx context.Context, line *domain.CartLine) error {
	query := `INSERT INTO cart_items (member_id, product_id, quantity, unit_price, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	err := q.db.QueryRowContext(ctx, query,
		line.MemberID,
		line.ProductID,
		line.Quantity,
		line.UnitPrice,
		line.CreatedAt,
		line.UpdatedAt,
	).Scan(&line.ID)
	if err != nil {
		return fmt.Errorf("insert cart line: %w", err)
	}
	return nil
}

func (q *Queries) UpdateCartLine(ctx context.Context, id int64, qty int, unitPrice decimal.Decimal, at time.Time) error {
	query := `UPDATE cart_items SET quantity = $1, unit_price = $2, updated_at = $3 WHERE id = $4`

	res, err := q.db.ExecContext(ctx, query, qty, unitPrice, at, id)
	if err != nil {
		return fmt.Errorf("update cart line: %w", err)
	}
	ok, err := singleRowAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCartLineNotFound
	}
	return nil
}

func (q *Queries) DeleteCartLine(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	return nil
}

func (q *Queries) DeleteCartLines(ctx context.Context, memberID int64) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM cart_items WHERE member_id = $1`, memberID); err != nil {
		return fmt.Errorf("delete cart lines: %w", err)
	}
	return nil
}

func (q *Queries) CountCartLines(ctx context.Context, memberID int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cart_items WHERE member_id = $1`, memberID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count cart lines: %w", err)
	}
	return n, nil
}
