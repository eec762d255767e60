package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/lib/pq"
)

const orderColumns = `id, order_number, member_id, status_id, total_amount, shipping_amount, tax_amount,
	discount_amount, shipping_address, notes, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.MemberID,
		&o.StatusID,
		&o.TotalAmount,
		&o.ShippingAmount,
		&o.TaxAmount,
		&o.DiscountAmount,
		&o.ShippingAddress,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (q *Queries) InsertOrder(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO orders (order_number, member_id, status_id, total_amount, shipping_amount, tax_amount,
	          discount_amount, shipping_address, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`

	err := q.db.QueryRowContext(ctx, query,
		order.OrderNumber,
		order.MemberID,
		order.StatusID,
		order.TotalAmount,
		order.ShippingAmount,
		order.TaxAmount,
		order.DiscountAmount,
		order.ShippingAddress,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrder
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// InsertOrderLines writes all lines in one multi-row statement.
func (q *Queries) InsertOrderLines(ctx context.Context, lines []domain.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price, created_at) VALUES `)
	args := make([]any, 0, len(lines)*6)
	for i, l := range lines {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 6
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6)
		args = append(args, l.OrderID, l.ProductID, l.Quantity, l.UnitPrice, l.TotalPrice, l.CreatedAt)
	}

	if _, err := q.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert order lines: %w", err)
	}
	return nil
}

// UpdateOrderStatus moves the order only if it is still in status from. It
// reports false when no row matched.
func (q *Queries) UpdateOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus, at time.Time) (bool, error) {
	query := `UPDATE orders SET status_id = $1, updated_at = $2 WHERE id = $3 AND status_id = $4`

	res, err := q.db.ExecContext(ctx, query, to.ID(), at, id, from.ID())
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return singleRowAffected(res)
}

func (q *Queries) FindOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(q.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return o, nil
}

func (q *Queries) FindOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`

	o, err := scanOrder(q.db.QueryRowContext(ctx, query, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by number: %w", err)
	}
	return o, nil
}

func (q *Queries) ExistsByOrderNumber(ctx context.Context, number string) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE order_number = $1`, number).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check order number: %w", err)
	}
	return n > 0, nil
}

func (q *Queries) FindOrdersByMember(ctx context.Context, memberID int64, offset, limit int) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE member_id = $1
	          ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`

	rows, err := q.db.QueryContext(ctx, query, memberID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query orders by member: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

func (q *Queries) CountOrdersByMember(ctx context.Context, memberID int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE member_id = $1`, memberID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (q *Queries) FindOrderLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	query := `SELECT id, order_id, product_id, quantity, unit_price, total_price, created_at
	          FROM order_items WHERE order_id = $1 ORDER BY id`

	rows, err := q.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(
			&l.ID,
			&l.OrderID,
			&l.ProductID,
			&l.Quantity,
			&l.UnitPrice,
			&l.TotalPrice,
			&l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lines, nil
}

func (q *Queries) DeleteOrderLines(ctx context.Context, orderID int64) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order lines: %w", err)
	}
	return nil
}

func (q *Queries) DeleteOrder(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	ok, err := singleRowAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOrderNotFound
	}
	return nil
}
