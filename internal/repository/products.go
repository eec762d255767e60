package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/shopspring/decimal"
)

func (q *Queries) FindProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT id, name, price, sale_price, stock_quantity, is_active, created_at, updated_at
	          FROM products WHERE id = $1`

	var p domain.Product
	var sale decimal.NullDecimal
	err := q.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&sale,
		&p.StockQuantity,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}
	if sale.Valid {
		p.SalePrice = &sale.Decimal
	}
	return &p, nil
}

// DecreaseStock reserves qty units in a single conditional update. It reports
// false when the product is missing or has fewer than qty units left.
func (q *Queries) DecreaseStock(ctx context.Context, productID int64, qty int) (bool, error) {
	if qty <= 0 {
		slog.Warn("stock change rejected", "action", "DECREASE_STOCK_FAILED", "product_id", productID, "quantity", qty)
		return false, ErrInvalidQuantity
	}
	query := `UPDATE products SET stock_quantity = stock_quantity - $1
	          WHERE id = $2 AND stock_quantity >= $3`

	res, err := q.db.ExecContext(ctx, query, qty, productID, qty)
	if err != nil {
		return false, fmt.Errorf("decrease stock: %w", err)
	}
	return singleRowAffected(res)
}

func (q *Queries) IncreaseStock(ctx context.Context, productID int64, qty int) (bool, error) {
	if qty <= 0 {
		slog.Warn("stock change rejected", "action", "INCREASE_STOCK_FAILED", "product_id", productID, "quantity", qty)
		return false, ErrInvalidQuantity
	}
	query := `UPDATE products SET stock_quantity = stock_quantity + $1 WHERE id = $2`

	res, err := q.db.ExecContext(ctx, query, qty, productID)
	if err != nil {
		return false, fmt.Errorf("increase stock: %w", err)
	}
	return singleRowAffected(res)
}

// SaveProduct inserts a catalog row when p.ID is zero and overwrites it
// otherwise. The catalog itself is owned elsewhere; this is the sync path.
func (q *Queries) SaveProduct(ctx context.Context, p *domain.Product) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	var sale decimal.NullDecimal
	if p.SalePrice != nil {
		sale = decimal.NewNullDecimal(*p.SalePrice)
	}

	if p.ID == 0 {
		query := `INSERT INTO products (name, price, sale_price, stock_quantity, is_active, created_at, updated_at)
		          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
		err := q.db.QueryRowContext(ctx, query,
			p.Name, p.Price, sale, p.StockQuantity, p.IsActive, p.CreatedAt, p.UpdatedAt,
		).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		return nil
	}

	query := `UPDATE products SET name = $1, price = $2, sale_price = $3, stock_quantity = $4,
	          is_active = $5, updated_at = $6 WHERE id = $7`
	res, err := q.db.ExecContext(ctx, query,
		p.Name, p.Price, sale, p.StockQuantity, p.IsActive, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	ok, err := singleRowAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProductNotFound
	}
	return nil
}

func singleRowAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
