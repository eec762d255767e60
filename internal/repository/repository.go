package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCartLineNotFound = errors.New("cart line not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrDuplicateOrder   = errors.New("order number already exists")
	ErrInvalidQuantity  = errors.New("stock quantity must be positive")
)

const migrationsTable = "orders_schema_migrations"

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// Querier is every read and write the cart and order services issue. It is
// implemented both by the pooled Repository and by the handle passed into
// WithinTx, so the same code runs inside or outside a transaction.
type Querier interface {
	FindProductByID(ctx context.Context, id int64) (*domain.Product, error)
	SaveProduct(ctx context.Context, p *domain.Product) error
	DecreaseStock(ctx context.Context, productID int64, qty int) (bool, error)
	IncreaseStock(ctx context.Context, productID int64, qty int) (bool, error)

	FindCartLines(ctx context.Context, memberID int64) ([]domain.CartLine, error)
	FindCartLineByID(ctx context.Context, id int64) (*domain.CartLine, error)
	FindCartLineByProduct(ctx context.Context, memberID, productID int64) (*domain.CartLine, error)
	InsertCartLine(ctx context.Context, line *domain.CartLine) error
	UpdateCartLine(ctx context.Context, id int64, qty int, unitPrice decimal.Decimal, at time.Time) error
	DeleteCartLine(ctx context.Context, id int64) error
	DeleteCartLines(ctx context.Context, memberID int64) error
	CountCartLines(ctx context.Context, memberID int64) (int, error)

	InsertOrder(ctx context.Context, order *domain.Order) error
	InsertOrderLines(ctx context.Context, lines []domain.OrderLine) error
	UpdateOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus, at time.Time) (bool, error)
	FindOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	FindOrderByNumber(ctx context.Context, number string) (*domain.Order, error)
	ExistsByOrderNumber(ctx context.Context, number string) (bool, error)
	FindOrdersByMember(ctx context.Context, memberID int64, offset, limit int) ([]*domain.Order, error)
	CountOrdersByMember(ctx context.Context, memberID int64) (int, error)
	FindOrderLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error)
	DeleteOrderLines(ctx context.Context, orderID int64) error
	DeleteOrder(ctx context.Context, id int64) error

	InsertOutboxEvent(ctx context.Context, event *domain.OutboxEvent) error
}

// OutboxRepository is what the event publisher needs.
type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error
}

type Store interface {
	Querier
	OutboxRepository
	WithinTx(ctx context.Context, fn func(q Querier) error) error
	Close() error
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db dbtx
}

type Repository struct {
	*Queries
	db      *sql.DB
	dialect string
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{Queries: &Queries{db: db}, db: db, dialect: "postgres"}, nil
}

// NewSQLiteRepository opens an embedded store. A single connection keeps
// ":memory:" databases shared and serializes transactions.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(1)
	return &Repository{Queries: &Queries{db: db}, db: db, dialect: "sqlite"}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	var (
		driver database.Driver
		err    error
	)
	switch r.dialect {
	case "sqlite":
		driver, err = sqlite.WithInstance(r.db, &sqlite.Config{MigrationsTable: migrationsTable})
	default:
		driver, err = postgres.WithInstance(r.db, &postgres.Config{MigrationsTable: migrationsTable})
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		r.dialect,
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

// WithinTx runs fn in one transaction. Any error from fn, or a panic, rolls
// everything back.
func (r *Repository) WithinTx(ctx context.Context, fn func(q Querier) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(&Queries{db: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
