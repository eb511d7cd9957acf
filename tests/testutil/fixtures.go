package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/iho/acctledger/internal/adapter/repository/postgres"
	"github.com/iho/acctledger/internal/domain"
	infrapg "github.com/iho/acctledger/internal/infrastructure/postgres"
	"github.com/iho/acctledger/internal/infrastructure/postgres/generated"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	URL     string
	Pool    *pgxpool.Pool
	Queries *generated.Queries
	t       *testing.T
}

// NewTestDB connects to DATABASE_URL when it is set, otherwise starts a
// disposable PostgreSQL container. Migrations are applied in both cases and
// everything is released through t.Cleanup.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = startPostgres(t)
	}

	if err := infrapg.RunMigrations(dbURL, migrationsPath(t), zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := infrapg.NewPoolWithConfig(ctx, infrapg.PoolConfig{
		DatabaseURL: dbURL,
		MaxConns:    50,
		MinConns:    1,
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	t.Cleanup(pool.Close)

	return &TestDB{
		URL:     dbURL,
		Pool:    pool,
		Queries: generated.New(pool),
		t:       t,
	}
}

func startPostgres(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("ledger"),
		tcpostgres.WithPassword("ledger"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	return connStr
}

// MigrationsPath returns the absolute migrations directory.
func MigrationsPath(t *testing.T) string {
	t.Helper()

	return migrationsPath(t)
}

// migrationsPath finds the migrations directory from the repository root or
// any test package below it.
func migrationsPath(t *testing.T) string {
	t.Helper()

	for _, candidate := range []string{"migrations", "../migrations", "../../migrations", "../../../migrations"} {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				t.Fatalf("failed to resolve migrations path: %v", err)
			}

			return abs
		}
	}

	t.Fatal("migrations directory not found")

	return ""
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `TRUNCATE TABLE transactions, accounts RESTART IDENTITY CASCADE`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// CreateTestAccount creates an account with a zero balance.
func (db *TestDB) CreateTestAccount(ctx context.Context, name, slug string) *domain.Account {
	db.t.Helper()

	return db.CreateTestAccountWithBalance(ctx, name, slug, decimal.Zero)
}

// CreateTestAccountWithBalance creates an account directly through the
// generated queries, bypassing the use case layer.
func (db *TestDB) CreateTestAccountWithBalance(ctx context.Context, name, slug string, balance decimal.Decimal) *domain.Account {
	db.t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	id := GenerateID()

	var numericBalance pgtype.Numeric

	if err := numericBalance.Scan(balance.StringFixed(domain.MoneyScale)); err != nil {
		db.t.Fatalf("failed to encode balance: %v", err)
	}

	ts := pgtype.Timestamptz{Time: now, Valid: true}

	err := db.Queries.CreateAccount(ctx, generated.CreateAccountParams{
		ID:        id,
		Name:      name,
		Slug:      slug,
		Balance:   numericBalance,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		db.t.Fatalf("failed to create test account: %v", err)
	}

	return &domain.Account{
		ID:        id,
		Name:      name,
		Slug:      slug,
		Balance:   balance,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Repositories returns postgres repositories bound to the test pool.
func (db *TestDB) Repositories() (*postgres.TxManager, *postgres.AccountRepository, *postgres.TransactionRepository) {
	return postgres.NewTxManager(db.Pool), postgres.NewAccountRepository(db.Pool), postgres.NewTransactionRepository(db.Pool)
}

// GenerateID generates a new account id.
func GenerateID() string {
	return uuid.NewString()
}
