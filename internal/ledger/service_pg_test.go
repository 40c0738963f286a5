package ledger

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/farlliant/tokopos-backend/pkg/config"
	pkgerrors "github.com/farlliant/tokopos-backend/pkg/errors"
)

// The sqlite suite cannot exercise FOR UPDATE row locks, so the serialization
// tests below need a real postgres. Point TEST_DATABASE_URL at a disposable
// database to run them; they drop and recreate the ledger tables.
func setupPostgresLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`DROP TABLE IF EXISTS transactions`,
		`DROP TABLE IF EXISTS accounts`,
		`DROP TABLE IF EXISTS products`,
		`CREATE TABLE products (
  kode_barang  TEXT PRIMARY KEY,
  nama_barang  TEXT NOT NULL,
  satuan       TEXT NOT NULL,
  harga_satuan NUMERIC(12, 2) NOT NULL,
  harga_modal  NUMERIC(12, 2) NOT NULL DEFAULT 0,
  stok         INTEGER NOT NULL DEFAULT 0 CHECK (stok >= 0),
  created_at   TIMESTAMPTZ,
  updated_at   TIMESTAMPTZ
)`,
		`CREATE TABLE accounts (
  id            UUID PRIMARY KEY,
  username      TEXT NOT NULL UNIQUE,
  email         TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name     TEXT,
  role          TEXT NOT NULL DEFAULT 'staff',
  balance       NUMERIC(12, 2) NOT NULL DEFAULT 0,
  is_active     BOOLEAN NOT NULL DEFAULT TRUE,
  last_login    TIMESTAMPTZ,
  date_joined   TIMESTAMPTZ
)`,
		`CREATE TABLE transactions (
  id              BIGSERIAL PRIMARY KEY,
  product_code    TEXT NOT NULL REFERENCES products (kode_barang) ON DELETE RESTRICT,
  account_id      UUID REFERENCES accounts (id),
  customer_label  TEXT,
  jumlah          INTEGER NOT NULL CHECK (jumlah > 0),
  harga_satuan    NUMERIC(12, 2) NOT NULL,
  harga_modal     NUMERIC(12, 2) NOT NULL DEFAULT 0,
  total_harga     NUMERIC(12, 2) NOT NULL,
  waktu_transaksi TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		for _, table := range []string{"transactions", "accounts", "products"} {
			_ = db.Exec("DROP TABLE IF EXISTS " + table).Error
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newPostgresLedgerService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := setupPostgresLedgerDB(t)
	svc, err := NewService(
		NewRepository(db),
		gormTxRunner{db: db},
		config.DBConfig{LockTimeout: 5 * time.Second},
		config.LedgerConfig{},
		nil,
		nil,
	)
	require.NoError(t, err)
	return svc, db
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	svc, db := newPostgresLedgerService(t)
	ctx := context.Background()
	seedProduct(t, db, "BRG-001", "15000.00", 5)

	// Two quantity-3 sales race for 5 units: the row lock must serialize them
	// so exactly one commits and the loser sees the post-commit stock.
	start := make(chan struct{})
	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := svc.RecordSale(ctx, SaleInput{
				ProductCode:   "BRG-001",
				Quantity:      3,
				CustomerLabel: walkIn(),
			})
			results[i] = err
		}(i)
	}
	close(start)
	wg.Wait()

	var succeeded, rejected int
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "unexpected error type: %v", err)
		assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
		rejected++
	}
	assert.Equal(t, 1, succeeded, "exactly one racing sale must settle")
	assert.Equal(t, 1, rejected)

	assert.Equal(t, 2, productStock(t, db, "BRG-001"))
	assert.Equal(t, int64(1), ledgerCount(t, db))
}

func TestConcurrentBatchesLockProductsInOrder(t *testing.T) {
	svc, db := newPostgresLedgerService(t)
	ctx := context.Background()
	seedProduct(t, db, "BRG-001", "15000.00", 50)
	seedProduct(t, db, "BRG-002", "8000.00", 50)

	// Batches listing the same products in opposite order must not deadlock;
	// lockProducts sorts codes before acquiring.
	const rounds = 10
	var wg sync.WaitGroup
	errs := make(chan error, rounds*2)
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.RecordSales(ctx, []SaleInput{
				{ProductCode: "BRG-001", Quantity: 1, CustomerLabel: walkIn()},
				{ProductCode: "BRG-002", Quantity: 1, CustomerLabel: walkIn()},
			})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := svc.RecordSales(ctx, []SaleInput{
				{ProductCode: "BRG-002", Quantity: 1, CustomerLabel: walkIn()},
				{ProductCode: "BRG-001", Quantity: 1, CustomerLabel: walkIn()},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 30, productStock(t, db, "BRG-001"))
	assert.Equal(t, 30, productStock(t, db, "BRG-002"))
	assert.Equal(t, int64(rounds*4), ledgerCount(t, db))
}
